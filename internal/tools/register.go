package tools

import "github.com/chief-builder/mcp-reference-server/internal/mcp"

// RegisterFixtures registers the three conformance fixture tools
// (roll_dice, slow_operation, fortune_teller) against registry. Both
// entrypoints call this during bootstrap so tools/list has a
// deterministic non-synthetic baseline of 3 (SPEC_FULL §4.23).
func RegisterFixtures(registry *mcp.Registry) error {
	for _, tool := range []*mcp.Tool{RollDice(), SlowOperation(), FortuneTeller()} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
