package tools

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/google/jsonschema-go/jsonschema"
)

var diceNotation = regexp.MustCompile(`^(\d+)d(\d+)(\+(\d+))?$`)

var validSides = map[int]bool{2: true, 3: true, 4: true, 6: true, 8: true, 10: true, 12: true, 20: true, 100: true}

type diceResult struct {
	Notation string `json:"notation"`
	Rolls    []int  `json:"rolls"`
	Modifier int    `json:"modifier"`
	Total    int    `json:"total"`
}

// RollDice builds the roll_dice conformance fixture: it parses NdM[+K]
// dice notation (N in [1,20], M one of the standard polyhedral die sizes)
// and rolls N dice of M sides, adding the optional modifier. Malformed
// notation or an unsupported die size is a tool-level error.
func RollDice() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_dice",
		Title:       "Roll dice",
		Description: "Rolls dice given standard NdM[+K] notation, e.g. 3d6+2.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"notation"},
			Properties: map[string]*jsonschema.Schema{
				"notation": {Type: "string", Description: "Dice notation such as 3d6 or 1d20+5"},
			},
		},
		Annotations: &mcp.Annotations{ReadOnlyHint: true, IdempotentHint: false},
		Handler: func(ctx context.Context, arguments json.RawMessage, progress *mcp.ProgressEmitter) (*mcp.ToolResult, error) {
			var params struct {
				Notation string `json:"notation"`
			}
			if len(arguments) > 0 {
				if err := json.Unmarshal(arguments, &params); err != nil {
					return mcp.NewErrorResult("malformed arguments"), nil
				}
			}

			count, sides, modifier, err := parseNotation(params.Notation)
			if err != nil {
				return mcp.NewErrorResult(err.Error()), nil
			}

			rolls := make([]int, count)
			total := modifier
			for i := 0; i < count; i++ {
				n, err := rollOne(sides)
				if err != nil {
					return nil, err
				}
				rolls[i] = n
				total += n
			}

			payload, err := json.Marshal(diceResult{
				Notation: params.Notation,
				Rolls:    rolls,
				Modifier: modifier,
				Total:    total,
			})
			if err != nil {
				return nil, err
			}
			return mcp.NewTextResult(string(payload)), nil
		},
	}
}

func parseNotation(notation string) (count, sides, modifier int, err error) {
	m := diceNotation.FindStringSubmatch(notation)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid dice notation %q, expected NdM[+K]", notation)
	}
	count, _ = strconv.Atoi(m[1])
	sides, _ = strconv.Atoi(m[2])
	if m[4] != "" {
		modifier, _ = strconv.Atoi(m[4])
	}
	if count < 1 || count > 20 {
		return 0, 0, 0, fmt.Errorf("dice count %d out of range [1,20]", count)
	}
	if !validSides[sides] {
		return 0, 0, 0, fmt.Errorf("unsupported die size d%d", sides)
	}
	return count, sides, modifier, nil
}

func rollOne(sides int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(sides)))
	if err != nil {
		return 0, fmt.Errorf("roll dice: %w", err)
	}
	return int(n.Int64()) + 1, nil
}
