package tools

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"

	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/google/jsonschema-go/jsonschema"
)

var fortunes = []string{
	"A closed mouth gathers no feet.",
	"The bug you ignore today ships tomorrow.",
	"Somewhere, a test is flaky and it is waiting for you.",
	"Your next deploy will go smoothly. Probably.",
	"Reviewing your own diff twice finds the third bug.",
}

type fortuneResult struct {
	Fortune string `json:"fortune"`
}

// FortuneTeller builds the fortune_teller conformance fixture: a
// zero-argument tool whose only purpose is to exist alongside roll_dice
// and slow_operation as a second/third registration for duplicate-name
// and pagination/listing conformance tests.
func FortuneTeller() *mcp.Tool {
	return &mcp.Tool{
		Name:        "fortune_teller",
		Title:       "Fortune teller",
		Description: "Returns a short, mostly harmless quip.",
		InputSchema: &jsonschema.Schema{Type: "object"},
		Annotations: &mcp.Annotations{ReadOnlyHint: true, IdempotentHint: false},
		Handler: func(ctx context.Context, arguments json.RawMessage, progress *mcp.ProgressEmitter) (*mcp.ToolResult, error) {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(fortunes))))
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(fortuneResult{Fortune: fortunes[n.Int64()]})
			if err != nil {
				return nil, err
			}
			return mcp.NewTextResult(string(payload)), nil
		},
	}
}
