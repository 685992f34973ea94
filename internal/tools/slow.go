package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	slowOperationIncrement = 50 * time.Millisecond
	slowOperationCapMs     = 10000
)

type slowOperationResult struct {
	RequestedDurationMs int `json:"requested_duration_ms"`
	ActualDurationMs    int `json:"actual_duration_ms"`
}

// SlowOperation builds the slow_operation conformance fixture: it sleeps
// in 50ms increments up to duration_ms (capped at 10s), reporting progress
// on the bound reporter after every increment (spec.md §8 scenario 2).
func SlowOperation() *mcp.Tool {
	return &mcp.Tool{
		Name:        "slow_operation",
		Title:       "Slow operation",
		Description: "Sleeps for duration_ms, reporting progress along the way.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"duration_ms"},
			Properties: map[string]*jsonschema.Schema{
				"duration_ms": {Type: "integer", Description: "Total time to sleep, in milliseconds (capped at 10000)"},
			},
		},
		Annotations: &mcp.Annotations{ReadOnlyHint: true, IdempotentHint: true},
		Handler: func(ctx context.Context, arguments json.RawMessage, progress *mcp.ProgressEmitter) (*mcp.ToolResult, error) {
			var params struct {
				DurationMs int `json:"duration_ms"`
			}
			if len(arguments) > 0 {
				if err := json.Unmarshal(arguments, &params); err != nil {
					return mcp.NewErrorResult("malformed arguments"), nil
				}
			}

			requested := params.DurationMs
			target := requested
			if target > slowOperationCapMs {
				target = slowOperationCapMs
			}
			if target < 0 {
				target = 0
			}

			start := time.Now()
			remaining := time.Duration(target) * time.Millisecond
			total := float64(target)

			for remaining > 0 {
				step := slowOperationIncrement
				if step > remaining {
					step = remaining
				}
				timer := time.NewTimer(step)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				case <-timer.C:
				}
				remaining -= step

				if progress != nil {
					elapsed := float64(time.Since(start).Milliseconds())
					progress.Report(elapsed, &total, "")
				}
			}

			actual := int(time.Since(start).Milliseconds())
			payload, err := json.Marshal(slowOperationResult{
				RequestedDurationMs: requested,
				ActualDurationMs:    actual,
			})
			if err != nil {
				return nil, err
			}
			return mcp.NewTextResult(string(payload)), nil
		},
	}
}
