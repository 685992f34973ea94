package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/audit"
	"github.com/chief-builder/mcp-reference-server/internal/jsonrpc"
	"github.com/chief-builder/mcp-reference-server/internal/logger"
	"github.com/chief-builder/mcp-reference-server/internal/metrics"
	"github.com/chief-builder/mcp-reference-server/internal/progress"
)

// DefaultToolTimeout is the handler race timeout when no per-call or
// config override applies (spec.md §4.4 step 4).
const DefaultToolTimeout = 30 * time.Second

// CallParams is the decoded params of a tools/call request.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      *CallMeta       `json:"_meta,omitempty"`
}

// CallMeta carries the client-supplied progress token (spec.md §3).
type CallMeta struct {
	ProgressToken any `json:"progressToken,omitempty"`
}

// SendFunc delivers an outbound notification on the calling session's
// transport (HTTP SSE stream or STDIO line).
type SendFunc func(method string, params any)

// Executor runs tools/call against a Registry, implementing spec.md §4.4's
// six-step contract: resolve, validate, progress, timeout race, catch,
// record.
type Executor struct {
	registry         *Registry
	timeout          time.Duration
	progressInterval time.Duration
}

// NewExecutor builds an Executor with the given default handler timeout and
// progress-notification throttle. timeout<=0 uses DefaultToolTimeout;
// progressInterval<=0 falls back to the progress package's own default.
func NewExecutor(registry *Registry, timeout, progressInterval time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &Executor{registry: registry, timeout: timeout, progressInterval: progressInterval}
}

// Call executes params.Name with params.Arguments. send, if non-nil, is
// used to deliver notifications/progress as the handler reports progress.
// The returned *jsonrpc.Error is non-nil only for protocol-level failures
// (unknown tool); everything else surfaces as a *ToolResult with
// IsError:true, per spec.md §7's tool-level/protocol-level split.
func (e *Executor) Call(ctx context.Context, params CallParams, send SendFunc) (*ToolResult, *jsonrpc.Error) {
	tool, ok := e.registry.Get(params.Name)
	if !ok {
		return nil, &jsonrpc.Error{
			Code:    jsonrpc.CodeMethodNotFound,
			Message: "unknown tool",
			Data:    map[string]any{"name": params.Name},
		}
	}

	if err := validateArguments(tool, params.Arguments); err != nil {
		return NewErrorResult(err.Error()), nil
	}

	var reporter *ProgressEmitter
	if params.Meta != nil && params.Meta.ProgressToken != nil && send != nil {
		token := params.Meta.ProgressToken
		reporter = progress.New(token, func(n progress.Notification) {
			send("notifications/progress", n)
		}, int(e.progressInterval/time.Millisecond))
	}

	callCtx, cancel := context.WithTimeout(WithToolName(ctx, params.Name), e.timeout)
	defer cancel()

	type outcome struct {
		result *ToolResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := tool.Handler(callCtx, params.Arguments, reporter)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if reporter != nil {
			reporter.Complete("")
		}
		if out.err != nil {
			logger.ErrorContext(callCtx, "tool call failed", "error", out.err)
			audit.LogToolCallFailure(SessionIDFromContext(callCtx), RequestIDFromContext(callCtx), params.Name, out.err)
			metrics.RecordToolCall(params.Name, "error")
			return NewErrorResult(SanitizeError(out.err, "tool call").Error()), nil
		}
		metrics.RecordToolCall(params.Name, "success")
		if out.result == nil {
			return NewTextResult(""), nil
		}
		return out.result, nil
	case <-callCtx.Done():
		if reporter != nil {
			reporter.Complete("")
		}
		metrics.RecordToolCall(params.Name, "error")
		if ctx.Err() != nil {
			audit.LogToolCallFailure(SessionIDFromContext(callCtx), RequestIDFromContext(callCtx), params.Name, context.Canceled)
			return NewErrorResult("cancelled"), nil
		}
		audit.LogToolCallFailure(SessionIDFromContext(callCtx), RequestIDFromContext(callCtx), params.Name, context.DeadlineExceeded)
		return NewErrorResult("Tool execution timeout"), nil
	}
}

// validateArguments checks params against the tool's resolved input
// schema, returning the validator's error wrapped in one message
// (spec.md §4.4 step 2). The violations are passed through as the
// validator reports them; they are not counted or cut to a fixed number.
// Validation failure is a tool-level error, never
// a JSON-RPC error (spec.md §9).
func validateArguments(tool *Tool, arguments json.RawMessage) error {
	if tool.resolved == nil {
		return nil
	}
	var instance any
	if len(arguments) == 0 {
		instance = map[string]any{}
	} else if err := json.Unmarshal(arguments, &instance); err != nil {
		return fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if err := tool.resolved.Validate(instance); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
