package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/progress"
	"github.com/google/jsonschema-go/jsonschema"
)

func newTestRegistry(t *testing.T, tools ...*Tool) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			t.Fatalf("Register(%q) error = %v", tool.Name, err)
		}
	}
	return r
}

func TestExecutor_Call_UnknownToolIsProtocolError(t *testing.T) {
	e := NewExecutor(newTestRegistry(t), 0, 0)
	result, rpcErr := e.Call(context.Background(), CallParams{Name: "missing"}, nil)
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if rpcErr == nil {
		t.Fatal("expected protocol error for unknown tool")
	}
}

func TestExecutor_Call_Success(t *testing.T) {
	tool := &Tool{
		Name:        "greet",
		InputSchema: &jsonschema.Schema{Type: "object"},
		Handler: func(ctx context.Context, args json.RawMessage, p *ProgressEmitter) (*ToolResult, error) {
			return NewTextResult("hello"), nil
		},
	}
	e := NewExecutor(newTestRegistry(t, tool), 0, 0)

	result, rpcErr := e.Call(context.Background(), CallParams{Name: "greet"}, nil)
	if rpcErr != nil {
		t.Fatalf("unexpected protocol error: %v", rpcErr)
	}
	if result.IsError {
		t.Fatalf("result.IsError = true, want false")
	}
	if result.Content[0].Text != "hello" {
		t.Errorf("text = %q, want hello", result.Content[0].Text)
	}
}

func TestExecutor_Call_HandlerErrorBecomesToolLevelError(t *testing.T) {
	tool := &Tool{
		Name:        "boom",
		InputSchema: &jsonschema.Schema{Type: "object"},
		Handler: func(ctx context.Context, args json.RawMessage, p *ProgressEmitter) (*ToolResult, error) {
			return nil, errors.New("kaboom")
		},
	}
	e := NewExecutor(newTestRegistry(t, tool), 0, 0)

	result, rpcErr := e.Call(context.Background(), CallParams{Name: "boom"}, nil)
	if rpcErr != nil {
		t.Fatalf("unexpected protocol error: %v", rpcErr)
	}
	if !result.IsError {
		t.Fatal("expected isError:true")
	}
	if want := "tool call failed: kaboom"; result.Content[0].Text != want {
		t.Errorf("text = %q, want %q", result.Content[0].Text, want)
	}
}

func TestExecutor_Call_TimeoutProducesToolLevelError(t *testing.T) {
	tool := &Tool{
		Name:        "slow",
		InputSchema: &jsonschema.Schema{Type: "object"},
		Handler: func(ctx context.Context, args json.RawMessage, p *ProgressEmitter) (*ToolResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	e := NewExecutor(newTestRegistry(t, tool), 10*time.Millisecond, 0)

	result, rpcErr := e.Call(context.Background(), CallParams{Name: "slow"}, nil)
	if rpcErr != nil {
		t.Fatalf("unexpected protocol error: %v", rpcErr)
	}
	if !result.IsError || result.Content[0].Text != "Tool execution timeout" {
		t.Fatalf("result = %+v, want isError timeout", result)
	}
}

func TestExecutor_Call_ValidationFailureIsToolLevelError(t *testing.T) {
	schema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string"},
		},
	}
	tool := &Tool{
		Name:        "needs_name",
		InputSchema: schema,
		Handler: func(ctx context.Context, args json.RawMessage, p *ProgressEmitter) (*ToolResult, error) {
			return NewTextResult("should not run"), nil
		},
	}
	e := NewExecutor(newTestRegistry(t, tool), 0, 0)

	result, rpcErr := e.Call(context.Background(), CallParams{Name: "needs_name", Arguments: json.RawMessage(`{}`)}, nil)
	if rpcErr != nil {
		t.Fatalf("unexpected protocol error: %v", rpcErr)
	}
	if !result.IsError {
		t.Fatal("expected validation failure to be a tool-level error")
	}
}

func TestExecutor_Call_ProgressTokenEmitsNotifications(t *testing.T) {
	tool := &Tool{
		Name:        "reports",
		InputSchema: &jsonschema.Schema{Type: "object"},
		Handler: func(ctx context.Context, args json.RawMessage, p *ProgressEmitter) (*ToolResult, error) {
			if p != nil {
				p.Report(50, nil, "")
			}
			return NewTextResult("done"), nil
		},
	}
	e := NewExecutor(newTestRegistry(t, tool), 0, 0)

	var notifications []progress.Notification
	send := func(method string, params any) {
		if method == "notifications/progress" {
			notifications = append(notifications, params.(progress.Notification))
		}
	}

	params := CallParams{Name: "reports", Meta: &CallMeta{ProgressToken: "tok-1"}}
	_, rpcErr := e.Call(context.Background(), params, send)
	if rpcErr != nil {
		t.Fatalf("unexpected protocol error: %v", rpcErr)
	}
	if len(notifications) == 0 {
		t.Fatal("expected at least one progress notification")
	}
}
