package mcp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/chief-builder/mcp-reference-server/internal/jsonrpc"
	"github.com/chief-builder/mcp-reference-server/internal/logger"
	"github.com/chief-builder/mcp-reference-server/internal/metrics"
	"github.com/chief-builder/mcp-reference-server/internal/pagination"
	"github.com/chief-builder/mcp-reference-server/internal/session"
)

// Router is the single entry point for inbound JSON-RPC frames (spec.md
// §4.14): it consults the lifecycle gate, dispatches by method, and wraps
// every outcome — success, tool-level error, or protocol error — into the
// right envelope.
type Router struct {
	lifecycle   *Lifecycle
	tools       *Registry
	executor    *Executor
	completions *CompletionRegistry
	pageSize    int

	mu       sync.Mutex
	logGates map[string]*LogGate
}

// NewRouter wires a Router over the server's shared registries. pageSize<=0
// falls back to pagination.DefaultPageSize.
func NewRouter(lifecycle *Lifecycle, tools *Registry, executor *Executor, completions *CompletionRegistry, pageSize int) *Router {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &Router{
		lifecycle:   lifecycle,
		tools:       tools,
		executor:    executor,
		completions: completions,
		pageSize:    pageSize,
		logGates:    make(map[string]*LogGate),
	}
}

// Handle processes one inbound frame for sess. Requests return a non-nil
// response message; notifications return nil (spec.md §4.14: "Notifications
// never produce responses"). send delivers any out-of-band notifications
// (progress, logging) produced while handling this frame.
func (r *Router) Handle(ctx context.Context, sess *session.Session, msg *jsonrpc.Message, send SendFunc) (resp *jsonrpc.Message) {
	sess.Touch()

	ctx = WithSessionID(ctx, sess.ID)
	if msg.ID != nil {
		ctx = WithRequestID(ctx, msg.ID.String())
	}

	if gateErr := r.lifecycle.Gate(sess, msg.Method); gateErr != nil {
		if msg.IsNotification() {
			logger.Error("lifecycle rejected notification %s: %s", msg.Method, gateErr.Message)
			return nil
		}
		return jsonrpc.NewError(msg.ID, gateErr.Code, gateErr.Message, nil)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic handling %s: %v", msg.Method, rec)
			if !msg.IsNotification() {
				resp = jsonrpc.NewError(msg.ID, jsonrpc.CodeInternalError, "internal error", nil)
			}
		}
	}()

	switch msg.Method {
	case "initialize":
		resp = r.handleInitialize(sess, msg)
	case "notifications/initialized":
		r.lifecycle.Initialized(sess)
	case "ping":
		resp = respondJSON(msg, map[string]any{})
	case "tools/list":
		resp = r.handleToolsList(msg)
	case "tools/call":
		resp = r.handleToolsCall(ctx, msg, send)
	case "completion/complete":
		resp = r.handleCompletion(msg)
	case "logging/setLevel":
		resp = r.handleSetLevel(sess, msg)
	default:
		if msg.IsNotification() {
			logger.Error("unhandled notification method %s", msg.Method)
		} else {
			resp = jsonrpc.NewMethodNotFound(msg.ID, msg.Method)
		}
	}

	if !msg.IsNotification() {
		outcome := "success"
		if resp != nil && resp.Error != nil {
			outcome = "error"
		}
		metrics.RecordRequest(msg.Method, outcome)
	}
	return resp
}

func (r *Router) handleInitialize(sess *session.Session, msg *jsonrpc.Message) *jsonrpc.Message {
	var params InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return jsonrpc.NewInvalidParams(msg.ID, err.Error())
		}
	}
	result, rpcErr := r.lifecycle.Initialize(sess, params)
	if rpcErr != nil {
		return jsonrpc.NewError(msg.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return respondJSON(msg, result)
}

// ListToolsParams is the decoded params of tools/list.
type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListToolsResult is the response payload of tools/list.
type ListToolsResult struct {
	Tools      []*Tool `json:"tools"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

func (r *Router) handleToolsList(msg *jsonrpc.Message) *jsonrpc.Message {
	var params ListToolsParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return jsonrpc.NewInvalidParams(msg.ID, err.Error())
		}
	}

	page, err := pagination.Paginate(r.tools.List(), params.Cursor, r.pageSize)
	if err != nil {
		return jsonrpc.NewInvalidParams(msg.ID, err.Error())
	}
	return respondJSON(msg, ListToolsResult{Tools: page.Items, NextCursor: page.NextCursor})
}

func (r *Router) handleToolsCall(ctx context.Context, msg *jsonrpc.Message, send SendFunc) *jsonrpc.Message {
	var params CallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return jsonrpc.NewInvalidParams(msg.ID, err.Error())
	}

	result, rpcErr := r.executor.Call(ctx, params, send)
	if rpcErr != nil {
		return jsonrpc.NewError(msg.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return respondJSON(msg, result)
}

func (r *Router) handleCompletion(msg *jsonrpc.Message) *jsonrpc.Message {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return jsonrpc.NewInvalidParams(msg.ID, err.Error())
	}
	return respondJSON(msg, r.completions.Complete(params))
}

func (r *Router) handleSetLevel(sess *session.Session, msg *jsonrpc.Message) *jsonrpc.Message {
	var params SetLevelParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return jsonrpc.NewInvalidParams(msg.ID, err.Error())
	}
	gate := r.gateFor(sess.ID)
	if !gate.SetLevel(params.Level) {
		return jsonrpc.NewInvalidParams(msg.ID, map[string]any{"level": params.Level})
	}
	return respondJSON(msg, map[string]any{})
}

// gateFor returns (creating if needed) the per-session logging gate.
func (r *Router) gateFor(sessionID string) *LogGate {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate, ok := r.logGates[sessionID]
	if !ok {
		gate = NewLogGate()
		r.logGates[sessionID] = gate
	}
	return gate
}

// DropSession forgets a session's logging gate, for use on session teardown.
func (r *Router) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logGates, sessionID)
}

// Emit delivers a notifications/message for sess if its logging gate
// allows level, via send (spec.md §4.7).
func (r *Router) Emit(sess *session.Session, level LogLevel, loggerName string, data any, send SendFunc) {
	gate := r.gateFor(sess.ID)
	if !gate.Allows(level) {
		return
	}
	send("notifications/message", LogMessage{Level: level, Logger: loggerName, Data: data})
}

func respondJSON(msg *jsonrpc.Message, result any) *jsonrpc.Message {
	resp, err := jsonrpc.NewSuccess(msg.ID, result)
	if err != nil {
		return jsonrpc.NewError(msg.ID, jsonrpc.CodeInternalError, "failed to encode result", nil)
	}
	return resp
}
