package mcp

import (
	"context"

	"github.com/chief-builder/mcp-reference-server/internal/logger"
)

// contextKeyRemoteAddr is local to this package; session id and request id
// reuse logger's own context keys (logger.ContextKeySessionID /
// ContextKeyRequestID) so a request-scoped logger.ErrorContext call
// automatically picks up whatever this package attached to ctx.
type contextKey string

const contextKeyRemoteAddr contextKey = "mcp-remote-addr"

// WithSessionID attaches the current session id to ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, logger.ContextKeySessionID, sessionID)
}

// SessionIDFromContext retrieves the session id attached by WithSessionID.
func SessionIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, logger.ContextKeySessionID)
}

// WithRequestID attaches the in-flight JSON-RPC request id to ctx, used to
// correlate progress notifications and cancellation tokens back to a call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, logger.ContextKeyRequestID, requestID)
}

// RequestIDFromContext retrieves the request id attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, logger.ContextKeyRequestID)
}

// WithToolName attaches the name of the tool being invoked to ctx, so a
// handler's logger.ErrorContext calls are automatically tagged with it.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, logger.ContextKeyToolName, name)
}

// ToolNameFromContext retrieves the tool name attached by WithToolName.
func ToolNameFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, logger.ContextKeyToolName)
}

// WithRemoteAddr attaches the remote address to ctx.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, contextKeyRemoteAddr, addr)
}

// RemoteAddrFromContext retrieves the remote address attached by WithRemoteAddr.
func RemoteAddrFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, contextKeyRemoteAddr)
}

func getStringFromContext(ctx context.Context, key any) string {
	if val := ctx.Value(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
