package mcp

import (
	"github.com/chief-builder/mcp-reference-server/internal/extension"
	"github.com/chief-builder/mcp-reference-server/internal/jsonrpc"
	"github.com/chief-builder/mcp-reference-server/internal/session"
)

// LatestProtocolVersion is echoed back when the client's requested version
// is unrecognized (spec.md §4.2).
const LatestProtocolVersion = "2025-11-25"

// knownProtocolVersions the server will echo verbatim if requested.
var knownProtocolVersions = map[string]bool{
	"2025-11-25": true,
	"2025-06-18": true,
	"2024-11-05": true,
}

// InitializeParams is the decoded params of an initialize request.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    ClientCaps     `json:"capabilities"`
	ClientInfo      map[string]any `json:"clientInfo,omitempty"`
}

// ClientCaps is the subset of client capabilities the server cares about.
type ClientCaps struct {
	Experimental map[string]any `json:"experimental,omitempty"`
}

// InitializeResult is the response payload for a successful initialize.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      map[string]any `json:"serverInfo"`
}

// ServerName/ServerVersion identify this server in InitializeResult.
const (
	ServerName    = "mcp-reference-server"
	ServerVersion = "0.1.0"
)

// Lifecycle drives a single session through the initialize FSM (spec.md
// §4.2): uninitialized --initialize--> initializing --initialized--> initialized.
type Lifecycle struct {
	extensions *extension.Registry
}

// NewLifecycle builds a lifecycle gate bound to the server's extension registry.
func NewLifecycle(extensions *extension.Registry) *Lifecycle {
	return &Lifecycle{extensions: extensions}
}

// Gate enforces spec.md §4.2's method-availability rules ahead of dispatch.
// It returns a non-nil *jsonrpc.Error when the method must be rejected in
// the session's current state; the router emits it and stops.
func (l *Lifecycle) Gate(sess *session.Session, method string) *jsonrpc.Error {
	switch sess.State() {
	case session.StateUninitialized:
		if method == "initialize" || method == "ping" {
			return nil
		}
		return &jsonrpc.Error{Code: jsonrpc.CodeServerNotInitialized, Message: "Server not initialized"}
	case session.StateInitializing:
		if method == "notifications/initialized" {
			return nil
		}
		if method == "initialize" {
			return &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: "already initializing"}
		}
		return &jsonrpc.Error{Code: jsonrpc.CodeServerNotInitialized, Message: "Server not initialized"}
	case session.StateInitialized:
		if method == "initialize" {
			return &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: "already initialized"}
		}
		return nil
	default: // shutdown
		return &jsonrpc.Error{Code: jsonrpc.CodeServerNotInitialized, Message: "Server not initialized"}
	}
}

// Initialize handles the initialize request: negotiates protocol version
// and extensions, and transitions the session to initializing.
func (l *Lifecycle) Initialize(sess *session.Session, params InitializeParams) (*InitializeResult, *jsonrpc.Error) {
	version := params.ProtocolVersion
	if !knownProtocolVersions[version] {
		version = LatestProtocolVersion
	}
	sess.ProtocolVersion = version
	sess.ClientCapabilities = map[string]any{"experimental": params.Capabilities.Experimental}

	enabled, err := l.extensions.Negotiate(params.Capabilities.Experimental)
	if err != nil {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: err.Error()}
	}
	sess.EnabledExtensions = enabled

	experimental := make(map[string]any, len(enabled))
	for _, name := range enabled {
		experimental[name] = map[string]any{}
	}

	sess.SetState(session.StateInitializing)

	return &InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools":        map[string]any{},
			"completions":  map[string]any{},
			"logging":      map[string]any{},
			"experimental": experimental,
		},
		ServerInfo: map[string]any{"name": ServerName, "version": ServerVersion},
	}, nil
}

// Initialized completes the FSM transition on the notifications/initialized
// notification.
func (l *Lifecycle) Initialized(sess *session.Session) {
	sess.SetState(session.StateInitialized)
}

// Shutdown transitions the session to its terminal state.
func (l *Lifecycle) Shutdown(sess *session.Session) {
	sess.SetState(session.StateShutdown)
}
