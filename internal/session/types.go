package session

import (
	"context"
	"sync"
	"time"
)

// LifecycleState mirrors the protocol-level state machine driven by the
// message router (spec.md §4.2): initialize/req -> initializing ->
// notifications/initialized -> initialized -> shutdown.
type LifecycleState string

const (
	StateUninitialized LifecycleState = "uninitialized"
	StateInitializing  LifecycleState = "initializing"
	StateInitialized   LifecycleState = "initialized"
	StateShutdown      LifecycleState = "shutdown"
)

// Session is a server-side record of one client's protocol lifetime: its
// negotiated capabilities, lifecycle state, outbound SSE stream (HTTP
// transport only), and the cancellation tokens for its in-flight requests.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time

	ProtocolVersion string
	ClientCapabilities map[string]any
	EnabledExtensions  []string

	Stream *Stream // always allocated by NewSession; the STDIO transport never reads it

	mu    sync.Mutex
	state LifecycleState
	tokens map[string]context.CancelFunc
}

// NewSession constructs an uninitialized session with the given id.
func NewSession(id string, streamBufferSize int) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActivity: now,
		state:        StateUninitialized,
		Stream:       NewStream(id, streamBufferSize),
		tokens:       make(map[string]context.CancelFunc),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() LifecycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session to the given state.
func (s *Session) SetState(state LifecycleState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Touch updates the session's last-activity timestamp, resetting its idle
// clock for the sweeper.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now()
}

// IdleSince reports how long the session has gone without activity.
func (s *Session) IdleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.LastActivity)
}

// RegisterToken binds a cancellation function to requestID, so a later
// /api/cancel can abort the in-flight tools/call it belongs to.
func (s *Session) RegisterToken(requestID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[requestID] = cancel
}

// ReleaseToken forgets a completed request's cancellation function.
func (s *Session) ReleaseToken(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, requestID)
}

// CancelAll aborts every in-flight request's cancellation token, used by
// /api/cancel (session-wide, spec.md §4.9) and by server shutdown.
func (s *Session) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, cancel := range s.tokens {
		cancel()
		delete(s.tokens, id)
		n++
	}
	return n
}
