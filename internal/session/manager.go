package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/metrics"
	"github.com/chief-builder/mcp-reference-server/internal/validation"
)

// DefaultIdleTTL is how long a session may sit without activity before the
// sweeper reclaims it (spec.md §4.8, §5 "Session manager ... sweeper").
const DefaultIdleTTL = 30 * time.Minute

// Manager is a concurrent map from session id to Session with a background
// sweeper that removes sessions idle beyond its configured TTL.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTTL          time.Duration
	streamBufferSize int
}

// NewManager creates a session manager. idleTTL<=0 uses DefaultIdleTTL;
// streamBufferSize<=0 uses DefaultStreamBufferSize (per-session SSE ring).
func NewManager(idleTTL time.Duration, streamBufferSize int) *Manager {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Manager{
		sessions:         make(map[string]*Session),
		idleTTL:          idleTTL,
		streamBufferSize: streamBufferSize,
	}
}

// Create allocates a new session with a cryptographically random id,
// retrying generation on the vanishingly unlikely collision (spec.md §4.8:
// "Creation is atomic (random id generated until non-colliding)").
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 0; attempt < 10; attempt++ {
		id, err := generateSessionID()
		if err != nil {
			return nil, err
		}
		if _, exists := m.sessions[id]; exists {
			continue
		}
		sess := NewSession(id, m.streamBufferSize)
		m.sessions[id] = sess
		metrics.SetSessionsActive(len(m.sessions))
		return sess, nil
	}
	return nil, fmt.Errorf("session: failed to generate a unique session id")
}

// Get looks up a session by id. A malformed id is reported as not-found
// rather than a distinct error, matching spec.md §4.8's "unknown session"
// handling for any id the manager couldn't have issued.
func (m *Manager) Get(id string) (*Session, bool) {
	if err := validation.ValidateSessionID(id); err != nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Delete removes a session, canceling its in-flight requests first.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if ok {
		sess.CancelAll()
		metrics.SetSessionsActive(count)
	}
}

// Len returns the number of sessions currently tracked.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepIdle removes and returns the ids of sessions idle beyond the
// manager's TTL. Cross-session operations take the map lock briefly and
// then work on a copy (spec.md §5 "Shared-resource policy").
func (m *Manager) SweepIdle() []string {
	m.mu.RLock()
	var stale []*Session
	for _, sess := range m.sessions {
		if sess.IdleSince() >= m.idleTTL {
			stale = append(stale, sess)
		}
	}
	m.mu.RUnlock()

	ids := make([]string, 0, len(stale))
	for _, sess := range stale {
		sess.CancelAll()
		ids = append(ids, sess.ID)
	}

	if len(ids) > 0 {
		m.mu.Lock()
		for _, id := range ids {
			delete(m.sessions, id)
		}
		count := len(m.sessions)
		m.mu.Unlock()
		metrics.SetSessionsActive(count)
	}
	return ids
}

// Snapshot returns a point-in-time copy of the tracked sessions, for
// cross-session diagnostics that must not hold the map lock while working
// (spec.md §5 "Shared-resource policy").
func (m *Manager) Snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

// Shutdown cancels every in-flight request across every session and empties
// the manager, for use by the shutdown manager's ordered teardown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.CancelAll()
	}
	metrics.SetSessionsActive(0)
}

// generateSessionID produces an opaque, cryptographically random session
// id of at least 128 bits (spec.md §3), base64url-encoded.
func generateSessionID() (string, error) {
	buf := make([]byte, 18) // 144 bits
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
