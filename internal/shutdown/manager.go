// Package shutdown implements the ordered teardown manager spec.md §5
// describes: a list of named cleanup handlers run in reverse registration
// order on shutdown, each bounded by its own slice of the overall budget.
package shutdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/logger"
)

// DefaultTimeout is used when Shutdown is called with a non-positive
// budget (spec.md §6's MCP_SHUTDOWN_TIMEOUT_MS default).
const DefaultTimeout = 30 * time.Second

type namedHandler struct {
	name string
	fn   func(ctx context.Context) error
}

// Manager holds the ordered list of cleanup handlers registered during
// startup. Handlers run in reverse registration order on Shutdown, the
// same order the teacher's Server.Close() tears down the schedule
// runner, sessions, and socket handler.
type Manager struct {
	mu       sync.Mutex
	handlers []namedHandler
}

// NewManager builds an empty shutdown manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register appends a named cleanup handler. Handlers run in reverse of
// the order they were registered in, so register resources in the order
// they were acquired (dependencies first) to tear them down
// dependents-first.
func (m *Manager) Register(name string, fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, namedHandler{name: name, fn: fn})
}

// Shutdown runs every registered handler in reverse registration order.
// Each handler gets an equal per-handler slice of the overall budget
// (timeout<=0 uses DefaultTimeout); a handler that overshoots its slice
// is logged and skipped rather than blocking the rest of teardown.
// Shutdown returns the first handler error encountered, if any, but
// always runs every handler regardless.
func (m *Manager) Shutdown(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	m.mu.Lock()
	handlers := make([]namedHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	if len(handlers) == 0 {
		return nil
	}
	perHandler := timeout / time.Duration(len(handlers))
	if perHandler <= 0 {
		perHandler = time.Millisecond
	}

	var firstErr error
	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		if err := runHandler(ctx, h, perHandler); err != nil {
			logger.Error("shutdown handler %q failed: %v", h.name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("handler %q: %w", h.name, err)
			}
		}
	}
	return firstErr
}

func runHandler(ctx context.Context, h namedHandler, budget time.Duration) error {
	handlerCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- h.fn(handlerCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-handlerCtx.Done():
		return fmt.Errorf("exceeded %s budget", budget)
	}
}
