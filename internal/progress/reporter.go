// Package progress implements the throttled progress reporter bound to a
// single tool call's progressToken: report() coalesces rapid updates into
// at most one emission per throttle window, and complete() flushes
// whatever is pending before closing the reporter.
package progress

import (
	"sync"
	"time"
)

// Notification is the shape handed to a reporter's SendFunc.
type Notification struct {
	ProgressToken any      `json:"progressToken"`
	Progress      float64  `json:"progress"`
	Total         *float64 `json:"total,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// SendFunc delivers a progress notification to the session's outbound
// stream. It is called with the reporter's internal lock held —
// implementations must not call back into the same reporter synchronously.
type SendFunc func(Notification)

// Reporter throttles progress(progress, total?, message?) calls for a
// single request, coalescing bursts into one emission per window.
type Reporter struct {
	token     any
	send      SendFunc
	throttle  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	lastEmit  time.Time
	hasEmit   bool
	pending   *Notification
	closed    bool
}

// New constructs a Reporter. throttleMs<=0 uses the spec default of 100ms.
func New(token any, send SendFunc, throttleMs int) *Reporter {
	if throttleMs <= 0 {
		throttleMs = 100
	}
	return &Reporter{
		token:    token,
		send:     send,
		throttle: time.Duration(throttleMs) * time.Millisecond,
		now:      time.Now,
	}
}

// Report coalesces a progress update: if less than the throttle window has
// elapsed since the last emission, the update is stashed as pending and
// returns without sending; otherwise it emits immediately.
func (r *Reporter) Report(progressValue float64, total *float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	n := Notification{ProgressToken: r.token, Progress: progressValue, Total: total, Message: message}

	now := r.now()
	if r.hasEmit && now.Sub(r.lastEmit) < r.throttle {
		r.pending = &n
		return
	}

	r.emitLocked(n, now)
}

// Complete flushes any pending update (or, if none is pending, emits a
// single final notification carrying message) and closes the reporter.
// Subsequent Report/Complete calls are silent no-ops.
func (r *Reporter) Complete(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	if r.pending != nil {
		final := *r.pending
		if message != "" {
			final.Message = message
		}
		r.emitLocked(final, r.now())
	} else {
		r.emitLocked(Notification{ProgressToken: r.token, Message: message}, r.now())
	}
	r.closed = true
}

func (r *Reporter) emitLocked(n Notification, at time.Time) {
	r.pending = nil
	r.lastEmit = at
	r.hasEmit = true
	r.send(n)
}
