// Package audit implements the slog-backed structured security-event log
// named in spec.md §4.12 ("authorization code issuance and consumption
// ... should be logged"), adapted from the teacher's audit logger.
package audit

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Operation identifies the kind of auditable security event.
type Operation string

const (
	OpAuthCodeIssued    Operation = "auth_code.issued"
	OpAuthCodeConsumed  Operation = "auth_code.consumed"
	OpAuthCodeReplay    Operation = "auth_code.replay_rejected"
	OpAccessTokenIssued Operation = "access_token.issued"
	OpRefreshTokenUsed  Operation = "refresh_token.used"
	OpTokenRevoked      Operation = "token.revoked"
	OpToolCallFailure   Operation = "tool_call.failure"
)

// Event is one audit log entry.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Operation Operation              `json:"operation"`
	ClientID  string                 `json:"client_id,omitempty"`
	Subject   string                 `json:"subject,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	ToolName  string                 `json:"tool_name,omitempty"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Logger writes Events as structured slog records.
type Logger struct {
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the process-wide default audit logger.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(true)
	})
	return defaultLogger
}

// New creates an audit logger writing JSON records to stderr.
func New(enabled bool) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &Logger{
		logger:  slog.New(handler),
		enabled: enabled,
	}
}

// SetEnabled enables or disables audit logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Log records an audit event.
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	enabled := l.enabled
	l.mu.RUnlock()

	if !enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []any{
		slog.String("audit", "true"),
		slog.String("operation", string(event.Operation)),
		slog.Bool("success", event.Success),
	}

	if event.ClientID != "" {
		attrs = append(attrs, slog.String("client_id", event.ClientID))
	}
	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", maskSubject(event.Subject)))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.ToolName != "" {
		attrs = append(attrs, slog.String("tool_name", event.ToolName))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if event.Details != nil {
		detailsJSON, _ := json.Marshal(event.Details)
		attrs = append(attrs, slog.String("details", string(detailsJSON)))
	}

	l.logger.Info("AUDIT", attrs...)
}

// LogAuthCodeIssued records an authorization code issuance.
func (l *Logger) LogAuthCodeIssued(clientID, subject string) {
	l.Log(&Event{Operation: OpAuthCodeIssued, ClientID: clientID, Subject: subject, Success: true})
}

// LogAuthCodeConsumed records a successful authorization code exchange.
func (l *Logger) LogAuthCodeConsumed(clientID, subject string) {
	l.Log(&Event{Operation: OpAuthCodeConsumed, ClientID: clientID, Subject: subject, Success: true})
}

// LogAuthCodeReplay records a rejected reuse of an already-consumed
// authorization code (spec.md §9: single-use-on-attempt, not
// single-use-on-success).
func (l *Logger) LogAuthCodeReplay(clientID string) {
	l.Log(&Event{Operation: OpAuthCodeReplay, ClientID: clientID, Success: false})
}

// LogTokenRevoked records a token revocation.
func (l *Logger) LogTokenRevoked(clientID, subject string) {
	l.Log(&Event{Operation: OpTokenRevoked, ClientID: clientID, Subject: subject, Success: true})
}

// LogToolCallFailure records a tool-level failure for security-relevant
// auditing (e.g. repeated validation failures from a client).
func (l *Logger) LogToolCallFailure(sessionID, requestID, toolName string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	l.Log(&Event{
		Operation: OpToolCallFailure,
		SessionID: sessionID,
		RequestID: requestID,
		ToolName:  toolName,
		Success:   false,
		Error:     errMsg,
	})
}

func maskSubject(subject string) string {
	if len(subject) <= 12 {
		return "***"
	}
	return subject[:8] + "..."
}

// Convenience functions using the default logger.

func Log(event *Event) { Default().Log(event) }

func LogAuthCodeIssued(clientID, subject string) { Default().LogAuthCodeIssued(clientID, subject) }

func LogAuthCodeConsumed(clientID, subject string) { Default().LogAuthCodeConsumed(clientID, subject) }

func LogAuthCodeReplay(clientID string) { Default().LogAuthCodeReplay(clientID) }

func LogTokenRevoked(clientID, subject string) { Default().LogTokenRevoked(clientID, subject) }

func LogToolCallFailure(sessionID, requestID, toolName string, err error) {
	Default().LogToolCallFailure(sessionID, requestID, toolName, err)
}
