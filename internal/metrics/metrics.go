// Package metrics exposes the minimal Prometheus stub spec.md §1 calls
// for: a metrics exporter is listed as an external collaborator and
// explicitly out of core scope, but the ambient logging/metrics stack is
// still carried the way the teacher carries it (promauto/promhttp),
// narrowed to the MCP protocol surface this server actually implements.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts JSON-RPC requests handled, by method and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_requests_total",
			Help: "Total number of JSON-RPC requests handled",
		},
		[]string{"method", "outcome"},
	)

	// RequestDuration tracks HTTP request latency; Middleware fills its one
	// label with the normalized request path.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcp_request_duration_seconds",
			Help:    "JSON-RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// ToolCallsTotal counts tools/call invocations by tool name and outcome.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "Total number of tools/call invocations",
		},
		[]string{"tool", "outcome"},
	)

	// SessionsActive tracks the number of live protocol sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mcp_sessions_active",
			Help: "Number of active protocol sessions",
		},
	)

	// SSEEventsTotal counts SSE events emitted, by session.
	SSEEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_sse_events_total",
			Help: "Total number of SSE events emitted",
		},
		[]string{"session_id"},
	)
)

// responseWriter wraps http.ResponseWriter to capture the status code
// written, for the HTTP middleware below.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher so the SSE handler can still flush
// through the wrapped writer.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request duration for every HTTP request, normalizing
// the path to avoid per-session-id cardinality blowups.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		RequestDuration.WithLabelValues(path).Observe(duration)
	})
}

func normalizePath(path string) string {
	switch path {
	case "/mcp", "/api/chat", "/api/cancel", "/api/health", "/metrics":
		return path
	default:
		return "other"
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one JSON-RPC request by method and outcome
// ("success" or "error").
func RecordRequest(method, outcome string) {
	RequestsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordToolCall records one tools/call invocation by tool name and
// outcome ("success" or "error").
func RecordToolCall(tool, outcome string) {
	ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

// RecordSSEEvent records one SSE event emitted for sessionID.
func RecordSSEEvent(sessionID string) {
	SSEEventsTotal.WithLabelValues(sessionID).Inc()
}

// SetSessionsActive sets the active-session gauge.
func SetSessionsActive(count int) {
	SessionsActive.Set(float64(count))
}
