package httptransport

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/chief-builder/mcp-reference-server/internal/logger"
)

// generateRequestID mints an opaque per-request correlation id, matching
// the teacher's internal/mcp/server.go generateRequestID.
func generateRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// withRequestID attaches an X-Request-ID (generated if absent) to the
// response header and the request context, and logs one line per request
// — grounded on the teacher's loggingHandler wrapper in server.go.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), logger.ContextKeyRequestID, requestID)
		r = r.WithContext(ctx)

		logger.Info("HTTP %s %s from %s [request_id=%s]", r.Method, r.URL.Path, r.RemoteAddr, requestID)
		next.ServeHTTP(w, r)
	})
}
