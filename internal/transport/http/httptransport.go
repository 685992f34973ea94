// Package httptransport mounts the MCP HTTP surface (spec.md §6) on one
// *http.ServeMux: health/discovery endpoints unauthenticated, /mcp,
// /api/cancel and /api/chat behind bearer-auth plus rate limiting —
// mirroring the teacher's mainMux construction in internal/mcp/server.go.
package httptransport

import (
	"net/http"

	"github.com/chief-builder/mcp-reference-server/internal/config"
	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/chief-builder/mcp-reference-server/internal/metrics"
	"github.com/chief-builder/mcp-reference-server/internal/oauth"
	"github.com/chief-builder/mcp-reference-server/internal/session"
)

// SessionIDHeader carries the opaque session id on every HTTP request
// after initialize (spec.md §6 "Session identification").
const SessionIDHeader = "Mcp-Session-Id"

// Server wires the router, session manager, and OAuth store into an
// http.Handler.
type Server struct {
	cfg      *config.Config
	router   *mcp.Router
	sessions *session.Manager
	oauth    *oauth.Store
	rate     *oauth.RateLimiter
}

// NewServer builds an HTTP transport. rate<=nil uses oauth.DefaultRateLimiter.
func NewServer(cfg *config.Config, router *mcp.Router, sessions *session.Manager, oauthStore *oauth.Store, rate *oauth.RateLimiter) *Server {
	if rate == nil {
		rate = oauth.DefaultRateLimiter()
	}
	return &Server{cfg: cfg, router: router, sessions: sessions, oauth: oauthStore, rate: rate}
}

func (s *Server) resourceMetadataURL() string {
	return s.cfg.ResourceURL + "/.well-known/oauth-protected-resource"
}

// Handler builds the complete mux, ready to pass to http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /.well-known/oauth-authorization-server", s.handleAuthServerMetadata)
	mux.HandleFunc("GET /.well-known/oauth-protected-resource", s.handleProtectedResourceMetadata)
	mux.HandleFunc("GET /authorize", s.handleAuthorize)
	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("POST /revoke", s.handleRevoke)
	mux.Handle("GET /metrics", metrics.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("POST /mcp", s.handlePostMCP)
	protected.HandleFunc("GET /mcp", s.handleGetMCP)
	protected.HandleFunc("POST /api/cancel", s.handleCancel)
	protected.HandleFunc("POST /api/chat", s.handleChat)

	guarded := oauth.Middleware(s.oauth, s.resourceMetadataURL())(oauth.RateLimitMiddleware(s.rate)(protected))

	mux.Handle("/mcp", metrics.Middleware(guarded))
	mux.Handle("/api/cancel", metrics.Middleware(guarded))
	mux.Handle("/api/chat", metrics.Middleware(guarded))

	return withRequestID(mux)
}
