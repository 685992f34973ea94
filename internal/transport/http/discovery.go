package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/chief-builder/mcp-reference-server/internal/oauth"
)

// handleAuthServerMetadata serves the RFC 8414 document (spec.md §4.13).
func (s *Server) handleAuthServerMetadata(w http.ResponseWriter, r *http.Request) {
	meta := oauth.NewAuthorizationServerMetadata(s.cfg.ResourceURL)
	writeJSON(w, http.StatusOK, meta)
}

// handleProtectedResourceMetadata serves the RFC 9728 document (spec.md §4.13).
func (s *Server) handleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	authServers := s.cfg.AuthServers
	if len(authServers) == 0 {
		authServers = []string{s.cfg.ResourceURL}
	}
	meta := oauth.NewProtectedResourceMetadata(s.cfg.ResourceURL, authServers)
	writeJSON(w, http.StatusOK, meta)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
