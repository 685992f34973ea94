package httptransport

import "net/http"

// handleChat is the mount point for the SSE-streaming chat pipeline
// (spec.md §6 "POST /api/chat"). spec.md §2 treats this pipeline as an
// opaque external collaborator outside this server's scope — this
// reference implementation only reserves the route and the auth/rate-limit
// middleware chain in front of it; it does not implement a chat backend.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{
		"error":             "server_error",
		"error_description": "chat pipeline is an external collaborator, not implemented by this server",
	})
}
