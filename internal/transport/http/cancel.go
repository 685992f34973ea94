package httptransport

import (
	"encoding/json"
	"net/http"
)

type cancelRequest struct {
	SessionID string `json:"sessionId"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// handleCancel aborts every in-flight request on the named session
// (spec.md §4.9). Cancelling an unknown or already-idle session is
// fire-and-forget: it still returns 200 with cancelled:false.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	cancelled := false
	if ok {
		cancelled = sess.CancelAll() > 0
	}
	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: cancelled})
}
