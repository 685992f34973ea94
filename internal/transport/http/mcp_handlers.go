package httptransport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/jsonrpc"
	"github.com/chief-builder/mcp-reference-server/internal/logger"
	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/chief-builder/mcp-reference-server/internal/metrics"
	"github.com/chief-builder/mcp-reference-server/internal/session"
)

// sseHeartbeatInterval bounds how long a GET /mcp connection can sit idle
// before a comment frame keeps intermediate proxies from closing it.
const sseHeartbeatInterval = 15 * time.Second

// handlePostMCP handles a single JSON-RPC request/notification (spec.md §6
// "POST /mcp"). initialize requests mint a new session; every other
// method requires an existing one named by the Mcp-Session-Id header.
func (s *Server) handlePostMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONRPCError(w, http.StatusBadRequest, nil, jsonrpc.CodeParseError, "failed to read request body")
		return
	}

	msg, err := jsonrpc.Decode(body)
	if err != nil {
		writeJSONRPCError(w, http.StatusBadRequest, nil, jsonrpc.CodeParseError, "invalid JSON-RPC message")
		return
	}
	if err := msg.Validate(); err != nil {
		rpcErr := err.(*jsonrpc.Error)
		writeJSONRPCError(w, http.StatusBadRequest, msg.ID, rpcErr.Code, rpcErr.Message)
		return
	}

	sess, status, rpcErr := s.sessionForRequest(r, msg)
	if rpcErr != nil {
		writeJSONRPCError(w, status, msg.ID, rpcErr.Code, rpcErr.Message)
		return
	}

	send := s.sendFuncFor(sess)
	resp := s.router.Handle(r.Context(), sess, msg, send)

	w.Header().Set(SessionIDHeader, sess.ID)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	encoded, err := jsonrpc.Encode(resp)
	if err != nil {
		writeJSONRPCError(w, http.StatusInternalServerError, msg.ID, jsonrpc.CodeInternalError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}

// handleGetMCP opens a resumable SSE stream for the caller's session
// (spec.md §6 "GET /mcp"), replaying buffered events past Last-Event-ID
// before switching to live delivery.
func (s *Server) handleGetMCP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionIDHeader)
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		writeJSONRPCError(w, http.StatusNotFound, nil, jsonrpc.CodeInvalidRequest, "unknown or missing session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var lastEventID int64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			lastEventID = parsed
		}
	}

	ctx := r.Context()
	for {
		events, err := sess.Stream.After(lastEventID)
		if err != nil {
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
			flusher.Flush()
			return
		}
		for _, ev := range events {
			writeSSEEvent(w, ev)
			metrics.RecordSSEEvent(sess.ID)
			lastEventID = ev.ID
		}
		if len(events) > 0 {
			flusher.Flush()
		}

		wake := sess.Stream.Wake()
		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-time.After(sseHeartbeatInterval):
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev session.Event) {
	fmt.Fprintf(w, "id: %s\n", ev.FormattedID())
	if ev.Event != "" {
		fmt.Fprintf(w, "event: %s\n", ev.Event)
	}
	fmt.Fprintf(w, "data: %s\n\n", ev.Data)
}

// sessionForRequest resolves the session an inbound frame belongs to:
// initialize mints a fresh one; anything else requires a known
// Mcp-Session-Id (spec.md §6: "Missing or unknown session id on
// non-initialize requests -> 404").
func (s *Server) sessionForRequest(r *http.Request, msg *jsonrpc.Message) (*session.Session, int, *jsonrpc.Error) {
	if msg.Method == "initialize" {
		sess, err := s.sessions.Create()
		if err != nil {
			return nil, http.StatusInternalServerError, &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: "failed to create session"}
		}
		return sess, http.StatusOK, nil
	}

	sessionID := r.Header.Get(SessionIDHeader)
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, http.StatusNotFound, &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: "unknown or missing session"}
	}
	return sess, http.StatusOK, nil
}

// sendFuncFor returns a mcp.SendFunc that appends outbound notifications
// (progress, logging) to the session's resumable SSE ring.
func (s *Server) sendFuncFor(sess *session.Session) mcp.SendFunc {
	return func(method string, params any) {
		data, err := json.Marshal(map[string]any{"method": method, "params": params})
		if err != nil {
			logger.Error("failed to marshal notification %s: %v", method, err)
			return
		}
		sess.Stream.Send(method, string(data))
	}
}

func writeJSONRPCError(w http.ResponseWriter, status int, id *jsonrpc.ID, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonrpc.NewError(id, code, message, nil))
}
