// Package stdio implements the line-delimited JSON STDIO transport
// (spec.md §6): one JSON-RPC message per line on stdin and stdout, stderr
// reserved for logs, EOF on stdin triggering graceful shutdown. Grounded
// on the teacher's bufio.Scanner line-reading idiom
// (internal/agent/droid/executor.go's stdout scanner).
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chief-builder/mcp-reference-server/internal/jsonrpc"
	"github.com/chief-builder/mcp-reference-server/internal/logger"
	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/chief-builder/mcp-reference-server/internal/session"
)

const maxLineSize = 4 * 1024 * 1024

// Transport runs a single session's worth of MCP protocol over a pair of
// line-delimited streams. A STDIO process serves exactly one client for
// its lifetime (spec.md §3: "single-session lifecycle").
type Transport struct {
	router   *mcp.Router
	sessions *session.Manager
}

// NewTransport wires a STDIO transport over the server's shared router
// and session manager.
func NewTransport(router *mcp.Router, sessions *session.Manager) *Transport {
	return &Transport{router: router, sessions: sessions}
}

// Serve reads newline-delimited JSON-RPC frames from in until EOF or ctx
// is cancelled, writing responses and notifications to out. Returns nil
// on a clean EOF (the caller's signal to begin shutdown).
func (t *Transport) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	sess, err := t.sessions.Create()
	if err != nil {
		return fmt.Errorf("stdio: creating session: %w", err)
	}
	defer t.sessions.Delete(sess.ID)

	var outMu sync.Mutex
	writeLine := func(v any) {
		encoded, err := json.Marshal(v)
		if err != nil {
			logger.Error("stdio: failed to encode outbound message: %v", err)
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		_, _ = out.Write(encoded)
		_, _ = out.Write([]byte("\n"))
	}
	send := func(method string, params any) {
		notification, err := jsonrpc.NewNotification(method, params)
		if err != nil {
			logger.Error("stdio: failed to build notification %s: %v", method, err)
			return
		}
		writeLine(notification)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		msg, err := jsonrpc.Decode([]byte(line))
		if err != nil {
			writeLine(jsonrpc.NewError(nil, jsonrpc.CodeParseError, "invalid JSON-RPC message", nil))
			continue
		}
		if verr := msg.Validate(); verr != nil {
			rpcErr := verr.(*jsonrpc.Error)
			writeLine(jsonrpc.NewError(msg.ID, rpcErr.Code, rpcErr.Message, nil))
			continue
		}

		resp := t.router.Handle(ctx, sess, msg, send)
		if resp != nil {
			writeLine(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdio: reading input: %w", err)
	}
	return nil
}
