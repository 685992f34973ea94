package mcp

import (
	"testing"

	"github.com/chief-builder/mcp-reference-server/internal/extension"
	"github.com/chief-builder/mcp-reference-server/internal/jsonrpc"
	"github.com/chief-builder/mcp-reference-server/internal/session"
)

func newLifecycle() *Lifecycle {
	return NewLifecycle(extension.NewRegistry())
}

func TestLifecycle_Gate_UninitializedOnlyAllowsInitializeAndPing(t *testing.T) {
	l := newLifecycle()
	sess := session.NewSession("s1", 0)

	if err := l.Gate(sess, "initialize"); err != nil {
		t.Errorf("Gate(initialize) = %v, want nil", err)
	}
	if err := l.Gate(sess, "ping"); err != nil {
		t.Errorf("Gate(ping) = %v, want nil", err)
	}
	err := l.Gate(sess, "tools/list")
	if err == nil || err.Code != jsonrpc.CodeServerNotInitialized {
		t.Fatalf("Gate(tools/list) = %v, want code %d", err, jsonrpc.CodeServerNotInitialized)
	}
}

func TestLifecycle_InitializeTransitionsToInitializing(t *testing.T) {
	l := newLifecycle()
	sess := session.NewSession("s1", 0)

	result, err := l.Initialize(sess, InitializeParams{ProtocolVersion: "2025-11-25"})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if sess.State() != session.StateInitializing {
		t.Errorf("state = %v, want %v", sess.State(), session.StateInitializing)
	}
	if result.ProtocolVersion != "2025-11-25" {
		t.Errorf("ProtocolVersion = %q", result.ProtocolVersion)
	}
}

func TestLifecycle_InitializeUnknownVersionFallsBackToLatest(t *testing.T) {
	l := newLifecycle()
	sess := session.NewSession("s1", 0)

	result, err := l.Initialize(sess, InitializeParams{ProtocolVersion: "1999-01-01"})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if result.ProtocolVersion != LatestProtocolVersion {
		t.Errorf("ProtocolVersion = %q, want %q", result.ProtocolVersion, LatestProtocolVersion)
	}
}

func TestLifecycle_GateRejectsSecondInitialize(t *testing.T) {
	l := newLifecycle()
	sess := session.NewSession("s1", 0)
	sess.SetState(session.StateInitializing)

	err := l.Gate(sess, "initialize")
	if err == nil || err.Code != jsonrpc.CodeInvalidRequest {
		t.Fatalf("Gate(initialize) while initializing = %v, want invalid-request", err)
	}
}

func TestLifecycle_InitializedTransitionsToInitialized(t *testing.T) {
	l := newLifecycle()
	sess := session.NewSession("s1", 0)
	sess.SetState(session.StateInitializing)

	l.Initialized(sess)
	if sess.State() != session.StateInitialized {
		t.Errorf("state = %v, want %v", sess.State(), session.StateInitialized)
	}

	err := l.Gate(sess, "initialize")
	if err == nil || err.Code != jsonrpc.CodeInvalidRequest {
		t.Fatalf("Gate(initialize) once initialized = %v, want invalid-request", err)
	}
	if err := l.Gate(sess, "tools/list"); err != nil {
		t.Errorf("Gate(tools/list) once initialized = %v, want nil", err)
	}
}
