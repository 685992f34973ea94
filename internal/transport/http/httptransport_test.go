package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/config"
	"github.com/chief-builder/mcp-reference-server/internal/extension"
	"github.com/chief-builder/mcp-reference-server/internal/mcp"
	"github.com/chief-builder/mcp-reference-server/internal/oauth"
	"github.com/chief-builder/mcp-reference-server/internal/pkce"
	"github.com/chief-builder/mcp-reference-server/internal/session"
	"github.com/google/jsonschema-go/jsonschema"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := mcp.NewRegistry()
	tool := &mcp.Tool{
		Name:        "echo",
		InputSchema: &jsonschema.Schema{Type: "object"},
		Handler: func(ctx context.Context, args json.RawMessage, p *mcp.ProgressEmitter) (*mcp.ToolResult, error) {
			return mcp.NewTextResult("ok"), nil
		},
	}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}
	lifecycle := mcp.NewLifecycle(extension.NewRegistry())
	executor := mcp.NewExecutor(registry, 0, 0)
	router := mcp.NewRouter(lifecycle, registry, executor, mcp.NewCompletionRegistry(), 0)

	cfg := &config.Config{ResourceURL: "https://mcp.example.test"}
	sessions := session.NewManager(0, 0)
	store := oauth.NewStore()

	return NewServer(cfg, router, sessions, store, oauth.NewRateLimiter(1000, 1000))
}

func mustBearerToken(t *testing.T, s *Server, scope string) string {
	t.Helper()
	token, err := s.oauth.IssueAccessToken("client-1", "user-1", scope, time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	return token
}

func TestServer_InitializeThenToolsCall(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()
	token := mustBearerToken(t, s, string(oauth.ScopeToolsExecute))

	initBody := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-11-25","capabilities":{}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(initBody))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("initialize status = %d, body = %s", rec.Code, rec.Body.String())
	}
	sessionID := rec.Header().Get(SessionIDHeader)
	if sessionID == "" {
		t.Fatal("expected Mcp-Session-Id header on initialize response")
	}

	notifyBody := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	req2 := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(notifyBody))
	req2.Header.Set("Authorization", "Bearer "+token)
	req2.Header.Set(SessionIDHeader, sessionID)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusAccepted {
		t.Fatalf("notification status = %d, want 202", rec2.Code)
	}

	callBody := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{}}}`
	req3 := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(callBody))
	req3.Header.Set("Authorization", "Bearer "+token)
	req3.Header.Set(SessionIDHeader, sessionID)
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)

	if rec3.Code != http.StatusOK {
		t.Fatalf("tools/call status = %d, body = %s", rec3.Code, rec3.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec3.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["error"] != nil {
		t.Fatalf("unexpected error in response: %+v", resp["error"])
	}
}

func TestServer_UnknownSessionIsNotFound(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()
	token := mustBearerToken(t, s, string(oauth.ScopeToolsExecute))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(SessionIDHeader, "does-not-exist")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServer_MissingBearerTokenIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate challenge header")
	}
}

func TestServer_HealthIsUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status:ok", rec.Body.String())
	}
}

func TestServer_DiscoveryEndpointsAreUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	for _, path := range []string{
		"/.well-known/oauth-authorization-server",
		"/.well-known/oauth-protected-resource",
	} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestServer_CancelUnknownSessionReturnsFalse(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()
	token := mustBearerToken(t, s, string(oauth.ScopeToolsExecute))

	req := httptest.NewRequest(http.MethodPost, "/api/cancel", strings.NewReader(`{"sessionId":"nope"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp cancelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Cancelled {
		t.Error("Cancelled = true, want false for unknown session")
	}
}

func TestServer_AuthorizeRequiresPKCE(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/authorize?client_id=c1&redirect_uri=https://client.test/cb&response_type=code", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (missing PKCE)", rec.Code)
	}
}

func TestServer_AuthorizeThenTokenExchange(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	verifier, err := pkce.GenerateCodeVerifier(64)
	if err != nil {
		t.Fatalf("GenerateCodeVerifier: %v", err)
	}
	challenge, err := pkce.GenerateCodeChallenge(verifier)
	if err != nil {
		t.Fatalf("GenerateCodeChallenge: %v", err)
	}

	authorizeURL := "/authorize?" + url.Values{
		"client_id":             {"client-1"},
		"redirect_uri":          {"https://client.test/cb"},
		"response_type":         {"code"},
		"code_challenge":        {challenge},
		"code_challenge_method": {pkce.MethodS256},
		"state":                 {"xyz"},
	}.Encode()

	req := httptest.NewRequest(http.MethodGet, authorizeURL, http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("authorize status = %d, want 302, body = %s", rec.Code, rec.Body.String())
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	code := location.Query().Get("code")
	if code == "" {
		t.Fatal("expected code in redirect Location")
	}
	if location.Query().Get("state") != "xyz" {
		t.Errorf("state = %q, want xyz", location.Query().Get("state"))
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {"https://client.test/cb"},
		"client_id":     {"client-1"},
		"code_verifier": {verifier},
	}
	tokenReq := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	tokenReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenRec := httptest.NewRecorder()
	handler.ServeHTTP(tokenRec, tokenReq)

	if tokenRec.Code != http.StatusOK {
		t.Fatalf("token status = %d, body = %s", tokenRec.Code, tokenRec.Body.String())
	}
	var tok tokenResponse
	if err := json.Unmarshal(tokenRec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("unmarshal token response: %v", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		t.Errorf("token response missing access_token/refresh_token: %+v", tok)
	}

	if _, ok := s.oauth.ConsumeAuthorizationCode(code); ok {
		t.Error("authorization code should be single-use")
	}
}

func TestServer_RevokeDeletesRefreshToken(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	refreshToken, err := s.oauth.IssueRefreshToken("client-1", "client-1", "tools:read", time.Hour)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	form := url.Values{
		"token":     {refreshToken},
		"client_id": {"client-1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/revoke", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, ok := s.oauth.GetRefreshToken(refreshToken); ok {
		t.Error("refresh token should be revoked")
	}
}

func TestServer_RevokeUnknownTokenStillReturnsOK(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	form := url.Values{"token": {"never-issued"}}
	req := httptest.NewRequest(http.MethodPost, "/revoke", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (RFC 7009 revocation is idempotent)", rec.Code)
	}
}

func TestServer_TokenRejectsReplayedCode(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"never-issued"},
		"redirect_uri":  {"https://client.test/cb"},
		"client_id":     {"client-1"},
		"code_verifier": {"whatever-verifier-string-that-is-long-enough-1234567890"},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
