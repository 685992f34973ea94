package httptransport

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/chief-builder/mcp-reference-server/internal/audit"
	"github.com/chief-builder/mcp-reference-server/internal/oauth"
	"github.com/chief-builder/mcp-reference-server/internal/pkce"
)

// defaultRefreshTokenTTL is longer-lived than the access token it mints
// alongside, per the standard authorization_code grant shape.
const defaultRefreshTokenTTL = 30 * 24 * time.Hour

// handleAuthorize implements the authorization_code grant's front channel
// (spec.md §4.12, §4.13). This reference server has no interactive login:
// the request is auto-approved for whatever client_id presents it, with
// the client id doubling as the resulting grant's subject. PKCE is
// mandatory — a missing or non-S256 code_challenge_method is rejected.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	responseType := q.Get("response_type")
	codeChallenge := q.Get("code_challenge")
	codeChallengeMethod := q.Get("code_challenge_method")
	scope := q.Get("scope")
	state := q.Get("state")

	if clientID == "" || redirectURI == "" {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "client_id and redirect_uri are required")
		return
	}
	if responseType != "code" {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "response_type must be \"code\"")
		return
	}
	if codeChallenge == "" || codeChallengeMethod != pkce.MethodS256 {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "code_challenge with method S256 is required")
		return
	}

	code, err := s.oauth.StoreAuthorizationCode(oauth.AuthorizationCodeParams{
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		Subject:             clientID,
		Scope:               scope,
		State:               state,
	}, 0)
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, oauth.ErrorServerError, "failed to issue authorization code")
		return
	}
	audit.LogAuthCodeIssued(clientID, clientID)

	redirectTo, err := redirectWithCode(redirectURI, code, state)
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "invalid redirect_uri")
		return
	}
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

// handleToken implements the token endpoint for all three grants spec.md
// §4.13's discovery document advertises: authorization_code, refresh_token,
// and client_credentials.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "malformed form body")
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.tokenFromAuthorizationCode(w, r)
	case "refresh_token":
		s.tokenFromRefreshToken(w, r)
	case "client_credentials":
		s.tokenFromClientCredentials(w, r)
	default:
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "unsupported grant_type")
	}
}

func (s *Server) tokenFromAuthorizationCode(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")
	verifier := r.PostForm.Get("code_verifier")
	redirectURI := r.PostForm.Get("redirect_uri")
	clientID := r.PostForm.Get("client_id")

	entry, ok := s.oauth.ConsumeAuthorizationCode(code)
	if !ok {
		audit.LogAuthCodeReplay(clientID)
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "authorization code is invalid, expired, or already used")
		return
	}
	if entry.ClientID != clientID || entry.RedirectURI != redirectURI {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "client_id or redirect_uri does not match the authorization request")
		return
	}
	verified, err := pkce.VerifyCodeChallenge(verifier, entry.CodeChallenge, entry.CodeChallengeMethod)
	if err != nil || !verified {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "code_verifier does not match code_challenge")
		return
	}
	audit.LogAuthCodeConsumed(entry.ClientID, entry.Subject)

	s.issueTokenPair(w, entry.ClientID, entry.Subject, entry.Scope)
}

func (s *Server) tokenFromRefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.PostForm.Get("refresh_token")
	clientID := r.PostForm.Get("client_id")

	entry, ok := s.oauth.GetRefreshToken(refreshToken)
	if !ok || entry.ClientID != clientID {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "refresh_token is invalid, expired, or does not belong to client_id")
		return
	}

	accessToken, err := s.oauth.IssueAccessToken(entry.ClientID, entry.Subject, entry.Scope, 0)
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, oauth.ErrorServerError, "failed to issue access token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(oauth.DefaultAccessTokenTTL.Seconds()),
		RefreshToken: entry.Token,
		Scope:        entry.Scope,
	})
}

func (s *Server) tokenFromClientCredentials(w http.ResponseWriter, r *http.Request) {
	clientID := r.PostForm.Get("client_id")
	scope := r.PostForm.Get("scope")
	if clientID == "" {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "client_id is required")
		return
	}

	accessToken, err := s.oauth.IssueAccessToken(clientID, clientID, scope, 0)
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, oauth.ErrorServerError, "failed to issue access token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(oauth.DefaultAccessTokenTTL.Seconds()),
		Scope:       scope,
	})
}

// handleRevoke implements RFC 7009 token revocation for refresh tokens:
// the one grant this server issues that a client can hold onto and that
// therefore needs an explicit way to kill early. Revocation is idempotent
// and always reports success per RFC 7009 §2.2, whether or not the token
// was known.
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "malformed form body")
		return
	}

	token := r.PostForm.Get("token")
	clientID := r.PostForm.Get("client_id")
	if token == "" {
		writeOAuthError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "token is required")
		return
	}

	if entry, ok := s.oauth.GetRefreshToken(token); ok {
		s.oauth.RevokeRefreshToken(token)
		audit.LogTokenRevoked(clientID, entry.Subject)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) issueTokenPair(w http.ResponseWriter, clientID, subject, scope string) {
	accessToken, err := s.oauth.IssueAccessToken(clientID, subject, scope, 0)
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, oauth.ErrorServerError, "failed to issue access token")
		return
	}
	refreshToken, err := s.oauth.IssueRefreshToken(clientID, subject, scope, defaultRefreshTokenTTL)
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, oauth.ErrorServerError, "failed to issue refresh token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(oauth.DefaultAccessTokenTTL.Seconds()),
		RefreshToken: refreshToken,
		Scope:        scope,
	})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{"error": code, "error_description": description})
}

func redirectWithCode(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("oauth: parsing redirect_uri: %w", err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("oauth: redirect_uri %q is not absolute", redirectURI)
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
