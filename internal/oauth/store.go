// Package oauth implements the OAuth 2.1 authorization plane: an in-memory,
// process-local store for authorization codes / refresh tokens / access
// tokens, the bearer-auth HTTP middleware, per-client rate limiting, and
// the discovery + WWW-Authenticate surfaces.
package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// Default TTLs, per spec.
const (
	DefaultAuthorizationCodeTTL = 600 * time.Second
	DefaultAccessTokenTTL       = 3600 * time.Second
	DefaultSweepInterval        = 60 * time.Second
)

// Store holds all OAuth grants for the process's lifetime. A single mutex
// guards all three maps, matching the spec's stated low-frequency,
// single-lock concurrency policy for this component.
type Store struct {
	mu            sync.Mutex
	codes         map[string]*AuthorizationCode
	accessTokens  map[string]*AccessToken
	refreshTokens map[string]*RefreshToken
	now           func() time.Time
}

// NewStore constructs an empty, process-local OAuth store.
func NewStore() *Store {
	return &Store{
		codes:         make(map[string]*AuthorizationCode),
		accessTokens:  make(map[string]*AccessToken),
		refreshTokens: make(map[string]*RefreshToken),
		now:           time.Now,
	}
}

// AuthorizationCodeParams describes the request an issued code is bound to.
type AuthorizationCodeParams struct {
	ClientID            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	Subject             string
	Scope               string
	State               string
}

// StoreAuthorizationCode mints a fresh 256-bit code bound to params, with
// createdAt=now and expiresAt=now+ttl (ttl<=0 uses the spec default).
func (s *Store) StoreAuthorizationCode(params AuthorizationCodeParams, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultAuthorizationCodeTTL
	}
	code, err := randomToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	s.mu.Lock()
	s.codes[code] = &AuthorizationCode{
		Code:                code,
		ClientID:            params.ClientID,
		RedirectURI:         params.RedirectURI,
		CodeChallenge:       params.CodeChallenge,
		CodeChallengeMethod: params.CodeChallengeMethod,
		Subject:             params.Subject,
		Scope:               params.Scope,
		State:               params.State,
		CreatedAt:           now,
		ExpiresAt:           now.Add(ttl),
	}
	s.mu.Unlock()
	return code, nil
}

// ConsumeAuthorizationCode deletes code unconditionally on lookup — the
// single-use contract holds whether the caller ultimately accepts or
// rejects the returned entry. Returns ok=false if absent or expired.
func (s *Store) ConsumeAuthorizationCode(code string) (entry *AuthorizationCode, ok bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.codes[code]
	if !exists {
		return nil, false
	}
	delete(s.codes, code)
	if entry.expired(now) {
		return nil, false
	}
	return entry, true
}

// IssueAccessToken mints a bearer access token bound to the given grant.
func (s *Store) IssueAccessToken(clientID, subject, scope string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	token, err := randomToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	s.mu.Lock()
	s.accessTokens[token] = &AccessToken{
		Token:     token,
		ClientID:  clientID,
		Subject:   subject,
		Scope:     scope,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
	return token, nil
}

// GetAccessToken looks up a bearer token, lazily deleting it if expired.
func (s *Store) GetAccessToken(token string) (*AccessToken, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.accessTokens[token]
	if !exists {
		return nil, false
	}
	if entry.expired(now) {
		delete(s.accessTokens, token)
		return nil, false
	}
	return entry, true
}

// IssueRefreshToken mints a multi-use refresh token with caller-specified TTL.
func (s *Store) IssueRefreshToken(clientID, subject, scope string, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	s.mu.Lock()
	s.refreshTokens[token] = &RefreshToken{
		Token:     token,
		ClientID:  clientID,
		Subject:   subject,
		Scope:     scope,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
	return token, nil
}

// GetRefreshToken looks up a refresh token, lazily deleting it if expired.
func (s *Store) GetRefreshToken(token string) (*RefreshToken, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.refreshTokens[token]
	if !exists {
		return nil, false
	}
	if entry.expired(now) {
		delete(s.refreshTokens, token)
		return nil, false
	}
	return entry, true
}

// RevokeRefreshToken deletes a refresh token unconditionally.
func (s *Store) RevokeRefreshToken(token string) {
	s.mu.Lock()
	delete(s.refreshTokens, token)
	s.mu.Unlock()
}

// Sweep purges every expired code, access token, and refresh token. Intended
// to run on a fixed 60s interval (internal/sweep).
func (s *Store) Sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for code, entry := range s.codes {
		if entry.expired(now) {
			delete(s.codes, code)
		}
	}
	for token, entry := range s.accessTokens {
		if entry.expired(now) {
			delete(s.accessTokens, token)
		}
	}
	for token, entry := range s.refreshTokens {
		if entry.expired(now) {
			delete(s.refreshTokens, token)
		}
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 32) // 256 bits
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("oauth: generating random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
