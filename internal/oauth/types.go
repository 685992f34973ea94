package oauth

import (
	"strings"
	"time"
)

// Scope is an OAuth scope string, e.g. "tools:execute".
type Scope string

const (
	ScopeToolsRead    Scope = "tools:read"
	ScopeToolsExecute Scope = "tools:execute"
	ScopeLoggingWrite Scope = "logging:write"
)

// DefaultScopes are advertised in the protected-resource discovery document.
var DefaultScopes = []Scope{ScopeToolsRead, ScopeToolsExecute, ScopeLoggingWrite}

// AuthorizationCode binds a single authorization_code grant to the request
// parameters that produced it. Single-use: ConsumeAuthorizationCode deletes
// it on first lookup, whether or not the exchange that follows succeeds.
type AuthorizationCode struct {
	Code                string
	ClientID            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	Subject             string
	Scope               string
	State               string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

func (c *AuthorizationCode) expired(now time.Time) bool { return now.After(c.ExpiresAt) }

// RefreshToken is multi-use until revoked or expired.
type RefreshToken struct {
	Token     string
	ClientID  string
	Subject   string
	Scope     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t *RefreshToken) expired(now time.Time) bool { return now.After(t.ExpiresAt) }

// AccessToken is the bearer credential presented to protected endpoints
// (e.g. GET/POST /mcp). Issued alongside a refresh token during an
// authorization_code or refresh_token grant.
type AccessToken struct {
	Token     string
	ClientID  string
	Subject   string
	Scope     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t *AccessToken) expired(now time.Time) bool { return now.After(t.ExpiresAt) }

// AuthContext is attached to a request's context once its bearer token has
// been validated.
type AuthContext struct {
	Subject  string
	ClientID string
	Scope    string
}

// HasScope reports whether s is present in the context's space-delimited scope string.
func (a *AuthContext) HasScope(s Scope) bool {
	if a == nil {
		return false
	}
	for _, part := range strings.Fields(a.Scope) {
		if part == string(s) {
			return true
		}
	}
	return false
}
