package oauth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chief-builder/mcp-reference-server/internal/logger"
)

// Middleware gates access to protected HTTP endpoints (GET/POST /mcp)
// behind a valid bearer access token. On success it attaches an
// AuthContext to the request; on failure it writes a 401 with a
// WWW-Authenticate: Bearer challenge per RFC 6750 / spec §4.13.
func Middleware(store *Store, resourceMetadataURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				challenge(w, resourceMetadataURL, ErrorUnauthorized, "missing bearer token")
				return
			}

			tokenValue := strings.TrimPrefix(header, "Bearer ")
			token, ok := store.GetAccessToken(tokenValue)
			if !ok {
				logger.Info("bearer token rejected: %s", maskToken(tokenValue))
				challenge(w, resourceMetadataURL, ErrorInvalidToken, "token is invalid or expired")
				return
			}

			authContext := &AuthContext{Subject: token.Subject, ClientID: token.ClientID, Scope: token.Scope}
			ctx := WithContext(r.Context(), authContext)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope wraps an already-authenticated handler, rejecting requests
// whose AuthContext lacks the given scope with insufficient_scope.
func RequireScope(scope Scope, resourceMetadataURL string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := FromContext(r.Context())
		if !authCtx.HasScope(scope) {
			challengeWithScope(w, resourceMetadataURL, ErrorInsufficientScope, "missing required scope", string(scope))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func challenge(w http.ResponseWriter, resourceMetadataURL, errorCode, description string) {
	challengeWithScope(w, resourceMetadataURL, errorCode, description, "")
}

func challengeWithScope(w http.ResponseWriter, resourceMetadataURL, errorCode, description, scope string) {
	c := Challenge{ResourceMetadataURL: resourceMetadataURL, Error: errorCode, ErrorDescription: description, Scope: scope}
	w.Header().Set("WWW-Authenticate", c.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:8] + "..." + token[len(token)-4:]
}
