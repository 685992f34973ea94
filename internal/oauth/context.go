package oauth

import "context"

type contextKey string

const authContextKey contextKey = "oauth-auth"

// WithContext attaches an AuthContext to ctx.
func WithContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// FromContext retrieves the AuthContext attached by the bearer-auth
// middleware, or nil if the request carried none.
func FromContext(ctx context.Context) *AuthContext {
	auth, ok := ctx.Value(authContextKey).(*AuthContext)
	if !ok {
		return nil
	}
	return auth
}
