package oauth

// AuthorizationServerMetadata is the RFC 8414 document served at
// /.well-known/oauth-authorization-server.
type AuthorizationServerMetadata struct {
	Issuer                              string   `json:"issuer"`
	AuthorizationEndpoint               string   `json:"authorization_endpoint"`
	TokenEndpoint                       string   `json:"token_endpoint"`
	RevocationEndpoint                  string   `json:"revocation_endpoint"`
	TokenEndpointAuthMethodsSupported   []string `json:"token_endpoint_auth_methods_supported"`
	ResponseTypesSupported              []string `json:"response_types_supported"`
	GrantTypesSupported                 []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported       []string `json:"code_challenge_methods_supported"`
}

// NewAuthorizationServerMetadata builds the discovery document for a
// server whose authorization/token endpoints live under issuer.
func NewAuthorizationServerMetadata(issuer string) AuthorizationServerMetadata {
	return AuthorizationServerMetadata{
		Issuer:                            issuer,
		AuthorizationEndpoint:             issuer + "/authorize",
		TokenEndpoint:                     issuer + "/token",
		RevocationEndpoint:                issuer + "/revoke",
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post", "none"},
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token", "client_credentials"},
		CodeChallengeMethodsSupported:     []string{"S256"},
	}
}

// ProtectedResourceMetadata is the RFC 9728 document served at
// /.well-known/oauth-protected-resource.
type ProtectedResourceMetadata struct {
	Resource             string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
	ScopesSupported      []string `json:"scopes_supported"`
	BearerMethods        []string `json:"bearer_methods_supported"`
}

// NewProtectedResourceMetadata builds the protected-resource discovery
// document for resource, advertising authServers and the default scopes.
func NewProtectedResourceMetadata(resource string, authServers []string) ProtectedResourceMetadata {
	scopes := make([]string, len(DefaultScopes))
	for i, s := range DefaultScopes {
		scopes[i] = string(s)
	}
	return ProtectedResourceMetadata{
		Resource:             resource,
		AuthorizationServers: authServers,
		ScopesSupported:      scopes,
		BearerMethods:        []string{"header"},
	}
}
