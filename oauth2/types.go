package oauth2

// GrantType is the OAuth 2.0 grant_type parameter of a token request.
type GrantType string

const (
	// PasswordGrantType exchanges a user's username and password for an access token.
	// Example: grant_type=password&username=a@x.com&password=pw
	// Response: Access token owned by the user
	PasswordGrantType GrantType = "password"

	// ClientCredentialsGrantType exchanges the client's own credentials for an access token.
	// Example: grant_type=client_credentials (client authenticated via Basic auth)
	// Response: Access token owned by the client
	ClientCredentialsGrantType GrantType = "client_credentials"
)

// IsSupported reports whether the token endpoint handles g.
func (g GrantType) IsSupported() bool {
	return g == PasswordGrantType || g == ClientCredentialsGrantType
}

// Error codes returned in the "error" field, RFC 6749 section 5.2.
const (
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidClient        = "invalid_client"
	ErrorInvalidGrant         = "invalid_grant"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
	ErrorUnauthorized         = "unauthorized"
	ErrorForbidden            = "forbidden"
	ErrorServerError          = "server_error"
	ErrorUnavailable          = "temporarily_unavailable"
)

// TokenType is the only token type this server issues.
const TokenType = "bearer"
