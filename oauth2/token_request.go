package oauth2

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the request body sent to the /token endpoint, either form
// encoded or as JSON.
type TokenRequest struct {
	// GrantType selects the exchange.
	// Required: Yes
	// Example: "password"
	GrantType GrantType `json:"grant_type"`

	// Username is the user's login name (their email address).
	// Required: Yes (only for password grant)
	// Example: "test.member@gmail.com"
	Username string `json:"username"`

	// Password is the user's plaintext password.
	// Required: Yes (only for password grant)
	// Security: Never log or expose this value
	Password string `json:"password"`

	// ClientID identifies the OAuth2 client making the request when it is
	// not sent with HTTP Basic authentication.
	// Example: "mobile-app"
	ClientID string `json:"client_id"`

	// ClientSecret is the secret credential for the client.
	// Security: Never log or expose this value
	ClientSecret string `json:"client_secret"`

	// Scope is accepted for compatibility and echoed back unchanged.
	Scope string `json:"scope"`
}
