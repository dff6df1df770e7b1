package config

import "time"

type OAuthConfig interface {
	GetTokenExpiry() time.Duration
	GetIssuer() string
	GetRequireClientAuth() bool
}

type OAuth struct {
	TokenExpiry       time.Duration `env:"TOKEN_EXPIRY" envDefault:"10h"`
	Issuer            string        `env:"TOKEN_ISSUER" envDefault:"go-token-server"`
	RequireClientAuth bool          `env:"REQUIRE_CLIENT_AUTH" envDefault:"false"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetTokenExpiry() time.Duration {
	if o.TokenExpiry <= 0 {
		return 10 * time.Hour
	}
	return o.TokenExpiry
}

func (o OAuth) GetIssuer() string {
	return o.Issuer
}

// GetRequireClientAuth makes password grants carry client credentials too.
func (o OAuth) GetRequireClientAuth() bool {
	return o.RequireClientAuth
}
