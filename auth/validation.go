package auth

import (
	"fmt"
	"strings"

	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/oauth2"
)

// Validator provides request-shape validation for the token endpoints. It
// runs before any store is consulted.
type Validator struct {
	requireClientAuth bool
}

// NewValidator creates a new Validator instance
func NewValidator(requireClientAuth bool) *Validator {
	return &Validator{requireClientAuth: requireClientAuth}
}

// RequiresClient reports whether a token request for grant must carry client
// credentials.
func (v *Validator) RequiresClient(grant oauth2.GrantType) bool {
	return v.requireClientAuth || grant == oauth2.ClientCredentialsGrantType
}

// ValidateTokenRequest validates token endpoint requests
func (v *Validator) ValidateTokenRequest(params oauth2.TokenRequest) error {
	if params.GrantType == "" {
		return fmt.Errorf("grant_type is required")
	}
	if !params.GrantType.IsSupported() {
		return errs.Wrapf(errs.ErrUnsupportedType, "unsupported grant_type %q", params.GrantType)
	}

	if params.GrantType == oauth2.PasswordGrantType {
		return v.ValidatePasswordGrant(params)
	}
	return nil
}

// ValidatePasswordGrant validates password grant parameters
func (v *Validator) ValidatePasswordGrant(params oauth2.TokenRequest) error {
	if strings.TrimSpace(params.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if params.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ValidateAccessToken validates access token format and presence
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is required")
	}

	// Basic format check - should be a JWT (3 parts separated by dots)
	if len(strings.Split(token, ".")) != 3 {
		return fmt.Errorf("invalid token format: must be a valid JWT")
	}
	return nil
}
