package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestAuthError_StatusAndUnwrap(t *testing.T) {
	unauth := errs.NewUnauthorized("Unauthorized", nil)
	require.Equal(t, http.StatusUnauthorized, unauth.Status)
	require.ErrorIs(t, unauth, errs.ErrUnauthorized)
	require.False(t, errs.IsForbidden(unauth))

	denied := errs.NewForbidden("Access Denied")
	require.Equal(t, http.StatusForbidden, denied.Status)
	require.True(t, errs.IsForbidden(fmt.Errorf("wrapped: %w", denied)))
}

func TestAuthError_MessageIncludesCause(t *testing.T) {
	err := errs.NewUnauthorized("Token Validation Error", errs.ErrTokenExpired)
	require.Equal(t, "Token Validation Error: token expired", err.Error())
}

func TestNotFound(t *testing.T) {
	err := errs.NewNotFound("user", "a@x.com", errs.ErrUserNotFound)
	require.True(t, errs.IsNotFound(err))
	require.ErrorIs(t, err, errs.ErrUserNotFound)
	require.Contains(t, err.Error(), "a@x.com")

	require.True(t, errs.IsNotFound(errs.NewNotFound("client", "c1", nil)))
	require.False(t, errs.IsNotFound(errs.ErrInvalidToken))
}

func TestConfigurationError(t *testing.T) {
	err := errs.NewConfigurationError("JWT_SECRET", "signing secret is required")
	require.ErrorIs(t, err, errs.ErrMissingConf)

	var ce *errs.ConfigurationError
	require.True(t, errs.As(fmt.Errorf("startup: %w", err), &ce))
	require.Equal(t, "JWT_SECRET", ce.Setting)
}

func TestWrapf(t *testing.T) {
	require.NoError(t, errs.Wrapf(nil, "ignored"))
	err := errs.Wrapf(errs.ErrInvalidToken, "verify %s", "abc")
	require.ErrorIs(t, err, errs.ErrInvalidToken)
	require.Equal(t, "verify abc: invalid token", err.Error())
}
