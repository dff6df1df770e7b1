package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-token-server/auth"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateTokenRequest(t *testing.T) {
	v := auth.NewValidator(false)

	t.Run("valid password grant", func(t *testing.T) {
		err := v.ValidateTokenRequest(oauth2.TokenRequest{
			GrantType: oauth2.PasswordGrantType,
			Username:  "test.member@gmail.com",
			Password:  "password",
		})
		require.NoError(t, err)
	})

	t.Run("valid client credentials grant", func(t *testing.T) {
		err := v.ValidateTokenRequest(oauth2.TokenRequest{GrantType: oauth2.ClientCredentialsGrantType})
		require.NoError(t, err)
	})

	t.Run("missing grant type", func(t *testing.T) {
		err := v.ValidateTokenRequest(oauth2.TokenRequest{Username: "a", Password: "b"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "grant_type is required")
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		err := v.ValidateTokenRequest(oauth2.TokenRequest{GrantType: "authorization_code"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported grant_type")
		require.ErrorIs(t, err, errs.ErrUnsupportedType)
	})

	t.Run("blank username", func(t *testing.T) {
		err := v.ValidateTokenRequest(oauth2.TokenRequest{
			GrantType: oauth2.PasswordGrantType,
			Username:  "   ",
			Password:  "password",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "username is required")
	})

	t.Run("missing password", func(t *testing.T) {
		err := v.ValidateTokenRequest(oauth2.TokenRequest{
			GrantType: oauth2.PasswordGrantType,
			Username:  "test.member@gmail.com",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "password is required")
	})
}

func TestValidator_RequiresClient(t *testing.T) {
	optional := auth.NewValidator(false)
	require.False(t, optional.RequiresClient(oauth2.PasswordGrantType))
	require.True(t, optional.RequiresClient(oauth2.ClientCredentialsGrantType))

	required := auth.NewValidator(true)
	require.True(t, required.RequiresClient(oauth2.PasswordGrantType))
}

func TestValidator_ValidateAccessToken(t *testing.T) {
	v := auth.NewValidator(false)

	require.NoError(t, v.ValidateAccessToken("aaa.bbb.ccc"))
	require.Error(t, v.ValidateAccessToken(""))
	require.Error(t, v.ValidateAccessToken("not-a-jwt"))
}
