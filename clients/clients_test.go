package clients_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-token-server/clients"
	fakeclientrepo "github.com/jrsteele09/go-token-server/clients/fakerepo"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestClient_CheckSecret(t *testing.T) {
	client, err := clients.New("mobile-app", "s3cret", "Mobile", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", client.SecretHash)

	require.True(t, client.CheckSecret("s3cret"))
	require.False(t, client.CheckSecret("wrong"))
	require.False(t, client.CheckSecret(""))

	var nilClient *clients.Client
	require.False(t, nilClient.CheckSecret("s3cret"))
}

func TestFakeClientRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeclientrepo.NewFakeClientRepo()

	client, err := clients.New("web", "secret", "Web", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, client))

	got, err := repo.Get(ctx, "web")
	require.NoError(t, err)
	require.Equal(t, "Web", got.Description)

	_, err = repo.Get(ctx, "unknown")
	require.ErrorIs(t, err, errs.ErrClientNotFound)
}
