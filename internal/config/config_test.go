package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-server/internal/config"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironment_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	c, err := config.FromEnvironment()
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 10*time.Hour, c.GetTokenExpiry())
	require.False(t, c.GetRequireClientAuth())
	require.Equal(t, config.StorageMemory, c.GetStorageDriver())
	require.Equal(t, config.LockMemory, c.GetLockDriver())
	require.Equal(t, 10, c.GetBcryptCost())
	require.Equal(t, 15*time.Second, c.GetRequestTimeout())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestFromEnvironment_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.FromEnvironment()
	require.ErrorIs(t, err, errs.ErrMissingConf)

	var ce *errs.ConfigurationError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "JWT_SECRET", ce.Setting)
}

func TestFromEnvironment_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", ":9000")
	t.Setenv("TOKEN_EXPIRY", "30m")
	t.Setenv("REQUIRE_CLIENT_AUTH", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SEED_ADMIN_EMAIL", "test.admin@gmail.com")
	t.Setenv("SEED_ADMIN_PASSWORD", "pw")

	c, err := config.FromEnvironment()
	require.NoError(t, err)

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, 30*time.Minute, c.GetTokenExpiry())
	require.True(t, c.GetRequireClientAuth())
	require.Equal(t, config.StorageSQLite, c.GetStorageDriver())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example"))

	email, password := c.GetSeedAdmin()
	require.Equal(t, "test.admin@gmail.com", email)
	require.Equal(t, "pw", password)
}

func TestFromEnvironment_DriverValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		setting string
	}{
		{"unknown storage", map[string]string{"STORAGE_DRIVER": "mongo"}, "STORAGE_DRIVER"},
		{"postgres without dsn", map[string]string{"STORAGE_DRIVER": "postgres"}, "POSTGRES_DSN"},
		{"unknown lock", map[string]string{"LOCK_DRIVER": "etcd"}, "LOCK_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.FromEnvironment()
			var ce *errs.ConfigurationError
			require.ErrorAs(t, err, &ce)
			require.Equal(t, tt.setting, ce.Setting)
		})
	}
}

func TestAllowedOrigins_Wildcard(t *testing.T) {
	origins := config.AllowedOrigins{"*": {}}
	require.True(t, origins.IsAllowedOrigin("https://anything.example"))
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nAPP_NAME=Dotenv App\n"), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-file", c.GetJWTSecret())
	require.Equal(t, "Dotenv App", c.GetAppName())
}
