package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	StorageConfig
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Storage
}

var _ Config = mainConfig{}

// Load reads a .env file when present, then the process environment. A
// missing signing secret or an unusable driver selection aborts startup.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)
	return FromEnvironment()
}

// FromEnvironment parses the process environment without consulting .env
// files.
func FromEnvironment() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "[config.Load] parse env")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c mainConfig) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errs.NewConfigurationError(jwtSecretVar, "must be set to sign and verify tokens")
	}

	switch c.GetStorageDriver() {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errs.NewConfigurationError(sqlitePathVar, "required when STORAGE_DRIVER=sqlite")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errs.NewConfigurationError(postgresDSNVar, "required when STORAGE_DRIVER=postgres")
		}
	default:
		return errs.NewConfigurationError(storageDriverVar, "unknown driver "+c.StorageDriver)
	}

	switch c.GetLockDriver() {
	case LockMemory:
	case LockRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errs.NewConfigurationError(redisAddrVar, "required when LOCK_DRIVER=redis")
		}
	default:
		return errs.NewConfigurationError(lockDriverVar, "unknown driver "+c.LockDriver)
	}
	return nil
}
