package config

import (
	"strings"
	"time"
)

const (
	storageDriverVar = "STORAGE_DRIVER"
	sqlitePathVar    = "SQLITE_PATH"
	postgresDSNVar   = "POSTGRES_DSN"
	lockDriverVar    = "LOCK_DRIVER"
	redisAddrVar     = "REDIS_ADDR"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	LockMemory = "memory"
	LockRedis  = "redis"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetSQLitePath() string
	GetPostgresDSN() string
	GetPostgresMaxConns() int32
	GetPostgresRunMigrations() bool
	GetLockDriver() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetLockTTL() time.Duration
}

type Storage struct {
	StorageDriver         string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath            string        `env:"SQLITE_PATH" envDefault:"./data/tokens.db"`
	PostgresDSN           string        `env:"POSTGRES_DSN"`
	PostgresMaxConns      int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresRunMigrations bool          `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	LockDriver            string        `env:"LOCK_DRIVER" envDefault:"memory"`
	RedisAddr             string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword         string        `env:"REDIS_PASSWORD"`
	RedisDB               int           `env:"REDIS_DB" envDefault:"0"`
	LockTTL               time.Duration `env:"LOCK_TTL" envDefault:"10s"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return strings.ToLower(strings.TrimSpace(s.StorageDriver))
}

func (s Storage) GetSQLitePath() string {
	return s.SQLitePath
}

func (s Storage) GetPostgresDSN() string {
	return s.PostgresDSN
}

func (s Storage) GetPostgresMaxConns() int32 {
	return s.PostgresMaxConns
}

func (s Storage) GetPostgresRunMigrations() bool {
	return s.PostgresRunMigrations
}

func (s Storage) GetLockDriver() string {
	return strings.ToLower(strings.TrimSpace(s.LockDriver))
}

func (s Storage) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Storage) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Storage) GetRedisDB() int {
	return s.RedisDB
}

func (s Storage) GetLockTTL() time.Duration {
	return s.LockTTL
}
