package locks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockRetry = 25 * time.Millisecond
	defaultKeyPrefix = "token-server:lock:"
)

// releaseScript deletes the key only while it still holds our owner token, so
// a lock that expired and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance talking to the same Redis.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

var _ Locker = (*RedisLocker)(nil)

type RedisOption func(*RedisLocker)

// WithTTL bounds how long a crashed holder can block a key.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisLocker) {
		r.ttl = ttl
	}
}

func WithRetryInterval(retry time.Duration) RedisOption {
	return func(r *RedisLocker) {
		r.retry = retry
	}
}

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisLocker) {
		r.prefix = prefix
	}
}

func NewRedisLocker(client redis.UniversalClient, options ...RedisOption) *RedisLocker {
	r := &RedisLocker{
		client: client,
		ttl:    defaultLockTTL,
		retry:  defaultLockRetry,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if r.client == nil {
		return nil, errors.New("[RedisLocker.Lock] redis client not configured")
	}

	redisKey := r.prefix + key
	owner := uuid.New().String()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		acquired, err := r.client.SetNX(ctx, redisKey, owner, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, owner).Err(); err != nil {
				log.Warn().Err(err).Str("key", redisKey).Msg("failed to release redis lock")
			}
		})
	}, nil
}
