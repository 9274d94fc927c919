package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "cache").Logger()

// Redis is a Cache backed by a redis server, for deployments where
// several instances should share one lookup cache. Redis errors are
// logged and reported as misses; a flaky cache must never surface to
// callers as a failed lookup.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to redis and verifies the connection. A
// non-positive ttl falls back to DefaultTTL.
func NewRedis(addr, password string, db int, ttl time.Duration) (*Redis, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Redis{rdb: rdb, ttl: ttl}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	result := r.rdb.Get(ctx, key)
	if result.Err() == redis.Nil {
		return "", false
	}
	if result.Err() != nil {
		logger.Warn().Err(result.Err()).Str("key", key).Msg("redis get failed")
		return "", false
	}
	return result.Val(), true
}

// Put implements Cache.
func (r *Redis) Put(ctx context.Context, key, value string) {
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
