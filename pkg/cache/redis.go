package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores cache entries in Redis, letting the server handle TTL
// expiry. Suitable when multiple bot instances should share one cache.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis using a URL like
// redis://localhost:6379/0 and verifies the connection.
func NewRedisBackend(ctx context.Context, redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBackend{client: client}, nil
}

// Get returns the value for the key; redis.Nil is a miss, not an error.
func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetWithTTL stores the value with the given expiry.
func (r *RedisBackend) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the Redis connection.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
