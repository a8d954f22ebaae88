package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/redirectdispatch/dispatcher/internal/retry"
)

// RedisCache implements SharedCache over go-redis. Grounded on
// pkg/redis/client.go's connection-pool construction, trimmed to the
// operations spec.md §6 actually names.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache dials Redis at the given URL, retrying with backoff
// until the first successful PING.
func NewRedisCache(ctx context.Context, url string, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxRetries = 5
	if err := retry.WithBackoff(connCtx, retryConfig, logger, "redis_connect", func() error {
		return client.Ping(connCtx).Err()
	}); err != nil {
		return nil, err
	}

	logger.Info("connected to redis", zap.String("addr", opts.Addr))

	return &RedisCache{client: client, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns the value at key, and whether it was present.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set writes value at key with the given TTL (0 means no expiry).
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Incr atomically increments key and returns the post-increment value.
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// Expire sets a TTL on an existing key.
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// Del removes key.
func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Ping checks connectivity, used by the /health/detailed handler.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
