package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions selects a Redis server.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache stores JSON values in Redis with SET ... EX.
type RedisCache struct {
	client redis.UniversalClient
}

// OpenRedis connects to opts.Addr. It returns nil when no address is
// configured so callers can fall back to MemoryCache.
func OpenRedis(opts RedisOptions) *RedisCache {
	if opts.Addr == "" {
		return nil
	}
	return NewRedisCache(redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}))
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Client exposes the connection pool for other Redis users such as the rate
// limiter.
func (c *RedisCache) Client() redis.UniversalClient {
	return c.client
}
