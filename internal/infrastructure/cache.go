package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when the key is absent or caching is disabled.
var ErrCacheMiss = errors.New("cache miss")

// ViewCache is a small read-through cache for assembled dashboard payloads.
// A nil client disables it: Get always misses and Set is a no-op, so
// callers never branch on whether caching is configured.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewViewCache connects to redis when an address is configured and returns
// a disabled cache otherwise.
func NewViewCache(cfg RedisConfig) *ViewCache {
	if cfg.Addr == "" {
		return &ViewCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ViewCache{client: client, ttl: ttl}
}

// Get returns the cached payload for the key.
func (c *ViewCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// Set stores the payload under the key for the configured TTL.
func (c *ViewCache) Set(ctx context.Context, key string, data []byte) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Close releases the redis connection.
func (c *ViewCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
