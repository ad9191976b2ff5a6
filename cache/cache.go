// Package cache memoizes scraped records in redis
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "clerkconnect:"

// Cache wraps a redis client. A nil *Cache is valid and caches nothing.
type Cache struct {
	client *redis.Client
}

// New connects to redis at addr, an empty addr returns a nil Cache
func New(ctx context.Context, addr, password string, db int) (*Cache, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Close releases the redis connection, a no-op on a disabled cache
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// Enabled reports whether values are actually stored
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// RecordKey is the cache key of a detail page
func RecordKey(id string) string {
	return keyPrefix + "record:" + strings.ToLower(strings.TrimSpace(id))
}

// ResultsKey is the cache key of the listing rows of a search
func ResultsKey(query string) string {
	return keyPrefix + "results:" + strings.ToLower(strings.TrimSpace(query))
}

// Memoize returns the cached value of key or calls fn and stores its result for ttl.
// Cache failures are logged and never fail the call.
func Memoize[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if !c.Enabled() {
		return fn()
	}

	var result T
	cachedData, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(cachedData, &result); jsonErr == nil {
			slog.Debug("cache hit", "key", key)
			return result, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.Warn("cache lookup failed", "key", key, "err", err)
	}

	result, err = fn()
	if err != nil {
		return result, err
	}

	cacheData, err := json.Marshal(result)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "err", err)
		return result, nil
	}
	if err := c.client.Set(ctx, key, cacheData, ttl).Err(); err != nil {
		slog.Warn("cache store failed", "key", key, "err", err)
	}
	return result, nil
}
