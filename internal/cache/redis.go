package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache using Redis as the volatile store.
type RedisCache struct {
	client       *redis.Client
	scanPageSize int64
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a Cache backed by the given Redis client.
// scanPageSize bounds the page size of prefix sweeps.
func NewRedisCache(client *redis.Client, scanPageSize int64) *RedisCache {
	return &RedisCache{
		client:       client,
		scanPageSize: scanPageSize,
	}
}

// Get returns the value stored under key, or ErrCacheMiss if absent.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache key %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key with the given time-to-live.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %q: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key under prefix, scanning the keyspace
// in pages of scanPageSize until the cursor is exhausted.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	match := prefix + "*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, c.scanPageSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys for prefix %q: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys for prefix %q: %w", prefix, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
