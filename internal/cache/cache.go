// Package cache provides the best-effort cache client used by the catalog's
// cache-aside read path and the write-invalidate discipline of its mutations.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a keyed, TTL-bounded volatile store. Every method may fail;
// callers must treat failures as degradation, never as operation failures.
type Cache interface {
	// Get returns the value stored under key, or ErrCacheMiss if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix removes every key starting with prefix,
	// iterating the keyspace in bounded-size pages until exhausted.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
