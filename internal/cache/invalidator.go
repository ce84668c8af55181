package cache

import (
	"context"
	"log/slog"
)

// Invalidator encapsulates the invalidation policy shared by all mutating
// operations: delete the product's point entry, then sweep every list entry,
// since any mutation can change membership or ordering of any list result.
//
// Invalidation is best-effort. The durable store is authoritative, so a
// failure here is logged and swallowed; stale entries self-expire at their TTL.
type Invalidator struct {
	cache  Cache
	logger *slog.Logger
}

// NewInvalidator creates an Invalidator over the given cache.
func NewInvalidator(cache Cache, logger *slog.Logger) *Invalidator {
	return &Invalidator{
		cache:  cache,
		logger: logger.With("component", "cache_invalidator"),
	}
}

// Invalidate removes the point entry for id and sweeps all list entries.
func (i *Invalidator) Invalidate(ctx context.Context, id int64) {
	if err := i.cache.Delete(ctx, ProductKey(id)); err != nil {
		i.logger.WarnContext(ctx, "Failed to delete point cache entry", "ID", id, "error", err)
	}
	if err := i.cache.DeleteByPrefix(ctx, ListKeyPrefix()); err != nil {
		i.logger.WarnContext(ctx, "Failed to sweep list cache entries", "ID", id, "error", err)
	}
}
