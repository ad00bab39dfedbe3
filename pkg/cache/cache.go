// Package cache stores derived render artifacts keyed by content hash.
//
// Entries are opaque byte slices with a TTL. The pipeline caches the
// positioned layout of a description and every artifact rendered from it,
// so an unchanged description re-renders without re-running layering.
//
// Backends:
//   - [FileCache]: one JSON file per entry under the XDG cache directory (CLI)
//   - [MemoryCache]: process-local map (server default, tests)
//   - [RedisCache]: shared cache for multi-instance servers
//   - [MongoCache]: document cache with a TTL index
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that every caller derives the same key
// for the same inputs.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss with (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Clear empties c when the backend supports it.
func Clear(ctx context.Context, c Cache) (int, error) {
	if cl, ok := c.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}
