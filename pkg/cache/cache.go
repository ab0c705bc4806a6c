// Package cache provides the persistent metadata cache behind the registry
// client and the resolution cache behind the HTTP API.
//
// Backends:
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for teams and CI runners
//   - [MongoCache]: shared cache with TTL-index expiry
//   - [NullCache]: disables caching
//
// Keys are built by a [Keyer] so every backend sees the same key layout.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with an optional TTL.
// A zero TTL means the entry never expires. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry whose key
// starts with a prefix. An empty prefix clears everything.
type Clearer interface {
	Clear(ctx context.Context, prefix string) (int, error)
}

// Clear removes entries with the given key prefix when c supports it.
// It reports false when the backend cannot enumerate its keys.
func Clear(ctx context.Context, c Cache, prefix string) (int, bool, error) {
	cl, ok := c.(Clearer)
	if !ok {
		return 0, false, nil
	}
	n, err := cl.Clear(ctx, prefix)
	return n, true, err
}
