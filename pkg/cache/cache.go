// Package cache memoizes rendered grids.
//
// Graphviz layout dominates render time, and boards are re-rendered far more
// often than they change, so renders are cached by a hash of everything that
// affects the output: the grid cells, the path overlay, the format and the
// cell size.
//
// Backends:
//   - [FileCache]: files under a directory, for the CLI
//   - [RedisCache]: shared entries with native expiry, for servers
//   - [NullCache]: never stores, for --no-cache
//
// [Rendered] wraps a render with a cache lookup and reports hits, misses and
// sets to the observability cache hooks.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long rendered output is kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}
