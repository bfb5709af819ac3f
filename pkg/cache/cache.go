// Package cache provides byte-level cache backends and the layout cache
// built on top of them.
//
// Backends:
//   - [NullCache]: stores nothing; caching disabled
//   - [MemoryCache]: in-process LRU with TTL, the default
//   - [FileCache]: one JSON file per entry, for the CLI across invocations
//   - [RedisCache]: shared cache for several server instances
//
// [LayoutCache] memoizes complete system layouts keyed by the object set,
// view mode and configuration fingerprint, and collapses concurrent
// identical computations into one.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix and returns how
	// many were removed. An empty prefix removes everything.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	Close() error
}
