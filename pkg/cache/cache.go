// Package cache stores rendered artifacts and computed layouts.
//
// Layouts are pure functions of (catalog, focus, viewport) and rendered
// frames are pure functions of their frame data, so both can be cached by
// content-derived keys. Three backends are provided:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: never stores anything
//
// Keys come from a [Keyer] so that callers never hand-assemble them, and
// [Observed] reports hits and misses to the registered observability hooks.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}
