// Package cache provides the token store implementations used by the SDK:
// an in-memory cache for single-process use, an optional valkey-backed store
// for sharing tokens across processes, and decorators for metrics and
// at-rest encryption.
package cache

import (
	"context"
)

// TokenCache is the interface for token store implementations. The generic
// type T is the cached value type.
//
// Implementations must be safe for concurrent use. A Set fully replaces the
// entry for its key: readers never observe a partially written value.
type TokenCache[T any] interface {
	// Get retrieves a value from the cache.
	// Returns the value, whether it was found, and any error.
	Get(ctx context.Context, key string) (T, bool, error)

	// Set stores a value in the cache, replacing any existing entry.
	Set(ctx context.Context, key string, value T) error

	// Invalidate removes a value from the cache.
	Invalidate(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
