// Package store provides the key-value store clients backing the
// object cache. The store is authoritative for expiry: an expired entry
// is indistinguishable from one that was never written.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a key is absent: never written, expired, or
// deleted.
var ErrNotFound = errors.New("store: key not found")

// Store is a remote key-value service with TTL-bounded writes. Each
// call is a single attempt; callers own the fail-open policy. All
// implementations must be safe for concurrent use.
type Store interface {
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, expiring after ttl.
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
