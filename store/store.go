// Package store defines the key-value abstraction behind a cachecast Client.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding). Values written by other Redis clients under the same
// key are read back as-is, which is what lets cachecast interoperate with them.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRejected is returned by Set when the store refused the write under
// pressure (admission policy, full buffers). Nothing was stored.
var ErrRejected = errors.New("store: write rejected")

// Store is a minimal byte store with TTLs. Must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes a key. Missing keys are not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
