package storage

import (
	"context"
	"time"
)

// Store is a key-value store for opaque byte values.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	// A positive ttl makes the entry expire after that duration; zero or
	// negative keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources. After Close, operations return ErrStorageClosed.
	Close() error
}

// ValidateKey checks that key can be used with any Store.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
