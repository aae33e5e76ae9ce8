package badger

import "github.com/poiesic/gurukul/storage"

// NewMemoryStore creates an in-memory store for testing.
// Caller must close the store when done.
func NewMemoryStore() (storage.Store, error) {
	return Open("", true)
}
