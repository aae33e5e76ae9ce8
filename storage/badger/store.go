package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gurukul/storage"
)

// Store implements storage.Store on a Badger backend.
type Store struct {
	backend *Backend
	owned   bool
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a Store over an existing backend. Closing the store
// leaves the backend open.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// Open opens a backend at path (or in memory) and returns a Store that
// closes it on Close.
func Open(path string, inMemory bool) (storage.Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, owned: true}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}

	var value []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	return value, err
}

// Set stores value under key. Badger expires entries with a positive ttl.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.check(key); err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeKey(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close closes the backend if the store opened it.
func (s *Store) Close() error {
	if !s.owned || s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) check(key string) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return storage.ValidateKey(key)
}
