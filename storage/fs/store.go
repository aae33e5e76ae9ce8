// Package fs implements storage.Store as one file per key in a directory.
//
// File names are the hex BLAKE2b ID of the key, so any key is safe to use.
// Each file holds a storage.Record; expired records are removed when read.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/storage"
)

// Store implements storage.Store on the local filesystem.
type Store struct {
	dir    string
	now    func() time.Time
	mu     sync.RWMutex
	closed bool
}

var _ storage.Store = (*Store)(nil)

// Open returns a Store rooted at dir, creating it if needed.
func Open(dir string) (storage.Store, error) {
	return open(dir, time.Now)
}

func open(dir string, now func() time.Time) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, now: now}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%016x", uint64(core.IDFromContent(key))))
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(key); err != nil {
		return nil, err
	}

	path := s.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec, err := storage.UnmarshalRecord(data)
	if err != nil {
		return nil, err
	}
	if rec.Expired(s.now()) {
		os.Remove(path)
		return nil, storage.ErrNotFound
	}
	return rec.Value, nil
}

// Set writes value under key, replacing the file atomically.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(key); err != nil {
		return err
	}

	rec := storage.Record{Value: value}
	if ttl > 0 {
		rec.ExpiresAt = s.now().Add(ttl)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(storage.MarshalRecord(rec)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(key); err != nil {
		return err
	}

	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Close marks the store closed. Files are left in place.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check(key string) error {
	if s.closed {
		return storage.ErrStorageClosed
	}
	return storage.ValidateKey(key)
}
