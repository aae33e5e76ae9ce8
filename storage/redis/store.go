// Package redis implements storage.Store on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/gurukul/storage"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix namespaces keys on a shared server.
	DefaultPrefix = "gurukul:"

	// DefaultTimeout bounds connection setup and each command.
	DefaultTimeout = 5 * time.Second
)

// Config holds connection settings.
type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Store implements storage.Store with go-redis.
type Store struct {
	client *redis.Client
	prefix string
	closed atomic.Bool
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open connects to the server described by cfg and verifies the connection.
func Open(cfg Config) (storage.Store, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}

	return NewFromClient(client, cfg.Prefix), nil
}

// NewFromClient creates a Store from an existing client. An empty prefix
// uses DefaultPrefix.
func NewFromClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "redis-store"),
	}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}

	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key. Redis expires entries with a positive ttl.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.check(key); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Close closes the client connection pool.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.logger.Debug("closing redis store")
	return s.client.Close()
}

func (s *Store) check(key string) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	return storage.ValidateKey(key)
}
