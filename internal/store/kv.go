package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("key not found")

// UpdateFunc computes a replacement for a stored value. found is false when
// the key is absent. Returning write=false leaves the record untouched.
type UpdateFunc func(old []byte, found bool) (value []byte, write bool, err error)

// KV is a small transactional key/value store. Values are opaque bytes;
// callers own the encoding.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete returns ErrNotFound if the key does not exist.
	Delete(ctx context.Context, key string) error
	// Update runs fn and applies its result atomically with respect to other
	// writers of the same store.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Scan visits every key with the given prefix in ascending key order.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error
	Close() error
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config selects and locates a backend.
type Config struct {
	Backend string `mapstructure:"backend" validate:"oneof=sqlite badger memory"`
	// Path is the SQLite file or the Badger directory. Empty resolves to
	// DefaultDBPath for SQLite and to an in-memory instance for Badger.
	Path string `mapstructure:"path"`
}

// Open creates the configured backend.
func Open(cfg Config, logger *zap.Logger) (KV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case BackendSQLite, "":
		path := cfg.Path
		if path == "" {
			p, err := DefaultDBPath()
			if err != nil {
				return nil, err
			}
			path = p
		} else if err := EnsureDir(path); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		return OpenSQLite(path)
	case BackendBadger:
		return OpenBadger(cfg.Path, logger)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
