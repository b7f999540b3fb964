// Package store is the key/prefix addressable persistence boundary.
//
// Every backend keeps a version counter per key. Set bumps it unconditionally,
// CompareAndSwap only writes when the caller's version is still current, which
// is what the services use to serialize read-check-write mutations.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("store: key not found")
	ErrVersionConflict = errors.New("store: version conflict")
)

// Entry is one stored value with its current version. Version 0 never exists.
type Entry struct {
	Key     string
	Value   []byte
	Version uint64
}

type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, value []byte) error
	// GetByPrefix returns every entry whose key starts with prefix.
	// Callers must not rely on the order.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
	// CompareAndSwap writes value only if the key is at version. Version 0
	// means the key must not exist yet. Returns the new version.
	CompareAndSwap(ctx context.Context, key string, value []byte, version uint64) (uint64, error)
	Close() error
}
