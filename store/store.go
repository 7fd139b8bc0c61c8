// Package store defines the key-value blob persistence the economy saves
// into, with in-memory, file, cached and prefixed implementations.
// Database and object-store backends live in subpackages.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Store persists named string blobs. Set with a nil value erases the key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value *string) error
}

// Lister is implemented by stores that can enumerate keys.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close(ctx context.Context) error
}

// Value returns a pointer to s, for Set.
func Value(s string) *string { return &s }

// Close closes st if it holds resources.
func Close(ctx context.Context, st Store) error {
	if c, ok := st.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
