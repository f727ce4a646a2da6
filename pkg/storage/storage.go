package storage

import (
	"context"
	"errors"
)

// Storage is a string key-value store.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value stored under key.
	// Returns ("", false, nil) if the key doesn't exist.
	// Returns ("", false, err) on backend errors.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key.
	// Should not return an error if the key doesn't exist.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrClosed is returned when operations are attempted on a closed store.
var ErrClosed = errors.New("storage: store is closed")
