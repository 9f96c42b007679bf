// Package store defines the asynchronous key/value contract persisted
// signals are saved through. Backends live in the sub-packages.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing was saved under the key.
var ErrNotFound = errors.New("store: key not found")

// Store saves and loads opaque values by key.
type Store interface {
	// Load returns the bytes saved under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces whatever is saved under key.
	Save(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by stores that can forget a key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Full is a store with every optional capability.
type Full interface {
	Store
	Deleter
	Lister
}
