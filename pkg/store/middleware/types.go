package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/delaneyj/trackstate/pkg/store"
)

// Middleware wraps a Store to add behavior (e.g. tracing, logging, metrics).
type Middleware func(store.Store) store.Store

// Chain applies middlewares so the first one listed is the outermost.
func Chain(s store.Store, mws ...Middleware) store.Store {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}

// Delete forwards to next when it can delete keys.
func Delete(ctx context.Context, next store.Store, key string) error {
	d, ok := next.(store.Deleter)
	if !ok {
		return fmt.Errorf("delete %q: %w", key, errors.ErrUnsupported)
	}
	return d.Delete(ctx, key)
}

// Keys forwards to next when it can list keys.
func Keys(ctx context.Context, next store.Store) ([]string, error) {
	l, ok := next.(store.Lister)
	if !ok {
		return nil, fmt.Errorf("keys: %w", errors.ErrUnsupported)
	}
	return l.Keys(ctx)
}
