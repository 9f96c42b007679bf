package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/delaneyj/trackstate/pkg/store"
)

type loggingMiddleware struct {
	next   store.Store
	logger *slog.Logger
}

// Logging logs every store call at debug level, and failures at warn.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next store.Store) store.Store {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "duration", time.Since(start))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.WarnContext(ctx, "store call failed", append(attrs, "err", err)...)
		return
	}
	m.logger.DebugContext(ctx, "store call", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := m.next.Save(ctx, key, value)
	m.log(ctx, "save", start, err, "key", key, "bytes", len(value))
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := m.next.Load(ctx, key)
	m.log(ctx, "load", start, err, "key", key, "bytes", len(data), "found", err == nil)
	return data, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := Delete(ctx, m.next, key)
	m.log(ctx, "delete", start, err, "key", key)
	return err
}

func (m *loggingMiddleware) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := Keys(ctx, m.next)
	m.log(ctx, "keys", start, err, "count", len(keys))
	return keys, err
}
