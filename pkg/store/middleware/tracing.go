package middleware

import (
	"context"
	"errors"

	"github.com/delaneyj/trackstate/pkg/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "trackstate/store"

type tracingMiddleware struct {
	next   store.Store
	tracer trace.Tracer
}

// Tracing starts a client span around every store call. A nil tracer
// resolves one from the global OpenTelemetry provider.
func Tracing(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer(defaultTracerName)
	}
	return func(next store.Store) store.Store {
		return &tracingMiddleware{next: next, tracer: tracer}
	}
}

func (m *tracingMiddleware) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("store.operation", op)}
	if key != "" {
		attrs = append(attrs, attribute.String("store.key", key))
	}
	return m.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	// a missing key is an answer, not a failure
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *tracingMiddleware) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := m.start(ctx, "save", key)
	span.SetAttributes(attribute.Int("store.bytes", len(value)))
	err := m.next.Save(ctx, key, value)
	finish(span, err)
	return err
}

func (m *tracingMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := m.start(ctx, "load", key)
	data, err := m.next.Load(ctx, key)
	span.SetAttributes(attribute.Bool("store.found", err == nil))
	finish(span, err)
	return data, err
}

func (m *tracingMiddleware) Delete(ctx context.Context, key string) error {
	ctx, span := m.start(ctx, "delete", key)
	err := Delete(ctx, m.next, key)
	finish(span, err)
	return err
}

func (m *tracingMiddleware) Keys(ctx context.Context) ([]string, error) {
	ctx, span := m.start(ctx, "keys", "")
	keys, err := Keys(ctx, m.next)
	span.SetAttributes(attribute.Int("store.keys", len(keys)))
	finish(span, err)
	return keys, err
}
