// Package metrics exports reactive runtime and store activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/delaneyj/trackstate/pkg/store"
	"github.com/delaneyj/trackstate/pkg/store/middleware"
	"github.com/delaneyj/trackstate/reactive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "trackstate").
	Namespace string

	// Buckets are the histogram buckets for store latencies.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Collector holds the metrics. Its Hooks feed a reactive.Runtime and its
// InstrumentStore middleware wraps store backends.
type Collector struct {
	notifications prometheus.Counter
	fanout        prometheus.Histogram
	recomputes    prometheus.Counter
	loads         *prometheus.CounterVec
	persists      *prometheus.CounterVec
	persistTime   prometheus.Histogram
	storeOps      *prometheus.CounterVec
	storeTime     *prometheus.HistogramVec
}

func NewCollector(opts ...Option) *Collector {
	config := Config{
		Namespace: "trackstate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "notifications_total",
			Help:      "Signal writes that notified listeners",
		}),
		fanout: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "notification_fanout",
			Help:      "Listeners notified per signal write",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		recomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "recomputes_total",
			Help:      "Computed re-evaluations",
		}),
		loads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "stored_loads_total",
			Help:      "Initial loads of stored signals by outcome",
		}, []string{"result"}),
		persists: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "stored_saves_total",
			Help:      "Saves issued by stored signals by outcome",
		}, []string{"result"}),
		persistTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "stored_save_duration_seconds",
			Help:      "Latency of saves issued by stored signals",
			Buckets:   config.Buckets,
		}),
		storeOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store calls by operation and outcome",
		}, []string{"op", "result"}),
		storeTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store call latency by operation",
			Buckets:   config.Buckets,
		}, []string{"op"}),
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Hooks returns runtime hooks that record into c.
func (c *Collector) Hooks() reactive.Hooks {
	return reactive.Hooks{
		OnNotify: func(listeners int) {
			c.notifications.Inc()
			c.fanout.Observe(float64(listeners))
		},
		OnRecompute: c.recomputes.Inc,
		OnLoad: func(key string, found bool, err error) {
			switch {
			case found:
				c.loads.WithLabelValues("found").Inc()
			default:
				c.loads.WithLabelValues(result(err)).Inc()
			}
		},
		OnPersist: func(key string, d time.Duration, err error) {
			c.persists.WithLabelValues(result(err)).Inc()
			c.persistTime.Observe(d.Seconds())
		},
	}
}

type instrumented struct {
	next store.Store
	c    *Collector
}

// InstrumentStore counts and times every call through the wrapped store.
func (c *Collector) InstrumentStore() middleware.Middleware {
	return func(next store.Store) store.Store {
		return &instrumented{next: next, c: c}
	}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	s.c.storeOps.WithLabelValues(op, result(err)).Inc()
	s.c.storeTime.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Save(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Save(ctx, key, value)
	s.observe("save", start, err)
	return err
}

func (s *instrumented) Load(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.next.Load(ctx, key)
	s.observe("load", start, err)
	return data, err
}

func (s *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := middleware.Delete(ctx, s.next, key)
	s.observe("delete", start, err)
	return err
}

func (s *instrumented) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := middleware.Keys(ctx, s.next)
	s.observe("keys", start, err)
	return keys, err
}
