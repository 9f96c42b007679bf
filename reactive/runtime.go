package reactive

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Hooks are optional observation points. OnNotify, OnRecompute and OnLoad
// run on the runtime goroutine; OnPersist runs on the goroutine that issued
// the store write, so implementations must be safe for concurrent use.
type Hooks struct {
	OnNotify    func(listeners int)
	OnRecompute func()
	OnLoad      func(key string, found bool, err error)
	OnPersist   func(key string, d time.Duration, err error)
}

func (h Hooks) notify(listeners int) {
	if h.OnNotify != nil {
		h.OnNotify(listeners)
	}
}

func (h Hooks) recompute() {
	if h.OnRecompute != nil {
		h.OnRecompute()
	}
}

func (h Hooks) load(key string, found bool, err error) {
	if h.OnLoad != nil {
		h.OnLoad(key, found, err)
	}
}

func (h Hooks) persist(key string, d time.Duration, err error) {
	if h.OnPersist != nil {
		h.OnPersist(key, d, err)
	}
}

// Runtime owns the state every reactive primitive shares: the ambient
// tracking slot, the set of computeds currently recomputing, the auto-dispose
// scope slot and the keyed registry.
//
// A Runtime is one logical thread of execution. Signals, computeds, watchers
// and consumers created against it must only be used from the goroutine that
// drives it. Work finished elsewhere is handed back with Enqueue.
type Runtime struct {
	ctx    context.Context
	logger *slog.Logger
	hooks  Hooks

	// ambient tracking slot
	tracker  Tracker
	tracking bool
	depth    int

	// computeds in the middle of a subscribe pass, for cycle detection
	computing mapset.Set[Listener]

	// open auto-dispose scopes, innermost last
	scopes []*Scope

	registry *Registry

	inboxMu sync.Mutex
	inbox   []func()
	wake    chan struct{}
}

type Option func(*Runtime)

// WithLogger sets the logger used for persistence failures and misuse reports.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithHooks installs observation hooks.
func WithHooks(hooks Hooks) Option {
	return func(rt *Runtime) {
		rt.hooks = hooks
	}
}

// WithContext sets the base context handed to store operations.
func WithContext(ctx context.Context) Option {
	return func(rt *Runtime) {
		if ctx != nil {
			rt.ctx = ctx
		}
	}
}

func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		ctx:       context.Background(),
		logger:    slog.New(slog.DiscardHandler),
		computing: mapset.NewThreadUnsafeSet[Listener](),
		registry:  newRegistry(),
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Registry returns the keyed store of shared signals owned by this runtime.
func (rt *Runtime) Registry() *Registry {
	return rt.registry
}

// Enqueue posts fn to run on the runtime goroutine. Safe from any goroutine.
func (rt *Runtime) Enqueue(fn func()) {
	rt.inboxMu.Lock()
	rt.inbox = append(rt.inbox, fn)
	rt.inboxMu.Unlock()

	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

// Flush runs every queued function, including ones queued while flushing,
// and reports how many ran. It must be called from the runtime goroutine.
func (rt *Runtime) Flush() int {
	ran := 0
	for {
		rt.inboxMu.Lock()
		batch := rt.inbox
		rt.inbox = nil
		rt.inboxMu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

// Run drives the runtime until ctx is done, flushing the inbox whenever work
// is enqueued. The goroutine calling Run becomes the runtime goroutine.
func (rt *Runtime) Run(ctx context.Context) error {
	for {
		rt.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rt.wake:
		}
	}
}

// Call runs fn on the runtime goroutine and waits for it to finish. The
// runtime must be driven by Run (or flushed) for Call to make progress.
//
// When ctx ends before fn starts, Call returns ctx.Err() and fn never runs.
// Once fn has started Call waits for it and returns nil, so a nil error
// always means fn ran to completion and a non-nil one means it did not run.
func (rt *Runtime) Call(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var state atomic.Int32
	done := make(chan struct{})
	rt.Enqueue(func() {
		if !state.CompareAndSwap(callQueued, callClaimed) {
			return
		}
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(callQueued, callAbandoned) {
			return ctx.Err()
		}
		<-done
		return nil
	}
}

const (
	callQueued int32 = iota
	callClaimed
	callAbandoned
)

// Await pumps the inbox on the calling goroutine until ch is closed or ctx
// is done. Use it from the runtime goroutine to wait for asynchronous
// results without a separate Run loop.
func (rt *Runtime) Await(ctx context.Context, ch <-chan struct{}) error {
	for {
		rt.Flush()
		select {
		case <-ch:
			return nil
		default:
		}
		select {
		case <-ch:
			return nil
		case <-rt.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
