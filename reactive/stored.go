package reactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/delaneyj/trackstate/pkg/store"
)

// Pending tracks one fire-and-forget save. The in-memory value is already
// updated when a Pending is handed out; the store may not be yet.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the save attempt has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the outcome of the save, or nil while it is still running.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the save finished or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stored is a signal backed by a store. It loads any saved value in the
// background when created and saves every write without waiting for it.
type Stored[T any] struct {
	*Signal[T]

	store  store.Store
	key    string
	loaded chan struct{}
	// set once a local write happened; a late load then loses
	written bool
	last    *Pending
}

func NewStored[T any](rt *Runtime, st store.Store, key string, def T, opts ...SignalOption[T]) *Stored[T] {
	opts = append([]SignalOption[T]{WithLabel[T](key)}, opts...)
	s := &Stored[T]{
		Signal: New(rt, def, opts...),
		store:  st,
		key:    key,
		loaded: make(chan struct{}),
	}
	go s.load()
	return s
}

func (s *Stored[T]) Key() string {
	return s.key
}

// Loaded is closed after the initial load has been applied on the runtime
// goroutine, whatever its outcome.
func (s *Stored[T]) Loaded() <-chan struct{} {
	return s.loaded
}

// WaitLoaded pumps the runtime inbox until the initial load was applied. It
// must be called from the runtime goroutine.
func (s *Stored[T]) WaitLoaded(ctx context.Context) error {
	return s.rt.Await(ctx, s.loaded)
}

// Set updates the value in memory and starts persisting it.
func (s *Stored[T]) Set(v T) *Pending {
	s.written = true
	s.Signal.Set(v)
	return s.persist(v)
}

// ForceSet is Set without the equality gate.
func (s *Stored[T]) ForceSet(v T) *Pending {
	s.written = true
	s.Signal.ForceSet(v)
	return s.persist(v)
}

func (s *Stored[T]) Update(fn func(T) T) *Pending {
	return s.Set(fn(s.value))
}

func (s *Stored[T]) load() {
	rt := s.rt
	data, err := s.store.Load(rt.ctx, s.key)

	var v T
	found := err == nil
	if found {
		if uerr := json.Unmarshal(data, &v); uerr != nil {
			found = false
			err = fmt.Errorf("decode %q: %w", s.key, uerr)
		}
	}

	rt.Enqueue(func() {
		defer close(s.loaded)
		rt.hooks.load(s.key, found, err)

		switch {
		case errors.Is(err, store.ErrNotFound):
			return
		case err != nil:
			rt.logger.Warn("stored signal load failed", "key", s.key, "err", err)
			return
		case s.written:
			rt.logger.Debug("stored signal written before load finished, keeping local value", "key", s.key)
			return
		}
		// the plain signal write skips persisting what was just loaded
		s.Signal.Set(v)
	})
}

func (s *Stored[T]) persist(v T) *Pending {
	rt := s.rt
	p := newPending()

	data, err := json.Marshal(v)
	if err != nil {
		err = fmt.Errorf("encode %q: %w", s.key, err)
		rt.logger.Warn("stored signal save failed", "key", s.key, "err", err)
		rt.hooks.persist(s.key, 0, err)
		p.finish(err)
		return p
	}

	prev := s.last
	s.last = p
	go func() {
		if prev != nil {
			<-prev.done
		}
		start := time.Now()
		err := s.store.Save(rt.ctx, s.key, data)
		d := time.Since(start)
		if err != nil {
			err = fmt.Errorf("save %q: %w", s.key, err)
			rt.logger.Warn("stored signal save failed", "key", s.key, "err", err)
		}
		rt.hooks.persist(s.key, d, err)
		p.finish(err)
	}()
	return p
}
