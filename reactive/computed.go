package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Computed is a read-only signal derived from fn. Every time a source it
// read last time changes, it drops all of its subscriptions, runs fn again
// under tracking and keeps exactly the sources that run touched. Downstream
// listeners only hear about it when the derived value actually changes.
type Computed[T any] struct {
	rt       *Runtime
	fn       func() T
	sig      *Signal[T]
	sources  mapset.Set[Source]
	disposed bool
}

// NewComputed creates the computed and runs fn once, tracked, to seed its
// value and capture its sources.
func NewComputed[T any](rt *Runtime, fn func() T, opts ...SignalOption[T]) *Computed[T] {
	var zero T
	c := &Computed[T]{
		rt:      rt,
		fn:      fn,
		sig:     New(rt, zero, opts...),
		sources: mapset.NewThreadUnsafeSet[Source](),
	}
	c.run(true)
	return c
}

func (c *Computed[T]) Read() T {
	c.rt.observe(c)
	return c.sig.value
}

func (c *Computed[T]) Peek() T {
	return c.sig.value
}

func (c *Computed[T]) AddListener(l Listener) {
	c.sig.AddListener(l)
}

func (c *Computed[T]) RemoveListener(l Listener) {
	c.sig.RemoveListener(l)
}

func (c *Computed[T]) Listeners() int {
	return c.sig.Listeners()
}

// Sources returns the sources read by the most recent run.
func (c *Computed[T]) Sources() []Source {
	return c.sources.ToSlice()
}

// DependsOn reports whether src was read by the most recent run.
func (c *Computed[T]) DependsOn(src Source) bool {
	return c.sources.Contains(src)
}

func (c *Computed[T]) Label() string {
	return c.sig.label
}

// Notify is called by a source that changed.
func (c *Computed[T]) Notify() {
	if c.disposed {
		return
	}
	c.run(false)
}

// Dispose unsubscribes from every source and drops downstream listeners.
func (c *Computed[T]) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.release()
	c.sig.Dispose()
}

func (c *Computed[T]) run(initial bool) {
	if c.rt.computing.Contains(c) {
		err := &CircularDependencyError{Label: c.sig.label}
		c.rt.logger.Error("computed re-entered while recomputing", "label", c.sig.label, "err", err)
		panic(err)
	}
	c.rt.computing.Add(c)
	defer c.rt.computing.Remove(c)

	c.release()

	var next T
	c.rt.Track(Tracker{Listener: c, OnSubscribe: c.addSource}, func() {
		next = c.fn()
	})
	c.rt.hooks.recompute()

	if initial {
		c.sig.value = next
		return
	}
	c.sig.Set(next)
}

func (c *Computed[T]) addSource(src Source) {
	c.sources.Add(src)
}

func (c *Computed[T]) release() {
	c.sources.Each(func(src Source) bool {
		src.RemoveListener(c)
		return false
	})
	c.sources.Clear()
}
