package reactive

import "reflect"

// Signal is a mutable observable cell. Reads inside a tracked region
// subscribe the region's listener; writes that change the value notify every
// listener once, in subscription order.
type Signal[T any] struct {
	rt        *Runtime
	value     T
	equals    func(a, b T) bool
	label     string
	listeners listenerSet
}

type SignalOption[T any] func(*Signal[T])

// WithEquals replaces the default reflect.DeepEqual comparison used to gate
// notifications.
func WithEquals[T any](eq func(a, b T) bool) SignalOption[T] {
	return func(s *Signal[T]) {
		if eq != nil {
			s.equals = eq
		}
	}
}

// WithLabel names the signal in log lines and errors.
func WithLabel[T any](label string) SignalOption[T] {
	return func(s *Signal[T]) {
		s.label = label
	}
}

// New creates a signal holding initial.
func New[T any](rt *Runtime, initial T, opts ...SignalOption[T]) *Signal[T] {
	s := &Signal[T]{
		rt:        rt,
		value:     initial,
		equals:    deepEquals[T],
		listeners: newListenerSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func deepEquals[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// Read returns the value and subscribes the active tracker, if any.
func (s *Signal[T]) Read() T {
	s.rt.observe(s)
	return s.value
}

// Peek returns the value without subscribing anything.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set stores v and notifies listeners when it differs from the current value.
func (s *Signal[T]) Set(v T) {
	if s.equals(s.value, v) {
		return
	}
	s.value = v
	s.notify()
}

// ForceSet stores v and notifies regardless of equality, for containers
// mutated in place.
func (s *Signal[T]) ForceSet(v T) {
	s.value = v
	s.notify()
}

// Update sets the result of fn applied to the current value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

func (s *Signal[T]) AddListener(l Listener) {
	s.listeners.add(l)
}

func (s *Signal[T]) RemoveListener(l Listener) {
	s.listeners.remove(l)
}

// HasListener reports whether l is currently subscribed.
func (s *Signal[T]) HasListener(l Listener) bool {
	return s.listeners.contains(l)
}

// Listeners returns the number of subscribed listeners.
func (s *Signal[T]) Listeners() int {
	return s.listeners.len()
}

func (s *Signal[T]) Label() string {
	return s.label
}

func (s *Signal[T]) Runtime() *Runtime {
	return s.rt
}

// Dispose drops every listener. The signal stays readable and writable.
func (s *Signal[T]) Dispose() {
	s.listeners.clear()
}

func (s *Signal[T]) notify() {
	subs := s.listeners.snapshot()
	s.rt.hooks.notify(len(subs))
	for _, l := range subs {
		l.Notify()
	}
}
