package reactive

import (
	"reflect"
	"slices"
	"sync"
)

// Key names a shared signal together with the type it holds.
type Key[T any] struct {
	name string
}

func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) Name() string {
	return k.name
}

type registryEntry struct {
	typ    reflect.Type
	signal any
}

// Registry maps key names to the one signal created for each. Entries live
// as long as the registry unless Reset is called.
type Registry struct {
	mu      sync.Mutex
	entries map[string]registryEntry
}

func newRegistry() *Registry {
	return &Registry{entries: map[string]registryEntry{}}
}

// Keys returns the registered names, sorted.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset forgets every entry. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

// Shared returns the signal registered under key, creating it with initial
// the first time. Later calls ignore initial. A name first registered with a
// different value type yields a *TypeMismatchError.
func Shared[T any](rt *Runtime, key Key[T], initial T, opts ...SignalOption[T]) (*Signal[T], error) {
	r := rt.registry
	want := reflect.TypeFor[T]()

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key.name]; ok {
		if e.typ != want {
			return nil, &TypeMismatchError{Key: key.name, Want: want, Have: e.typ}
		}
		return e.signal.(*Signal[T]), nil
	}

	opts = append([]SignalOption[T]{WithLabel[T](key.name)}, opts...)
	s := New(rt, initial, opts...)
	r.entries[key.name] = registryEntry{typ: want, signal: s}
	return s, nil
}

// MustShared is Shared for call sites where a type mismatch is a bug.
func MustShared[T any](rt *Runtime, key Key[T], initial T, opts ...SignalOption[T]) *Signal[T] {
	s, err := Shared(rt, key, initial, opts...)
	if err != nil {
		panic(err)
	}
	return s
}
