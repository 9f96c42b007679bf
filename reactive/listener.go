package reactive

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Listener is anything a source can notify: a consumer's rerender, a
// computed's recompute, a watcher's callback.
type Listener interface {
	Notify()
}

// Source is the type-erased side of a signal: something listeners attach to.
type Source interface {
	AddListener(Listener)
	RemoveListener(Listener)
}

// Readable is a source whose value can be read tracked or untracked.
type Readable[T any] interface {
	Source
	Read() T
	Peek() T
}

// Disposer releases whatever registration produced it. Calling it more than
// once is a no-op.
type Disposer func()

type funcListener struct {
	fn func()
}

func (l *funcListener) Notify() {
	l.fn()
}

// NewListener adapts fn into a Listener. Each call returns a distinct
// listener, so the result can be added and removed by identity.
func NewListener(fn func()) Listener {
	return &funcListener{fn: fn}
}

// listenerSet keeps membership in a set and firing order in a slice.
type listenerSet struct {
	members mapset.Set[Listener]
	order   []Listener
}

func newListenerSet() listenerSet {
	return listenerSet{members: mapset.NewThreadUnsafeSet[Listener]()}
}

func (ls *listenerSet) add(l Listener) bool {
	if l == nil || !ls.members.Add(l) {
		return false
	}
	ls.order = append(ls.order, l)
	return true
}

func (ls *listenerSet) remove(l Listener) bool {
	if l == nil || !ls.members.Contains(l) {
		return false
	}
	ls.members.Remove(l)
	if i := slices.Index(ls.order, l); i >= 0 {
		ls.order = slices.Delete(ls.order, i, i+1)
	}
	return true
}

func (ls *listenerSet) contains(l Listener) bool {
	return ls.members.Contains(l)
}

// snapshot copies the listeners so a notification pass tolerates
// listeners adding or removing themselves mid-iteration.
func (ls *listenerSet) snapshot() []Listener {
	return slices.Clone(ls.order)
}

func (ls *listenerSet) len() int {
	return len(ls.order)
}

func (ls *listenerSet) clear() {
	ls.members.Clear()
	ls.order = nil
}
