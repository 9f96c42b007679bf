package reactive

import "slices"

// Scope collects the disposers created while a component initialises so
// they can all be released when the component is torn down.
type Scope struct {
	disposers []Disposer
	disposed  bool
}

func NewScope() *Scope {
	return &Scope{}
}

// Add registers d. Adding to a scope that was already disposed runs d
// immediately.
func (s *Scope) Add(d Disposer) {
	if d == nil {
		return
	}
	if s.disposed {
		d()
		return
	}
	s.disposers = append(s.disposers, d)
}

func (s *Scope) Len() int {
	return len(s.disposers)
}

// Disposers returns a copy of the registered disposers.
func (s *Scope) Disposers() []Disposer {
	return slices.Clone(s.disposers)
}

// Dispose runs every disposer in reverse registration order, once.
func (s *Scope) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	for i := len(s.disposers) - 1; i >= 0; i-- {
		s.disposers[i]()
	}
	s.disposers = nil
}

// ScopeBegin opens a fresh auto-dispose scope. A scope that was already open
// is set aside and becomes current again on the matching ScopeEnd.
func (rt *Runtime) ScopeBegin() {
	rt.scopes = append(rt.scopes, NewScope())
}

// ScopeRegister appends d to the open scope and reports whether one was
// open. Outside any scope it does nothing.
func (rt *Runtime) ScopeRegister(d Disposer) bool {
	if len(rt.scopes) == 0 {
		return false
	}
	rt.scopes[len(rt.scopes)-1].Add(d)
	return true
}

// ScopeEnd closes the innermost scope and returns what it collected.
func (rt *Runtime) ScopeEnd() []Disposer {
	s := rt.popScope()
	if s == nil {
		return nil
	}
	return s.disposers
}

// Mount is the lifecycle host for one component: it gives init its own
// scope, captures every Watch made while init runs, and returns the scope to
// dispose at teardown. init may keep the handle and pass it to WatchIn for
// watchers created later, after the runtime slot has closed.
func (rt *Runtime) Mount(init func(*Scope)) *Scope {
	s := NewScope()
	rt.scopes = append(rt.scopes, s)
	defer rt.popScope()
	init(s)
	return s
}

func (rt *Runtime) popScope() *Scope {
	n := len(rt.scopes)
	if n == 0 {
		return nil
	}
	s := rt.scopes[n-1]
	rt.scopes[n-1] = nil
	rt.scopes = rt.scopes[:n-1]
	return s
}
