package reactive

type watcher[T any] struct {
	src      Readable[T]
	cb       func(T)
	disposed bool
}

func (w *watcher[T]) Notify() {
	if w.disposed {
		return
	}
	w.cb(w.src.Peek())
}

func (w *watcher[T]) dispose() {
	if w.disposed {
		return
	}
	w.disposed = true
	w.src.RemoveListener(w)
}

// Watch calls cb with the latest value every time src notifies. It never
// takes part in dependency tracking. The returned disposer unsubscribes; if
// an auto-dispose scope is open on rt it is registered there as well.
func Watch[T any](rt *Runtime, src Readable[T], cb func(T)) Disposer {
	d := subscribe(src, cb)
	rt.ScopeRegister(d)
	return d
}

// WatchIn is Watch bound to an explicit scope handle instead of the
// runtime's open scope.
func WatchIn[T any](scope *Scope, src Readable[T], cb func(T)) Disposer {
	d := subscribe(src, cb)
	scope.Add(d)
	return d
}

func subscribe[T any](src Readable[T], cb func(T)) Disposer {
	w := &watcher[T]{src: src, cb: cb}
	src.AddListener(w)
	return w.dispose
}
