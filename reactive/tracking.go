package reactive

// Tracker is the ambient pair a tracked region installs: the listener every
// read subscribes, and a callback told about each source that was read.
type Tracker struct {
	Listener    Listener
	OnSubscribe func(Source)
}

// StartTracking overwrites the ambient slot. Callers that may run nested
// inside another tracked region must save Current first and Restore it after.
func (rt *Runtime) StartTracking(t Tracker) {
	rt.tracker = t
	rt.tracking = true
}

// StopTracking clears the ambient slot.
func (rt *Runtime) StopTracking() {
	rt.tracker = Tracker{}
	rt.tracking = false
}

// Current returns the active pair, if any.
func (rt *Runtime) Current() (Tracker, bool) {
	return rt.tracker, rt.tracking
}

// Restore puts back a pair captured with Current, or stops tracking when
// nothing was active.
func (rt *Runtime) Restore(prev Tracker, ok bool) {
	if ok {
		rt.StartTracking(prev)
		return
	}
	rt.StopTracking()
}

// Track runs fn with t installed and restores the enclosing pair afterwards,
// even if fn panics. fn must not block or hand work to other goroutines that
// read signals: the slot belongs to this runtime, not to the call.
func (rt *Runtime) Track(t Tracker, fn func()) {
	prev, ok := rt.Current()
	rt.StartTracking(t)
	rt.depth++
	defer func() {
		rt.depth--
		rt.Restore(prev, ok)
	}()
	fn()
}

// Untracked runs fn with the ambient slot cleared.
func (rt *Runtime) Untracked(fn func()) {
	prev, ok := rt.Current()
	rt.StopTracking()
	defer rt.Restore(prev, ok)
	fn()
}

// Depth reports how many Track regions are currently nested.
func (rt *Runtime) Depth() int {
	return rt.depth
}

// observe registers src with the active tracker.
func (rt *Runtime) observe(src Source) {
	if !rt.tracking || rt.tracker.Listener == nil {
		return
	}
	src.AddListener(rt.tracker.Listener)
	if rt.tracker.OnSubscribe != nil {
		rt.tracker.OnSubscribe(src)
	}
}
