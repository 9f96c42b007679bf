package reactive_test

import (
	"testing"

	"github.com/delaneyj/trackstate/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() (reactive.Listener, *int) {
	n := new(int)
	return reactive.NewListener(func() { *n++ }), n
}

// peek never registers a dependency, however often it is called
func TestPeekDoesNotTrack(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	l, calls := counter()

	var sum int
	rt.Track(reactive.Tracker{Listener: l}, func() {
		for i := 0; i < 10; i++ {
			sum += a.Peek()
		}
	})
	assert.Equal(t, 10, sum)
	assert.Equal(t, 0, a.Listeners())

	a.Set(2)
	assert.Equal(t, 0, *calls)
}

// read registers the tracked listener exactly once
func TestReadTracks(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	l, calls := counter()

	var seen []reactive.Source
	rt.Track(reactive.Tracker{Listener: l, OnSubscribe: func(s reactive.Source) { seen = append(seen, s) }}, func() {
		a.Read()
		a.Read()
	})
	assert.Equal(t, 1, a.Listeners())
	assert.Len(t, seen, 2)

	a.Set(2)
	assert.Equal(t, 1, *calls)
}

// read outside a tracked region registers nothing
func TestReadOutsideTracking(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, "x")
	assert.Equal(t, "x", a.Read())
	assert.Equal(t, 0, a.Listeners())
}

func TestSetIsEqualityGated(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 5)
	l1, calls1 := counter()
	l2, calls2 := counter()
	a.AddListener(l1)
	a.AddListener(l2)

	a.Set(5)
	assert.Equal(t, 0, *calls1)
	assert.Equal(t, 0, *calls2)

	a.Set(6)
	assert.Equal(t, 1, *calls1)
	assert.Equal(t, 1, *calls2)
}

func TestSetUsesDeepEquality(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, map[string]int{"a": 1})
	l, calls := counter()
	a.AddListener(l)

	a.Set(map[string]int{"a": 1})
	assert.Equal(t, 0, *calls)
	a.Set(map[string]int{"a": 2})
	assert.Equal(t, 1, *calls)
}

func TestWithEquals(t *testing.T) {
	type point struct{ X, Y int }
	rt := reactive.NewRuntime()
	byX := reactive.WithEquals(func(a, b point) bool { return a.X == b.X })
	p := reactive.New(rt, point{1, 1}, byX)
	l, calls := counter()
	p.AddListener(l)

	p.Set(point{1, 9})
	assert.Equal(t, 0, *calls)
	assert.Equal(t, point{1, 1}, p.Peek())

	p.Set(point{2, 9})
	assert.Equal(t, 1, *calls)
}

func TestForceSetAlwaysNotifies(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	l, calls := counter()
	a.AddListener(l)

	a.ForceSet(1)
	a.ForceSet(1)
	assert.Equal(t, 2, *calls)
}

func TestUpdate(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	a.Update(func(v int) int { return v + 41 })
	assert.Equal(t, 42, a.Peek())
}

// listeners fire in subscription order
func TestNotifyOrder(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 0)
	var order []int
	for i := 0; i < 5; i++ {
		a.AddListener(reactive.NewListener(func() { order = append(order, i) }))
	}
	a.Set(1)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

// a listener removing itself and adding another mid-notify does not break
// the pass; the added listener waits for the next one
func TestNotifyIteratesSnapshot(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 0)
	late, lateCalls := counter()

	var self reactive.Listener
	selfCalls := 0
	self = reactive.NewListener(func() {
		selfCalls++
		a.RemoveListener(self)
		a.AddListener(late)
	})
	other, otherCalls := counter()
	a.AddListener(self)
	a.AddListener(other)

	a.Set(1)
	assert.Equal(t, 1, selfCalls)
	assert.Equal(t, 1, *otherCalls)
	assert.Equal(t, 0, *lateCalls)

	a.Set(2)
	assert.Equal(t, 1, selfCalls)
	assert.Equal(t, 2, *otherCalls)
	assert.Equal(t, 1, *lateCalls)
}

func TestAddListenerDeduplicates(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 0)
	l, calls := counter()
	a.AddListener(l)
	a.AddListener(l)
	require.Equal(t, 1, a.Listeners())

	a.Set(1)
	assert.Equal(t, 1, *calls)
	assert.True(t, a.HasListener(l))
}

func TestDisposeIsIdempotent(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 0)
	l, calls := counter()
	a.AddListener(l)

	a.Dispose()
	a.Dispose()
	a.Set(1)
	assert.Equal(t, 0, *calls)
	assert.Equal(t, 1, a.Peek())
}

func TestNotifyHook(t *testing.T) {
	var notified []int
	rt := reactive.NewRuntime(reactive.WithHooks(reactive.Hooks{
		OnNotify: func(n int) { notified = append(notified, n) },
	}))
	a := reactive.New(rt, 0)
	l, _ := counter()
	a.AddListener(l)

	a.Set(1)
	a.Set(1)
	assert.Equal(t, []int{1}, notified)
}
