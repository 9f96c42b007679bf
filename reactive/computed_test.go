package reactive_test

import (
	"fmt"
	"testing"

	"github.com/delaneyj/trackstate/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	fn()
	return nil
}

func TestComputedDoubled(t *testing.T) {
	rt := reactive.NewRuntime()
	count := reactive.New(rt, 0)
	runs := 0
	doubled := reactive.NewComputed(rt, func() int {
		runs++
		return count.Read() * 2
	})

	assert.Equal(t, 0, doubled.Peek())
	assert.Equal(t, 1, runs)

	count.Set(3)
	assert.Equal(t, 6, doubled.Peek())
	assert.Equal(t, 2, runs)

	// same value, no recompute
	count.Set(3)
	assert.Equal(t, 2, runs)
}

/*
	cond   a   b
	   \   |  /
	      c
*/
func TestComputedConditionalDependencies(t *testing.T) {
	rt := reactive.NewRuntime()
	cond := reactive.New(rt, true)
	a := reactive.New(rt, "a1")
	b := reactive.New(rt, "b1")
	runs := 0
	c := reactive.NewComputed(rt, func() string {
		runs++
		if cond.Read() {
			return a.Read()
		}
		return b.Read()
	})
	require.Equal(t, "a1", c.Peek())
	assert.True(t, c.DependsOn(a))
	assert.False(t, c.DependsOn(b))

	b.Set("b2")
	assert.Equal(t, 1, runs, "b is not read while cond is true")

	cond.Set(false)
	assert.Equal(t, 2, runs)
	assert.Equal(t, "b2", c.Peek())
	assert.False(t, c.DependsOn(a))
	assert.True(t, c.DependsOn(b))
	assert.Equal(t, 0, a.Listeners(), "flipping cond rewires away from a")

	a.Set("a2")
	assert.Equal(t, 2, runs, "a is not read while cond is false")

	b.Set("b3")
	assert.Equal(t, 3, runs)
	assert.Equal(t, "b3", c.Peek())

	cond.Set(true)
	assert.Equal(t, 4, runs)
	assert.Equal(t, "a2", c.Peek())
	assert.Len(t, c.Sources(), 2)
}

/*
	a
	|
	b
	|
	c
*/
func TestComputedChain(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	b := reactive.NewComputed(rt, func() int { return a.Read() + 1 })
	c := reactive.NewComputed(rt, func() string { return fmt.Sprintf("c: %d", b.Read()) })

	assert.Equal(t, "c: 2", c.Peek())
	a.Set(10)
	assert.Equal(t, "c: 11", c.Peek())
}

// an upstream change that leaves the derived value alone stops there
func TestComputedCollapsesRedundantChanges(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 2)
	parity := reactive.NewComputed(rt, func() bool { return a.Read()%2 == 0 })
	downstream := 0
	label := reactive.NewComputed(rt, func() string {
		downstream++
		if parity.Read() {
			return "even"
		}
		return "odd"
	})

	a.Set(4)
	a.Set(6)
	assert.Equal(t, 1, downstream)
	assert.Equal(t, "even", label.Peek())

	a.Set(7)
	assert.Equal(t, 2, downstream)
	assert.Equal(t, "odd", label.Peek())
}

func TestComputedLazyCycleIsDetected(t *testing.T) {
	rt := reactive.NewRuntime()
	flag := reactive.New(rt, false)

	var a *reactive.Computed[int]
	b := reactive.NewComputed(rt, func() int {
		if flag.Read() {
			return a.Read() + 1
		}
		return 0
	}, reactive.WithLabel[int]("b"))
	a = reactive.NewComputed(rt, func() int {
		return b.Read() + 1
	}, reactive.WithLabel[int]("a"))
	require.Equal(t, 1, a.Peek())

	err := recoverError(func() { flag.Set(true) })
	require.Error(t, err)
	assert.ErrorIs(t, err, reactive.ErrCircularDependency)

	var cerr *reactive.CircularDependencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "b", cerr.Label)
	assert.Equal(t, 0, rt.Depth(), "tracking is unwound after the panic")
	_, tracking := rt.Current()
	assert.False(t, tracking)
}

// a computed that reads itself fails as soon as its value changes
func TestComputedSelfDependency(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	var self *reactive.Computed[int]
	self = reactive.NewComputed(rt, func() int {
		v := a.Read()
		if self != nil {
			v += self.Read()
		}
		return v
	})

	require.Equal(t, 1, self.Peek())

	// the pass after construction reads self, changes, and notifies itself
	err := recoverError(func() { a.Set(2) })
	assert.ErrorIs(t, err, reactive.ErrCircularDependency)
}

// a computed nested inside a tracked region leaves the outer collection intact
func TestComputedInsideTrackedRegion(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	b := reactive.New(rt, 2)
	outer, _ := counter()

	var seen []reactive.Source
	rt.Track(reactive.Tracker{Listener: outer, OnSubscribe: func(s reactive.Source) { seen = append(seen, s) }}, func() {
		a.Read()
		c := reactive.NewComputed(rt, func() int { return b.Read() * 10 })
		assert.Equal(t, 20, c.Peek())
		b.Peek()
	})

	assert.Equal(t, []reactive.Source{a}, seen)
	assert.Equal(t, 1, b.Listeners(), "only the computed listens to b")
}

func TestComputedDispose(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	runs := 0
	c := reactive.NewComputed(rt, func() int {
		runs++
		return a.Read()
	})
	l, calls := counter()
	c.AddListener(l)

	c.Dispose()
	c.Dispose()
	assert.Equal(t, 0, a.Listeners())
	assert.Equal(t, 0, c.Listeners())

	a.Set(2)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, *calls)
	assert.Equal(t, 1, c.Peek())
}

/*
	  a
	 / \
	b   c
	 \ /
	  d
*/
func TestComputedDiamond(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	b := reactive.NewComputed(rt, func() int { return a.Read() * 2 })
	c := reactive.NewComputed(rt, func() int { return a.Read() * 3 })
	d := reactive.NewComputed(rt, func() int { return b.Read() + c.Read() })

	assert.Equal(t, 5, d.Peek())
	a.Set(2)
	assert.Equal(t, 10, d.Peek())
}

func TestRecomputeHook(t *testing.T) {
	recomputes := 0
	rt := reactive.NewRuntime(reactive.WithHooks(reactive.Hooks{
		OnRecompute: func() { recomputes++ },
	}))
	a := reactive.New(rt, 1)
	reactive.NewComputed(rt, func() int { return a.Read() })
	a.Set(2)
	assert.Equal(t, 2, recomputes)
}
