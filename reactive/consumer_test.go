package reactive_test

import (
	"testing"

	"github.com/delaneyj/trackstate/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a consumer rendered twice ends up subscribed to exactly the second render's reads
func TestConsumerResubscribesEachRender(t *testing.T) {
	rt := reactive.NewRuntime()
	showA := reactive.New(rt, true)
	a := reactive.New(rt, 1)
	b := reactive.New(rt, 2)

	rerenders := 0
	view := reactive.NewConsumer(rt, func() { rerenders++ })
	render := func() int {
		if showA.Read() {
			return a.Read()
		}
		return b.Read()
	}

	assert.Equal(t, 1, reactive.Bind(view, render))
	assert.True(t, view.IsSubscribed(a))
	assert.False(t, view.IsSubscribed(b))

	showA.Set(false)
	require.Equal(t, 1, rerenders)
	assert.Equal(t, 2, reactive.Bind(view, render))

	assert.Len(t, view.Subscribed(), 2)
	assert.False(t, view.IsSubscribed(a))
	assert.True(t, view.IsSubscribed(b))
	assert.False(t, a.HasListener(view), "render-1-only signal keeps no listener for the view")

	a.Set(100)
	assert.Equal(t, 1, rerenders)
	b.Set(3)
	assert.Equal(t, 2, rerenders)
	assert.Equal(t, 2, view.Renders())
}

// a consumer that rerenders from its own callback keeps a stable subscription set
func TestConsumerRerenderLoop(t *testing.T) {
	rt := reactive.NewRuntime()
	count := reactive.New(rt, 0)
	var out []int

	var view *reactive.Consumer
	render := func() { out = append(out, count.Read()) }
	view = reactive.NewConsumer(rt, func() { view.Render(render) })
	view.Render(render)

	count.Set(1)
	count.Set(2)
	assert.Equal(t, []int{0, 1, 2}, out)
	assert.Equal(t, 1, count.Listeners())
}

// nested consumers restore the outer collection
func TestConsumerNesting(t *testing.T) {
	rt := reactive.NewRuntime()
	outerSig := reactive.New(rt, "outer")
	innerSig := reactive.New(rt, "inner")
	tail := reactive.New(rt, "tail")

	outer := reactive.NewConsumer(rt, nil)
	inner := reactive.NewConsumer(rt, nil)

	outer.Render(func() {
		outerSig.Read()
		inner.Render(func() {
			innerSig.Read()
		})
		tail.Read()
	})

	assert.True(t, outer.IsSubscribed(outerSig))
	assert.True(t, outer.IsSubscribed(tail))
	assert.False(t, outer.IsSubscribed(innerSig))
	assert.True(t, inner.IsSubscribed(innerSig))
	assert.Len(t, inner.Subscribed(), 1)

	_, tracking := rt.Current()
	assert.False(t, tracking)
}

func TestConsumerReadsComputed(t *testing.T) {
	rt := reactive.NewRuntime()
	count := reactive.New(rt, 1)
	doubled := reactive.NewComputed(rt, func() int { return count.Read() * 2 })

	rerenders := 0
	view := reactive.NewConsumer(rt, func() { rerenders++ })
	assert.Equal(t, 2, reactive.Bind(view, doubled.Read))

	count.Set(2)
	assert.Equal(t, 1, rerenders)
	assert.Equal(t, 4, doubled.Peek())
}

func TestConsumerDispose(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.New(rt, 1)
	rerenders := 0
	view := reactive.NewConsumer(rt, func() { rerenders++ })
	view.Render(func() { a.Read() })

	view.Dispose()
	view.Dispose()
	assert.Equal(t, 0, a.Listeners())
	assert.Empty(t, view.Subscribed())

	a.Set(2)
	assert.Equal(t, 0, rerenders)

	// rendering after teardown does not subscribe again
	assert.Equal(t, 2, reactive.Bind(view, a.Read))
	assert.Equal(t, 0, a.Listeners())
}
