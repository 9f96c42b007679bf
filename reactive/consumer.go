package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Consumer binds a rendering surface to the engine. Each render drops the
// previous subscriptions and collects exactly the sources the render read;
// a later change to any of them calls rerender.
type Consumer struct {
	rt         *Runtime
	rerender   func()
	subscribed mapset.Set[Source]
	renders    int
	disposed   bool
}

func NewConsumer(rt *Runtime, rerender func()) *Consumer {
	return &Consumer{
		rt:         rt,
		rerender:   rerender,
		subscribed: mapset.NewThreadUnsafeSet[Source](),
	}
}

// Notify is called by a source the last render read.
func (c *Consumer) Notify() {
	if c.disposed || c.rerender == nil {
		return
	}
	c.rerender()
}

// Render runs fn as one tracked render.
func (c *Consumer) Render(fn func()) {
	Bind(c, func() struct{} {
		fn()
		return struct{}{}
	})
}

// Bind runs render once as a tracked render of c and returns its result.
// The enclosing tracked region, if any, is restored afterwards. Rendering a
// disposed consumer runs render without tracking.
func Bind[R any](c *Consumer, render func() R) R {
	var out R
	if c.disposed {
		c.rt.Untracked(func() {
			out = render()
		})
		return out
	}

	c.unsubscribeAll()
	c.rt.Track(Tracker{Listener: c, OnSubscribe: c.subscribe}, func() {
		out = render()
	})
	c.renders++
	return out
}

// Subscribed returns the sources read by the last render.
func (c *Consumer) Subscribed() []Source {
	return c.subscribed.ToSlice()
}

// IsSubscribed reports whether the last render read src.
func (c *Consumer) IsSubscribed(src Source) bool {
	return c.subscribed.Contains(src)
}

func (c *Consumer) Renders() int {
	return c.renders
}

// Dispose removes the consumer from every source it is subscribed to.
func (c *Consumer) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.unsubscribeAll()
}

func (c *Consumer) subscribe(src Source) {
	c.subscribed.Add(src)
}

func (c *Consumer) unsubscribeAll() {
	c.subscribed.Each(func(src Source) bool {
		src.RemoveListener(c)
		return false
	})
	c.subscribed.Clear()
}
