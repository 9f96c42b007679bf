// Package reactive is a dependency-tracking state engine.
//
// A Signal read inside a tracked region (a Consumer render or a Computed
// run) subscribes that region; writing a different value later notifies
// exactly the regions that read it. Nothing has to be wired by hand.
//
//	rt := reactive.NewRuntime()
//	count := reactive.New(rt, 0)
//	doubled := reactive.NewComputed(rt, func() int { return count.Read() * 2 })
//
//	view := reactive.NewConsumer(rt, func() { /* schedule a rerender */ })
//	view.Render(func() { fmt.Println(doubled.Read()) })
//
//	count.Set(3) // doubled recomputes, view is told to rerender
//
// All state lives on the Runtime, which must be driven from one goroutine.
// Results of background work, such as the initial load of a Stored signal,
// are delivered through Runtime.Enqueue and applied by Flush or Run.
package reactive
