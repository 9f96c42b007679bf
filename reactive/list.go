package reactive

import (
	"reflect"
	"slices"
)

// ListSignal is a signal over a slice. Mutations notify even when the slice
// header is unchanged; projections are tracked reads that return fresh
// slices the caller may keep.
type ListSignal[T any] struct {
	*Signal[[]T]
}

// Page is one window of a paginated list. Page numbers start at 1.
type Page[T any] struct {
	Items []T
	Page  int
	Size  int
	Total int
	Pages int
}

func NewList[T any](rt *Runtime, initial []T, opts ...SignalOption[[]T]) *ListSignal[T] {
	return &ListSignal[T]{Signal: New(rt, append([]T{}, initial...), opts...)}
}

// Append adds items to the end of the list.
func (l *ListSignal[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	l.ForceSet(slices.Concat(l.value, items))
}

// Remove deletes the first element reflect.DeepEqual to item. It notifies
// only when something was removed. A WithEquals option compares whole lists
// and is not consulted here; use RemoveFunc for a custom match.
func (l *ListSignal[T]) Remove(item T) bool {
	i := slices.IndexFunc(l.value, func(v T) bool {
		return reflect.DeepEqual(v, item)
	})
	if i < 0 {
		return false
	}
	l.ForceSet(slices.Delete(slices.Clone(l.value), i, i+1))
	return true
}

// RemoveFunc deletes every element matching pred and reports how many went.
func (l *ListSignal[T]) RemoveFunc(pred func(T) bool) int {
	next := slices.DeleteFunc(slices.Clone(l.value), pred)
	removed := len(l.value) - len(next)
	if removed == 0 {
		return 0
	}
	l.ForceSet(next)
	return removed
}

// Clear empties the list and always notifies.
func (l *ListSignal[T]) Clear() {
	l.ForceSet([]T{})
}

// SortInPlace reorders the list with cmp and notifies.
func (l *ListSignal[T]) SortInPlace(cmp func(a, b T) int) {
	next := slices.Clone(l.value)
	slices.SortStableFunc(next, cmp)
	l.ForceSet(next)
}

// Items returns a copy of the list.
func (l *ListSignal[T]) Items() []T {
	return slices.Clone(l.Read())
}

func (l *ListSignal[T]) Len() int {
	return len(l.Read())
}

func (l *ListSignal[T]) At(i int) (T, bool) {
	items := l.Read()
	if i < 0 || i >= len(items) {
		var zero T
		return zero, false
	}
	return items[i], true
}

// Sorted returns a sorted copy, leaving the list untouched.
func (l *ListSignal[T]) Sorted(cmp func(a, b T) int) []T {
	out := slices.Clone(l.Read())
	slices.SortStableFunc(out, cmp)
	return out
}

// Search returns the elements matching pred, in list order.
func (l *ListSignal[T]) Search(pred func(T) bool) []T {
	var out []T
	for _, v := range l.Read() {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Paginate returns page number page (from 1) of size elements. A size of
// zero or less yields the whole list as a single page.
func (l *ListSignal[T]) Paginate(page, size int) Page[T] {
	items := l.Read()
	total := len(items)
	if size <= 0 {
		return Page[T]{Items: slices.Clone(items), Page: 1, Size: total, Total: total, Pages: 1}
	}
	if page < 1 {
		page = 1
	}
	pages := (total + size - 1) / size
	p := Page[T]{Page: page, Size: size, Total: total, Pages: pages}
	start := (page - 1) * size
	if start >= total {
		p.Items = []T{}
		return p
	}
	end := min(start+size, total)
	p.Items = slices.Clone(items[start:end])
	return p
}
