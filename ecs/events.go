package ecs

import "slices"

// Subscription identifies a registered listener so it can be removed later.
type Subscription uint64

type observer[E any] struct {
	id Subscription
	fn func(E)
}

// observers is an ordered listener list. Dispatch runs every listener even
// when an earlier one panics.
type observers[E any] struct {
	next    Subscription
	entries []observer[E]
}

func (o *observers[E]) subscribe(fn func(E)) Subscription {
	o.next++
	o.entries = append(o.entries, observer[E]{id: o.next, fn: fn})
	return o.next
}

func (o *observers[E]) unsubscribe(id Subscription) bool {
	idx := slices.IndexFunc(o.entries, func(ob observer[E]) bool { return ob.id == id })
	if idx < 0 {
		return false
	}
	o.entries = slices.Delete(o.entries, idx, idx+1)
	return true
}

func (o *observers[E]) len() int {
	return len(o.entries)
}

// notify calls every listener registered when notify started. onPanic is
// called for each listener that panicked.
func (o *observers[E]) notify(event E, onPanic func(Subscription, any)) {
	snapshot := slices.Clone(o.entries)
	for _, ob := range snapshot {
		callIsolated(ob, event, onPanic)
	}
}

func callIsolated[E any](ob observer[E], event E, onPanic func(Subscription, any)) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(ob.id, r)
		}
	}()
	ob.fn(event)
}
