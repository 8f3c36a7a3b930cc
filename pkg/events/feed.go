// Package events provides a small typed observer list used to publish
// timer and VMG snapshots to presentation layers.
package events

import "sync"

// Feed delivers values of type T to registered callbacks.
// When replay is on, a new listener immediately receives the last value.
type Feed[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]func(T)
	nextID    uint64
	replay    bool
	last      T
	hasLast   bool
}

// NewFeed creates a Feed. replay controls last-value delivery on Listen.
func NewFeed[T any](replay bool) *Feed[T] {
	return &Feed[T]{
		listeners: make(map[uint64]func(T)),
		replay:    replay,
	}
}

// Listen registers fn and returns a function that removes it.
func (f *Feed[T]) Listen(fn func(T)) func() {
	if fn == nil {
		panic("events: nil listener")
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	send := f.replay && f.hasLast
	last := f.last
	f.mu.Unlock()

	// Outside the lock: fn may call back into the publisher.
	if send {
		fn(last)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Publish calls every listener with v.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	if f.replay {
		f.last = v
		f.hasLast = true
	}
	fns := make([]func(T), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered listeners.
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}
