package events

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryBus is a thread-safe in-process event bus.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[Type][]handlerEntry // "" holds catch-all subscribers
	history  []*Event
	maxHist  int
	nextID   int
}

type handlerEntry struct {
	id      int
	handler Handler
}

// NewInMemoryBus creates an InMemoryBus with a 1000-event history cap.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[Type][]handlerEntry),
		maxHist:  1000,
	}
}

// Publish records ev and invokes matching handlers outside the lock, in
// subscription order. Handler errors are collected; delivery continues.
func (b *InMemoryBus) Publish(ctx context.Context, ev *Event) error {
	b.mu.Lock()
	b.history = append(b.history, ev)
	if len(b.history) > b.maxHist {
		b.history = b.history[len(b.history)-b.maxHist:]
	}

	var targets []Handler
	for _, e := range b.handlers[ev.Type] {
		targets = append(targets, e.handler)
	}
	if ev.Type != "" {
		for _, e := range b.handlers[""] {
			targets = append(targets, e.handler)
		}
	}
	b.mu.Unlock()

	var errs []error
	for _, h := range targets {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish %s: %d handler error(s): %v", ev.Type, len(errs), errs[0])
	}
	return nil
}

// Subscribe registers handler for events of type t ("" for all).
func (b *InMemoryBus) Subscribe(t Type, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[t]
		filtered := entries[:0]
		for _, e := range entries {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(b.handlers, t)
		} else {
			b.handlers[t] = filtered
		}
	}
}

// History returns the most recent limit events in chronological order.
// A limit of zero or less returns the whole retained history.
func (b *InMemoryBus) History(limit int) ([]*Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := 0
	if limit > 0 && len(b.history) > limit {
		start = len(b.history) - limit
	}
	out := make([]*Event, len(b.history)-start)
	copy(out, b.history[start:])
	return out, nil
}
