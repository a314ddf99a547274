// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package notify provides the change notification bus through which views
// learn that entities of a given kind have changed.
package notify

import (
	"sync"

	"github.com/juju/loggo/v2"

	"github.com/juju/jujugui/core/delta"
)

var logger = loggo.GetLogger("jujugui.core.notify")

// Handler is called with the kind that changed.
type Handler func(kind delta.Kind)

type subscription struct {
	id      int
	handler Handler
}

// Bus records change notifications and dispatches them to subscribed
// handlers. Handlers run synchronously, in subscription order, and only
// from Flush. A notification raised while a flush is dispatching is held
// until the next Flush rather than dispatched inline.
type Bus struct {
	mu          sync.Mutex
	nextId      int
	subs        map[delta.Kind][]subscription
	queued      []delta.Kind
	dispatching bool
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[delta.Kind][]subscription),
	}
}

// Notify records that kind changed. Each call results in exactly one
// invocation of every handler subscribed to kind on the next Flush.
func (b *Bus) Notify(kind delta.Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queued = append(b.queued, kind)
}

// Subscribe registers handler for kind. The returned function removes the
// subscription; calling it more than once is harmless.
func (b *Bus) Subscribe(kind delta.Kind, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextId++
	id := b.nextId
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})
	return func() {
		b.unsubscribe(kind, id)
	}
}

func (b *Bus) unsubscribe(kind delta.Kind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A fresh slice is built so that a dispatch in progress keeps
	// iterating over the list it started with.
	var kept []subscription
	for _, sub := range b.subs[kind] {
		if sub.id != id {
			kept = append(kept, sub)
		}
	}
	if len(kept) == 0 {
		delete(b.subs, kind)
		return
	}
	b.subs[kind] = kept
}

// Flush dispatches every notification recorded so far. Calling Flush from
// within a handler does nothing; the notifications raised by handlers are
// dispatched by the following Flush.
func (b *Bus) Flush() {
	b.mu.Lock()
	if b.dispatching {
		b.mu.Unlock()
		return
	}
	queued := b.queued
	b.queued = nil
	handlers := make(map[delta.Kind][]subscription, len(b.subs))
	for kind, subs := range b.subs {
		handlers[kind] = subs
	}
	b.dispatching = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.dispatching = false
		b.mu.Unlock()
	}()

	for _, kind := range queued {
		subs := handlers[kind]
		logger.Tracef("dispatching %s change to %d handler(s)", kind, len(subs))
		for _, sub := range subs {
			sub.handler(kind)
		}
	}
}

// Dispatching reports whether a Flush is running handlers.
func (b *Bus) Dispatching() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dispatching
}

// Pending returns the kinds recorded but not yet dispatched, in the order
// they were notified.
func (b *Bus) Pending() []delta.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]delta.Kind(nil), b.queued...)
}

// DirtySource reports which kinds have changed since it was last cleared.
type DirtySource interface {
	DirtyKinds() []delta.Kind
	ClearDirty()
}

// Commit raises one notification per dirty kind of source, clears the
// dirty marks and flushes the bus. It returns the kinds notified.
func Commit(bus *Bus, source DirtySource) []delta.Kind {
	kinds := source.DirtyKinds()
	for _, kind := range kinds {
		bus.Notify(kind)
	}
	source.ClearDirty()
	bus.Flush()
	return kinds
}
