// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package notify

import (
	"sync"

	"gopkg.in/tomb.v2"

	"github.com/juju/jujugui/core/delta"
)

// KindWatcher turns bus notifications for a set of kinds into a
// coalescing channel, for consumers that run outside the model's thread
// of control.
type KindWatcher struct {
	tomb    tomb.Tomb
	changes chan struct{}
	// We can't send down a closed channel, so protect the sending
	// with a mutex and bool.
	closed bool
	mu     sync.Mutex
}

// NewKindWatcher subscribes to bus for each of kinds. The initial event is
// sent immediately so that consumers render the current state.
func NewKindWatcher(bus *Bus, kinds ...delta.Kind) *KindWatcher {
	w := &KindWatcher{
		changes: make(chan struct{}, 1),
	}
	// Since changes is buffered, this doesn't block.
	w.changes <- struct{}{}

	unsubs := make([]func(), len(kinds))
	for i, kind := range kinds {
		unsubs[i] = bus.Subscribe(kind, w.onChange)
	}
	w.tomb.Go(func() error {
		<-w.tomb.Dying()
		for _, unsub := range unsubs {
			unsub()
		}
		return nil
	})
	return w
}

// Changes returns the channel on which a value is sent whenever any
// watched kind has changed since the last receive.
func (w *KindWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Kill is part of the worker.Worker interface.
func (w *KindWatcher) Kill() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	// The watcher must be dying or dead before we close the channel.
	// Otherwise readers could fail, but the watcher's tomb would indicate
	// "still alive".
	w.tomb.Kill(nil)
	w.closed = true
	close(w.changes)
}

// Wait is part of the worker.Worker interface.
func (w *KindWatcher) Wait() error {
	return w.tomb.Wait()
}

// Stop kills the watcher and waits for it to finish.
func (w *KindWatcher) Stop() error {
	w.Kill()
	return w.Wait()
}

func (w *KindWatcher) onChange(kind delta.Kind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	// Sending under the mutex means nobody can close the channel while
	// we are sending.
	select {
	case w.changes <- struct{}{}:
	default:
		// A change is already pending; the consumer will see it.
	}
}
