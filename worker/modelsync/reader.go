// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package modelsync

import (
	"context"

	"github.com/juju/errors"
	"gopkg.in/tomb.v2"

	"github.com/juju/jujugui/core/delta"
)

// DeltaWatcher streams batches of deltas. The first batch holds the
// full state of the model.
type DeltaWatcher interface {
	Next(ctx context.Context) ([]delta.Delta, error)
	Stop(ctx context.Context) error
}

// reader pulls batches from a DeltaWatcher on its own goroutine and
// hands them over in arrival order.
type reader struct {
	tomb    tomb.Tomb
	watcher DeltaWatcher
	logger  Logger
	out     chan []delta.Delta
}

func newReader(watcher DeltaWatcher, logger Logger) *reader {
	r := &reader{
		watcher: watcher,
		logger:  logger,
		out:     make(chan []delta.Delta),
	}
	r.tomb.Go(r.loop)
	return r
}

// Batches returns the channel on which batches are delivered.
func (r *reader) Batches() <-chan []delta.Delta {
	return r.out
}

// Kill is part of the worker.Worker interface.
func (r *reader) Kill() {
	r.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (r *reader) Wait() error {
	return r.tomb.Wait()
}

func (r *reader) loop() error {
	ctx := r.tomb.Context(context.Background())
	defer func() {
		// Next may still be blocked on the controller when dying.
		if err := r.watcher.Stop(context.Background()); err != nil {
			r.logger.Debugf("stopping delta watcher: %v", err)
		}
	}()
	for {
		deltas, err := r.watcher.Next(ctx)
		if err != nil {
			select {
			case <-r.tomb.Dying():
				return tomb.ErrDying
			default:
			}
			return errors.Annotate(err, "reading deltas")
		}
		select {
		case <-r.tomb.Dying():
			return tomb.ErrDying
		case r.out <- deltas:
		}
	}
}
