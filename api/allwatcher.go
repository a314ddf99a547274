// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"context"

	"github.com/juju/errors"

	"github.com/juju/jujugui/api/params"
	"github.com/juju/jujugui/core/delta"
)

// AllWatcher streams the model's deltas. The first call to Next returns
// the full state of the model; later calls block until something
// changes.
type AllWatcher struct {
	caller APICaller
	id     string
}

// NewAllWatcher returns an AllWatcher instance which interacts with a
// watcher created by the WatchAll API call.
func NewAllWatcher(caller APICaller, id string) *AllWatcher {
	return &AllWatcher{
		caller: caller,
		id:     id,
	}
}

// Next returns the next batch of deltas, converted to the model's
// records.
func (watcher *AllWatcher) Next(ctx context.Context) ([]delta.Delta, error) {
	var info params.AllWatcherNextResults
	err := watcher.caller.APICall(
		ctx,
		"AllWatcher",
		watcher.caller.BestFacadeVersion("AllWatcher"),
		watcher.id,
		"Next",
		nil, &info,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return ToDeltas(info.Deltas), nil
}

// Stop shuts down the watcher on the controller.
func (watcher *AllWatcher) Stop(ctx context.Context) error {
	return errors.Trace(watcher.caller.APICall(
		ctx,
		"AllWatcher",
		watcher.caller.BestFacadeVersion("AllWatcher"),
		watcher.id,
		"Stop",
		nil, nil,
	))
}
