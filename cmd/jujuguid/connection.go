// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/jujugui/api"
	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/relationindex"
	"github.com/juju/jujugui/internal/config"
	"github.com/juju/jujugui/internal/metrics"
	"github.com/juju/jujugui/internal/notifications"
	"github.com/juju/jujugui/worker/modelsync"
)

// errConnectionLost is returned when the controller drops the connection.
const errConnectionLost = errors.ConstError("connection to controller lost")

const handshakeTimeout = 30 * time.Second

type connectionConfig struct {
	Config   config.Config
	Model    *cache.Model
	Bus      *notify.Bus
	Index    *relationindex.Index
	Notifier *notifications.Notifier
	Metrics  *metrics.Collector
	Clock    clock.Clock
	Logger   modelsync.Logger
}

// connectionWorker owns one connection to the controller and the model
// sync worker running over it.
type connectionWorker struct {
	catacomb catacomb.Catacomb
	config   connectionConfig
}

func newConnectionWorker(config connectionConfig) (*connectionWorker, error) {
	w := &connectionWorker{config: config}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	})
	return w, errors.Trace(err)
}

// Kill is part of the worker.Worker interface.
func (w *connectionWorker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *connectionWorker) Wait() error {
	return w.catacomb.Wait()
}

func (w *connectionWorker) loop() error {
	ctx := w.catacomb.Context(context.Background())
	cfg := w.config.Config

	st, err := api.Open(ctx, api.Info{
		URL:      cfg.SocketURL(),
		Insecure: cfg.Insecure,
		User:     cfg.User,
		Password: cfg.Password,
	}, api.DialOpts{
		Attempts: cfg.DialAttempts,
		Delay:    cfg.ReconnectDelay,
		Timeout:  handshakeTimeout,
		Clock:    w.config.Clock,
	})
	if err != nil {
		return errors.Annotate(err, "connecting to controller")
	}
	defer func() { _ = st.Close() }()
	w.config.Logger.Infof("connected to %s (server version %s)", cfg.SocketURL(), st.ServerVersion())

	client := api.NewClient(st)
	syncer, err := modelsync.New(modelsync.Config{
		Model:    w.config.Model,
		Bus:      w.config.Bus,
		Index:    w.config.Index,
		API:      client,
		Notifier: w.config.Notifier,
		Metrics:  w.config.Metrics,
		Logger:   w.config.Logger,
		WatchAll: func(ctx context.Context) (modelsync.DeltaWatcher, error) {
			watcher, err := client.WatchAll(ctx)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return watcher, nil
		},
	})
	if err != nil {
		return errors.Trace(err)
	}
	if err := w.catacomb.Add(syncer); err != nil {
		return errors.Trace(err)
	}

	select {
	case <-w.catacomb.Dying():
		return w.catacomb.ErrDying()
	case <-st.Broken():
		return errConnectionLost
	}
}
