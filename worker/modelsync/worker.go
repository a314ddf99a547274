// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package modelsync provides the worker that owns the client side model.
// All mutation of the model happens on the worker's goroutine: delta
// batches from the controller, completions of remote commands and user
// intents are serialized through a single loop.
package modelsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/relationindex"
	"github.com/juju/jujugui/internal/applier"
	"github.com/juju/jujugui/internal/coordinator"
	"github.com/juju/jujugui/internal/metrics"
	"github.com/juju/jujugui/internal/notifications"
)

// ErrStopped is returned by intents made after the worker has stopped.
const ErrStopped = errors.ConstError("model sync worker stopped")

// Logger represents the methods used by the worker to log information.
type Logger interface {
	Tracef(string, ...interface{})
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warningf(string, ...interface{})
	Errorf(string, ...interface{})
}

// API is the controller API used by the worker.
type API interface {
	coordinator.CommandAPI

	// CharmInfo fetches charm metadata as a charm delta.
	CharmInfo(ctx context.Context, url string) (delta.Delta, error)
}

// Config defines the operation of the Worker.
type Config struct {
	// Model, Bus and Index outlive the worker, so that views keep
	// their subscriptions across restarts. Each start resyncs them.
	Model *cache.Model
	Bus   *notify.Bus
	Index *relationindex.Index

	API      API
	WatchAll func(context.Context) (DeltaWatcher, error)
	Notifier coordinator.Notifier
	Metrics  *metrics.Collector
	Logger   Logger

	// RetainBatches is passed to the delta applier.
	RetainBatches int
}

// Validate returns an error if config cannot drive the Worker.
func (config Config) Validate() error {
	if config.Model == nil {
		return errors.NotValidf("nil Model")
	}
	if config.Bus == nil {
		return errors.NotValidf("nil Bus")
	}
	if config.Index == nil {
		return errors.NotValidf("nil Index")
	}
	if config.API == nil {
		return errors.NotValidf("nil API")
	}
	if config.WatchAll == nil {
		return errors.NotValidf("nil WatchAll")
	}
	if config.Notifier == nil {
		return errors.NotValidf("nil Notifier")
	}
	if config.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.RetainBatches < 0 {
		return errors.NotValidf("negative RetainBatches")
	}
	return nil
}

// Worker synchronizes the model with the controller.
type Worker struct {
	catacomb catacomb.Catacomb
	config   Config

	applier *applier.Applier
	coord   *coordinator.Coordinator

	intents chan func(context.Context)
	posted  chan func()
	wake    chan struct{}

	// deferred holds intents issued by handlers while the bus was
	// dispatching; they run once the current step is done.
	mu       sync.Mutex
	deferred []deferredIntent

	// Fields below are only touched on the loop goroutine.
	charmsRequested set.Strings
	fetches         sync.WaitGroup
}

var _ worker.Worker = (*Worker)(nil)

// New returns a Worker backed by config, or an error.
func New(config Config) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	a, err := applier.New(applier.Config{
		Model:         config.Model,
		Bus:           config.Bus,
		Index:         config.Index,
		Metrics:       config.Metrics,
		Logger:        config.Logger,
		RetainBatches: config.RetainBatches,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	w := &Worker{
		config:          config,
		applier:         a,
		intents:         make(chan func(context.Context)),
		posted:          make(chan func()),
		wake:            make(chan struct{}, 1),
		charmsRequested: set.NewStrings(),
	}
	w.coord, err = coordinator.New(coordinator.Config{
		Model:    config.Model,
		Bus:      config.Bus,
		Index:    config.Index,
		API:      config.API,
		Notifier: config.Notifier,
		Metrics:  config.Metrics,
		Logger:   config.Logger,
		Post:     w.post,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	err = catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	})
	return w, errors.Trace(err)
}

// Kill is defined on worker.Worker.
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

func (w *Worker) loop() error {
	ctx := w.catacomb.Context(context.Background())
	defer func() {
		// Remote commands still running post their completions until
		// the catacomb is dying.
		w.catacomb.Kill(nil)
		w.coord.Wait()
		w.fetches.Wait()
	}()

	// Every start is a full resync: the first batch replaces whatever
	// the model held before.
	w.applier.Reset()
	w.charmsRequested = set.NewStrings()
	w.runDeferred(ctx)

	watcher, err := w.config.WatchAll(ctx)
	if err != nil {
		return errors.Annotate(err, "watching model")
	}
	r := newReader(watcher, w.config.Logger)
	if err := w.catacomb.Add(r); err != nil {
		return errors.Trace(err)
	}

	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case deltas := <-r.Batches():
			w.applyBatch(ctx, deltas)
		case fn := <-w.posted:
			fn()
		case fn := <-w.intents:
			fn(ctx)
		case <-w.wake:
		}
		w.runDeferred(ctx)
	}
}

type deferredIntent struct {
	what string
	fn   func(context.Context) error
}

// runDeferred runs the intents queued during dispatch, including any
// queued by the handlers those intents trigger.
func (w *Worker) runDeferred(ctx context.Context) {
	for {
		w.mu.Lock()
		queued := w.deferred
		w.deferred = nil
		w.mu.Unlock()
		if len(queued) == 0 {
			return
		}
		for _, intent := range queued {
			if err := intent.fn(ctx); err != nil {
				w.config.Logger.Warningf("%s: %v", intent.what, err)
				w.config.Notifier.Publish(notifications.Notification{
					Level:   notifications.Error,
					Title:   "Request failed",
					Message: errors.Annotate(err, intent.what).Error(),
				})
			}
		}
	}
}

func (w *Worker) applyBatch(ctx context.Context, deltas []delta.Delta) {
	w.applier.ApplyDeltaBatch(deltas)
	w.loadCharms(ctx)
}

// loadCharms fetches the metadata of every charm that is referenced by a
// service but not loaded yet.
func (w *Worker) loadCharms(ctx context.Context) {
	for _, ch := range w.config.Model.CharmStore().All(func(ch cache.Charm) bool { return !ch.Loaded }) {
		if w.charmsRequested.Contains(ch.Id) {
			continue
		}
		w.charmsRequested.Add(ch.Id)
		url := ch.Id
		w.fetches.Add(1)
		go func() {
			defer w.fetches.Done()
			d, err := w.config.API.CharmInfo(ctx, url)
			w.post(func() {
				if err != nil {
					w.config.Logger.Warningf("loading charm %q: %v", url, err)
					// Try again after the next batch.
					w.charmsRequested.Remove(url)
					return
				}
				w.applier.ApplyDeltaBatch([]delta.Delta{d})
			})
		}()
	}
}

// post schedules fn on the loop goroutine. It is dropped if the worker
// is stopping.
func (w *Worker) post(fn func()) {
	select {
	case w.posted <- fn:
	case <-w.catacomb.Dying():
	}
}

// do runs fn on the loop goroutine and returns its error. Handlers run
// on that goroutine, so an intent issued while the bus is dispatching is
// queued instead: it runs after the dispatch, do returns nil, and any
// error is logged and published as a notification.
func (w *Worker) do(what string, fn func(context.Context) error) error {
	if w.config.Bus.Dispatching() {
		w.mu.Lock()
		w.deferred = append(w.deferred, deferredIntent{what: what, fn: fn})
		w.mu.Unlock()
		select {
		case w.wake <- struct{}{}:
		default:
		}
		return nil
	}
	result := make(chan error, 1)
	select {
	case w.intents <- func(ctx context.Context) { result <- fn(ctx) }:
	case <-w.catacomb.Dying():
		return ErrStopped
	}
	select {
	case err := <-result:
		return err
	case <-w.catacomb.Dying():
		return ErrStopped
	}
}

// Reader returns the read-only view of the model.
func (w *Worker) Reader() cache.Reader {
	return w.config.Model
}

// Subscribe registers handler for changes to entities of the given kind.
// Handlers run on the worker's goroutine, after each change has been
// fully applied; they must not block.
func (w *Worker) Subscribe(kind delta.Kind, handler notify.Handler) func() {
	return w.config.Bus.Subscribe(kind, handler)
}

// Watch returns a watcher that signals changes to any of the kinds.
func (w *Worker) Watch(kinds ...delta.Kind) *notify.KindWatcher {
	return notify.NewKindWatcher(w.config.Bus, kinds...)
}

// PlaceUnit places the unit on the target machine. See
// coordinator.Coordinator.PlaceUnit for the accepted targets.
func (w *Worker) PlaceUnit(unitId, target string) error {
	return w.do(fmt.Sprintf("placing unit %s", unitId), func(ctx context.Context) error {
		return w.coord.PlaceUnit(ctx, unitId, target)
	})
}

// AddRelation relates two services, or two service endpoints.
func (w *Worker) AddRelation(a, b string) error {
	return w.do(fmt.Sprintf("relating %s and %s", a, b), func(ctx context.Context) error {
		return w.coord.AddRelationEndpoints(ctx, a, b)
	})
}

// AddUnits adds n units to the service.
func (w *Worker) AddUnits(service string, n int) error {
	return w.do(fmt.Sprintf("adding units to %s", service), func(ctx context.Context) error {
		return w.coord.AddUnits(ctx, service, n)
	})
}

// Deploy deploys the charm as a new service. An empty service name is
// taken from the charm URL.
func (w *Worker) Deploy(charmURL, service string, numUnits int) error {
	return w.do(fmt.Sprintf("deploying %s", charmURL), func(ctx context.Context) error {
		return w.coord.Deploy(ctx, charmURL, service, numUnits)
	})
}

// Endpoints returns the relation endpoints of the service.
func (w *Worker) Endpoints(serviceId string) relationindex.Endpoints {
	return w.config.Index.EndpointsFor(serviceId)
}

// Report returns diagnostics about the model and the delta applier. From
// a handler it reports the model alone.
func (w *Worker) Report() map[string]interface{} {
	if w.config.Bus.Dispatching() {
		return w.config.Model.Report()
	}
	report := make(map[string]interface{})
	_ = w.do("reporting", func(context.Context) error {
		for k, v := range w.applier.Report() {
			report[k] = v
		}
		report["placements-in-flight"] = w.coord.InFlight()
		return nil
	})
	return report
}
