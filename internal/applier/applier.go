// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package applier applies batches of deltas streamed from the controller
// to the client side model.
package applier

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/relationindex"
)

// Logger represents the methods used by the applier to log information.
type Logger interface {
	Tracef(string, ...interface{})
	Debugf(string, ...interface{})
	Warningf(string, ...interface{})
}

// Metrics records what the applier does.
type Metrics interface {
	DeltaApplied(delta.Kind, delta.Verb)
	DeltaMalformed()
	ReferenceDropped(delta.Kind)
	SetPendingReferences(int)
	BatchApplied(int)
}

// Config holds the dependencies of an Applier.
type Config struct {
	Model   *cache.Model
	Bus     *notify.Bus
	Index   *relationindex.Index
	Metrics Metrics
	Logger  Logger

	// RetainBatches is the number of batches, counting the one it
	// arrived in, for which a delta waiting on a missing entity is kept
	// before it is dropped. Zero means the delta is dropped at the end of
	// the batch it arrived in.
	RetainBatches int
}

// Validate returns an error if config cannot drive an Applier.
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

// BatchResult describes the outcome of applying one batch.
type BatchResult struct {
	// Applied counts the deltas written to the model, including deltas
	// buffered by earlier batches that resolved during this one.
	Applied int
	// Malformed holds a *delta.MalformedError for every skipped record.
	Malformed []error
	// Dropped holds the deltas whose references never resolved.
	Dropped []UnresolvedReference
	// Detached holds the ids of units whose machine never arrived; they
	// were applied unplaced.
	Detached []string
	// Notified holds the kinds for which a change notification was
	// raised, at most once each.
	Notified []delta.Kind
}

// Applier applies delta batches to a model. It is not safe for concurrent
// use: batches must be applied one at a time, in arrival order.
type Applier struct {
	config Config
	buffer *pendingBuffer
}

// New returns an Applier backed by config.
func New(config Config) (*Applier, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	retain := config.RetainBatches
	if retain == 0 {
		retain = 1
	}
	return &Applier{
		config: config,
		buffer: newPendingBuffer(retain),
	}, nil
}

// ApplyDeltaBatch applies deltas in order and then raises one change
// notification per entity kind the batch touched.
func (a *Applier) ApplyDeltaBatch(deltas []delta.Delta) BatchResult {
	var result BatchResult
	for _, d := range deltas {
		data, err := delta.Validate(d)
		if err != nil {
			a.malformed(err, &result)
			continue
		}
		a.process(delta.New(d.Kind, d.Verb, data), &result)
	}
	a.expire(&result)

	a.config.Metrics.SetPendingReferences(a.buffer.len())
	a.config.Metrics.BatchApplied(len(deltas))
	result.Notified = notify.Commit(a.config.Bus, a.config.Model)
	a.config.Logger.Debugf("applied %d of %d deltas, notified %v", result.Applied, len(deltas), result.Notified)
	return result
}

// Reset discards the model, the pending buffer and the relation index,
// as done before a full resync, and notifies every kind.
func (a *Applier) Reset() {
	a.config.Model.Reset()
	a.buffer = newPendingBuffer(a.buffer.retain)
	a.config.Index.RebuildAll()
	a.config.Metrics.SetPendingReferences(0)
	notify.Commit(a.config.Bus, a.config.Model)
}

// Pending returns the deltas currently waiting on a missing entity.
func (a *Applier) Pending() []UnresolvedReference {
	return a.buffer.all()
}

// Report returns details of the applier state, for diagnostics.
func (a *Applier) Report() map[string]interface{} {
	report := a.config.Model.Report()
	report["pending-references"] = a.buffer.len()
	return report
}

func (a *Applier) malformed(err error, result *BatchResult) {
	a.config.Logger.Warningf("skipping record: %v", err)
	a.config.Metrics.DeltaMalformed()
	result.Malformed = append(result.Malformed, err)
}

// process applies a validated delta, or buffers it if it refers to an
// entity that does not exist yet.
func (a *Applier) process(d delta.Delta, result *BatchResult) {
	self := entityRef{kind: d.Kind, id: d.Id()}
	if d.Verb == delta.VerbRemove {
		if n := a.buffer.cancel(self); n > 0 {
			a.config.Logger.Debugf("removal of %s cancelled %d pending delta(s)", self, n)
		}
		a.remove(self)
		a.applied(d, result)
		return
	}

	// Deltas for an entity that already has deltas waiting queue up
	// behind them, so that they are applied in order.
	if missing, found := a.buffer.blockedOn(self); found && missing != self {
		a.buffer.add(d, missing)
		return
	}
	if missing, found := a.missingReference(d); found {
		a.config.Logger.Tracef("%v waits for %s", d, missing)
		a.buffer.add(d, missing)
		return
	}

	if err := a.upsert(d); err != nil {
		a.malformed(&delta.MalformedError{
			Kind:   d.Kind,
			Verb:   d.Verb,
			Id:     d.Id(),
			Reason: err.Error(),
		}, result)
		return
	}
	a.applied(d, result)

	for _, waiting := range a.buffer.resolve(self) {
		a.process(waiting, result)
	}
}

func (a *Applier) applied(d delta.Delta, result *BatchResult) {
	result.Applied++
	a.config.Metrics.DeltaApplied(d.Kind, d.Verb)
}

// missingReference returns the first entity d refers to that is not in
// the model.
func (a *Applier) missingReference(d delta.Delta) (entityRef, bool) {
	model := a.config.Model
	switch d.Kind {
	case delta.KindService:
		// Annotations only decorate a service the controller has
		// reported; they never create one.
		if annotationsOnly(d) && !model.ServiceStore().Contains(d.Id()) {
			return entityRef{kind: delta.KindService, id: d.Id()}, true
		}
	case delta.KindUnit:
		serviceId, _ := d.Data["serviceId"].(string)
		if !model.ServiceStore().Contains(serviceId) {
			return entityRef{kind: delta.KindService, id: serviceId}, true
		}
		machineId, _ := d.Data["machineId"].(string)
		if machineId != "" && !model.MachineStore().Contains(machineId) {
			return entityRef{kind: delta.KindMachine, id: machineId}, true
		}
	case delta.KindRelation:
		endpoints, _ := d.Data["endpoints"].([]interface{})
		for _, ep := range endpoints {
			fields, _ := ep.(map[string]interface{})
			serviceId, _ := fields["serviceId"].(string)
			if !model.ServiceStore().Contains(serviceId) {
				return entityRef{kind: delta.KindService, id: serviceId}, true
			}
		}
	}
	return entityRef{}, false
}

func annotationsOnly(d delta.Delta) bool {
	if _, found := d.Data["annotations"]; !found {
		return false
	}
	for key := range d.Data {
		if key != "id" && key != "annotations" {
			return false
		}
	}
	return true
}

// expire drops, or for units missing only their machine applies
// unplaced, the buffered deltas that have waited too long.
func (a *Applier) expire(result *BatchResult) {
	detached := set.NewStrings()
	for _, expired := range a.buffer.age() {
		d := expired.Delta
		if expired.MissingKind == delta.KindMachine && d.Kind == delta.KindUnit {
			a.config.Logger.Warningf("unit %q refers to missing machine %q: leaving it unplaced", d.Id(), expired.MissingId)
			d.Data["machineId"] = nil
			if !detached.Contains(d.Id()) {
				detached.Add(d.Id())
				result.Detached = append(result.Detached, d.Id())
			}
			a.process(d, result)
			continue
		}
		a.config.Logger.Warningf("dropping %v", expired)
		a.config.Metrics.ReferenceDropped(d.Kind)
		result.Dropped = append(result.Dropped, expired)
	}
}
