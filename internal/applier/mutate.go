// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package applier

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/delta"
)

// upsert creates or merges the entity described by d. Deltas from the
// controller confirm the entity, so its pending mark is cleared.
func (a *Applier) upsert(d delta.Delta) error {
	model := a.config.Model
	id := d.Id()
	data := d.Data

	switch d.Kind {
	case delta.KindService:
		if !annotationsOnly(d) {
			data["pending"] = false
		}
		if _, err := model.ServiceStore().Add(id, data); err != nil {
			return errors.Trace(err)
		}
		if charmId, _ := data["charmId"].(string); charmId != "" && !model.CharmStore().Contains(charmId) {
			// Charm metadata is loaded separately; until it arrives
			// the charm is known by its URL only.
			model.CharmStore().Put(charmId, cache.Charm{})
		}
		a.config.Index.RebuildFor(id)

	case delta.KindUnit:
		a.reconcileUnit(id, data)
		if _, err := model.UnitStore().Add(id, data); err != nil {
			return errors.Trace(err)
		}

	case delta.KindMachine:
		data["pending"] = false
		if _, err := model.MachineStore().Add(id, data); err != nil {
			return errors.Trace(err)
		}

	case delta.KindRelation:
		old, existed := model.RelationStore().Get(id)
		data["pending"] = false
		if _, err := model.RelationStore().Add(id, data); err != nil {
			return errors.Trace(err)
		}
		if existed {
			a.config.Index.OnRelationChanged(old)
		}
		rel, _ := model.RelationStore().Get(id)
		a.replaceOptimistic(rel)
		a.config.Index.OnRelationChanged(rel)

	case delta.KindCharm:
		if existing, found := model.CharmStore().Get(id); found && existing.Loaded {
			a.config.Logger.Debugf("charm %q already loaded, ignoring update", id)
			return nil
		}
		data["loaded"] = true
		if _, err := model.CharmStore().Add(id, data); err != nil {
			return errors.Trace(err)
		}
		// Endpoint roles may be derived from the charm.
		for _, svc := range model.ServiceStore().All(func(s cache.Service) bool {
			return s.CharmId == id
		}) {
			a.config.Index.RebuildFor(svc.Id)
		}

	default:
		return errors.NotSupportedf("entity kind %q", d.Kind)
	}
	return nil
}

// reconcileUnit adjusts the data for a unit whose placement is still in
// flight. Until the controller reports a machine for the unit, the
// optimistic placement is kept.
func (a *Applier) reconcileUnit(id string, data map[string]interface{}) {
	existing, found := a.config.Model.UnitStore().Get(id)
	if !found || !existing.Pending {
		data["pending"] = false
		return
	}
	machineId, present := data["machineId"]
	if !present {
		return
	}
	if machineId == nil || machineId == "" {
		delete(data, "machineId")
		return
	}
	data["pending"] = false
}

// remove deletes the entity and cascades to its dependents. Removing a
// missing entity is not an error.
func (a *Applier) remove(ref entityRef) {
	model := a.config.Model
	switch ref.kind {
	case delta.KindService:
		a.removeService(ref.id)
	case delta.KindUnit:
		model.UnitStore().Remove(ref.id)
	case delta.KindMachine:
		a.removeMachine(ref.id)
	case delta.KindRelation:
		rel, found := model.RelationStore().Get(ref.id)
		if found && model.RelationStore().Remove(ref.id) {
			a.config.Index.OnRelationChanged(rel)
		}
	case delta.KindCharm:
		model.CharmStore().Remove(ref.id)
	}
}

// removeService removes the service together with its units and every
// relation it takes part in.
func (a *Applier) removeService(id string) {
	model := a.config.Model
	model.ServiceStore().Remove(id)
	for _, unit := range model.UnitsForService(id) {
		model.UnitStore().Remove(unit.Id)
	}
	for _, rel := range model.RelationsForService(id) {
		model.RelationStore().Remove(rel.Id)
		a.config.Index.OnRelationChanged(rel)
	}
	a.config.Index.OnServiceRemoved(id)
}

// removeMachine removes the machine and, recursively, the containers it
// hosts. Units placed on any of them become unplaced.
func (a *Applier) removeMachine(id string) {
	model := a.config.Model
	for _, machineId := range append(model.DescendantsOf(id), id) {
		for _, unit := range model.UnitsOnMachine(machineId) {
			a.config.Logger.Debugf("unit %q unplaced by removal of machine %q", unit.Id, machineId)
			model.UnitStore().Mutate(unit.Id, func(u *cache.Unit) {
				u.MachineId = ""
			})
		}
		model.MachineStore().Remove(machineId)
	}
}

// replaceOptimistic removes relations added optimistically by the client
// that rel, confirmed by the controller, supersedes.
func (a *Applier) replaceOptimistic(rel cache.Relation) {
	store := a.config.Model.RelationStore()
	for _, pending := range store.All(func(r cache.Relation) bool {
		return r.Pending && r.Id != rel.Id && sameEndpoints(r, rel)
	}) {
		a.config.Logger.Debugf("relation %q confirmed as %q", pending.Id, rel.Id)
		store.Remove(pending.Id)
	}
}

func sameEndpoints(x, y cache.Relation) bool {
	key := func(r cache.Relation) set.Strings {
		keys := set.NewStrings()
		for _, ep := range r.Endpoints {
			keys.Add(ep.ServiceId + ":" + ep.Name)
		}
		return keys
	}
	kx, ky := key(x), key(y)
	return kx.Size() == ky.Size() && kx.Difference(ky).IsEmpty()
}
