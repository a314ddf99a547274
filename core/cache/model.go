// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cache holds the client side model: one entity store per entity
// kind, and the read-only query surface offered to views.
package cache

import (
	"iter"

	"github.com/juju/loggo/v2"

	"github.com/juju/jujugui/core/delta"
)

var logger = loggo.GetLogger("jujugui.core.cache")

// Reader is the read-only query surface of the model. It is the only
// handle on the model that views receive.
type Reader interface {
	Machine(id string) (Machine, bool)
	Service(id string) (Service, bool)
	Unit(id string) (Unit, bool)
	Relation(id string) (Relation, bool)
	Charm(id string) (Charm, bool)

	Machines(pred func(Machine) bool) iter.Seq[Machine]
	Services(pred func(Service) bool) iter.Seq[Service]
	Units(pred func(Unit) bool) iter.Seq[Unit]
	Relations(pred func(Relation) bool) iter.Seq[Relation]
	Charms(pred func(Charm) bool) iter.Seq[Charm]

	// MachinesByParent returns the bare machines when parentId is empty,
	// otherwise the containers directly hosted by parentId.
	MachinesByParent(parentId string) []Machine
	UnitsForService(serviceId string) []Unit
	UnitsOnMachine(machineId string) []Unit
	UnplacedUnits() []Unit
	RelationsForService(serviceId string) []Relation
	CharmForService(serviceId string) (Charm, bool)
}

// Model aggregates the entity stores.
type Model struct {
	machines  *Store[Machine]
	services  *Store[Service]
	units     *Store[Unit]
	relations *Store[Relation]
	charms    *Store[Charm]
}

var _ Reader = (*Model)(nil)

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		machines:  newStore[Machine](delta.KindMachine, fixupMachine),
		services:  newStore[Service](delta.KindService, fixupService),
		units:     newStore[Unit](delta.KindUnit, fixupUnit),
		relations: newStore[Relation](delta.KindRelation, fixupRelation),
		charms:    newStore[Charm](delta.KindCharm, fixupCharm),
	}
}

// MachineStore returns the writable machine store.
func (m *Model) MachineStore() *Store[Machine] { return m.machines }

// ServiceStore returns the writable service store.
func (m *Model) ServiceStore() *Store[Service] { return m.services }

// UnitStore returns the writable unit store.
func (m *Model) UnitStore() *Store[Unit] { return m.units }

// RelationStore returns the writable relation store.
func (m *Model) RelationStore() *Store[Relation] { return m.relations }

// CharmStore returns the writable charm store.
func (m *Model) CharmStore() *Store[Charm] { return m.charms }

// Machine is part of Reader.
func (m *Model) Machine(id string) (Machine, bool) { return m.machines.Get(id) }

// Service is part of Reader.
func (m *Model) Service(id string) (Service, bool) { return m.services.Get(id) }

// Unit is part of Reader.
func (m *Model) Unit(id string) (Unit, bool) { return m.units.Get(id) }

// Relation is part of Reader.
func (m *Model) Relation(id string) (Relation, bool) { return m.relations.Get(id) }

// Charm is part of Reader.
func (m *Model) Charm(id string) (Charm, bool) { return m.charms.Get(id) }

// Machines is part of Reader.
func (m *Model) Machines(pred func(Machine) bool) iter.Seq[Machine] {
	return m.machines.Filter(pred)
}

// Services is part of Reader.
func (m *Model) Services(pred func(Service) bool) iter.Seq[Service] {
	return m.services.Filter(pred)
}

// Units is part of Reader.
func (m *Model) Units(pred func(Unit) bool) iter.Seq[Unit] {
	return m.units.Filter(pred)
}

// Relations is part of Reader.
func (m *Model) Relations(pred func(Relation) bool) iter.Seq[Relation] {
	return m.relations.Filter(pred)
}

// Charms is part of Reader.
func (m *Model) Charms(pred func(Charm) bool) iter.Seq[Charm] {
	return m.charms.Filter(pred)
}

// MachinesByParent is part of Reader.
func (m *Model) MachinesByParent(parentId string) []Machine {
	return m.machines.All(func(machine Machine) bool {
		return isChildOf(machine.Id, parentId)
	})
}

// UnitsForService is part of Reader.
func (m *Model) UnitsForService(serviceId string) []Unit {
	return m.units.All(func(u Unit) bool {
		return u.ServiceId == serviceId
	})
}

// UnitsOnMachine is part of Reader.
func (m *Model) UnitsOnMachine(machineId string) []Unit {
	return m.units.All(func(u Unit) bool {
		return u.MachineId == machineId
	})
}

// UnplacedUnits is part of Reader.
func (m *Model) UnplacedUnits() []Unit {
	return m.units.All(func(u Unit) bool {
		return !u.IsPlaced()
	})
}

// RelationsForService is part of Reader.
func (m *Model) RelationsForService(serviceId string) []Relation {
	return m.relations.All(func(r Relation) bool {
		return r.Involves(serviceId)
	})
}

// CharmForService is part of Reader.
func (m *Model) CharmForService(serviceId string) (Charm, bool) {
	svc, found := m.services.Get(serviceId)
	if !found || svc.CharmId == "" {
		return Charm{}, false
	}
	return m.charms.Get(svc.CharmId)
}

// DescendantsOf returns the ids of every container nested under
// machineId, deepest first.
func (m *Model) DescendantsOf(machineId string) []string {
	var result []string
	for _, child := range m.MachinesByParent(machineId) {
		result = append(result, m.DescendantsOf(child.Id)...)
		result = append(result, child.Id)
	}
	return result
}

// kindStore is the kind-agnostic part of a Store.
type kindStore interface {
	Dirty() bool
	ClearDirty()
	Reset()
	Len() int
}

func (m *Model) stores() map[delta.Kind]kindStore {
	return map[delta.Kind]kindStore{
		delta.KindMachine:  m.machines,
		delta.KindService:  m.services,
		delta.KindUnit:     m.units,
		delta.KindRelation: m.relations,
		delta.KindCharm:    m.charms,
	}
}

// DirtyKinds returns the kinds whose stores have been mutated since the
// last ClearDirty, in notification order.
func (m *Model) DirtyKinds() []delta.Kind {
	stores := m.stores()
	var kinds []delta.Kind
	for _, kind := range delta.AllKinds {
		if stores[kind].Dirty() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// ClearDirty clears the dirty mark of every store.
func (m *Model) ClearDirty() {
	for _, store := range m.stores() {
		store.ClearDirty()
	}
}

// Reset clears every store, as used before a full resync.
func (m *Model) Reset() {
	for _, store := range m.stores() {
		store.Reset()
	}
	logger.Debugf("model reset")
}

// Report returns entity counts, for diagnostics.
func (m *Model) Report() map[string]interface{} {
	return map[string]interface{}{
		"machine-count":  m.machines.Len(),
		"service-count":  m.services.Len(),
		"unit-count":     m.units.Len(),
		"relation-count": m.relations.Len(),
		"charm-count":    m.charms.Len(),
	}
}
