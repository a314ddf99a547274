// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package coordinator

import (
	"context"

	"github.com/juju/errors"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/placement"
	"github.com/juju/jujugui/internal/metrics"
)

// PlaceUnit places the unit on target, which is parsed by
// placement.ParseTarget. The unit is shown on its new machine straight
// away, marked pending; if the controller rejects the placement the unit
// is reverted to unplaced and the user is notified. A later PlaceUnit for
// the same unit supersedes this one.
func (c *Coordinator) PlaceUnit(ctx context.Context, unitId, target string) error {
	t, err := placement.ParseTarget(target)
	if err != nil {
		return errors.Trace(err)
	}
	model := c.config.Model
	if !model.UnitStore().Contains(unitId) {
		return errors.NotFoundf("unit %q", unitId)
	}

	var spec *MachineSpec
	machineId, existing := t.MachineToPlace()
	switch {
	case existing:
		if err := c.checkMachine(machineId); err != nil {
			return errors.Trace(err)
		}
	case t.Kind == placement.NewMachine:
		spec = &MachineSpec{}
	default:
		if err := c.checkMachine(t.MachineId); err != nil {
			return errors.Trace(err)
		}
		spec = &MachineSpec{
			ContainerType: string(t.ContainerType),
			ParentId:      t.MachineId,
		}
	}

	c.supersede(unitId)
	c.generation++
	ctx, cancel := context.WithCancel(ctx)
	req := &request{
		generation: c.generation,
		cancel:     cancel,
	}
	if spec != nil {
		req.placeholder = placement.PlaceholderId(spec.ParentId, placement.ContainerType(spec.ContainerType), c.nextPlaceholder)
		c.nextPlaceholder++
		model.MachineStore().Put(req.placeholder, cache.Machine{Pending: true})
		machineId = req.placeholder
	}
	model.UnitStore().Mutate(unitId, func(u *cache.Unit) {
		u.MachineId = machineId
		u.Pending = true
	})
	c.inflight[unitId] = req
	c.commit()
	c.config.Logger.Debugf("placing unit %q on %s", unitId, t)

	c.run(func() {
		c.placeRemote(ctx, unitId, req, spec, machineId)
	})
	return nil
}

// checkMachine returns an error unless the machine exists and has been
// confirmed by the controller.
func (c *Coordinator) checkMachine(id string) error {
	if placement.IsPlaceholder(id) {
		return errors.NotYetAvailablef("machine %q", id)
	}
	m, found := c.config.Model.Machine(id)
	if !found {
		return errors.NotFoundf("machine %q", id)
	}
	if m.Pending {
		return errors.NotYetAvailablef("machine %q", id)
	}
	return nil
}

// supersede abandons the placement in flight for the unit, if any.
func (c *Coordinator) supersede(unitId string) {
	prev, found := c.inflight[unitId]
	if !found {
		return
	}
	c.config.Logger.Debugf("placement %d of unit %q superseded", prev.generation, unitId)
	prev.cancel()
	delete(c.inflight, unitId)
	c.discardPlaceholder(prev)
	c.config.Metrics.Placement(metrics.PlacementSuperseded)
}

func (c *Coordinator) discardPlaceholder(req *request) {
	if req.placeholder == "" {
		return
	}
	c.config.Model.MachineStore().Remove(req.placeholder)
	req.placeholder = ""
}

// placeRemote runs off the model's goroutine.
func (c *Coordinator) placeRemote(ctx context.Context, unitId string, req *request, spec *MachineSpec, machineId string) {
	api := c.config.API
	if spec != nil {
		ids, err := api.AddMachines(ctx, []MachineSpec{*spec})
		if err == nil && len(ids) != 1 {
			err = errors.Errorf("expected 1 machine, got %d", len(ids))
		}
		if err != nil {
			err = errors.Annotate(err, "creating machine")
			c.config.Post(func() { c.placementFailed(unitId, req, err) })
			return
		}
		machineId = ids[0]
		c.config.Post(func() { c.machineCreated(req, machineId) })
	}

	err := api.PlaceUnit(ctx, unitId, machineId)
	c.config.Post(func() {
		if err != nil {
			c.placementFailed(unitId, req, err)
			return
		}
		c.placementConfirmed(unitId, req, machineId)
	})
}

// machineCreated replaces the request's placeholder machine with the one
// the controller created. Every reference to the placeholder is moved in
// the same step.
func (c *Coordinator) machineCreated(req *request, machineId string) {
	placeholder := req.placeholder
	machines := c.config.Model.MachineStore()
	if placeholder == "" || !machines.Contains(placeholder) {
		return
	}
	if !machines.Contains(machineId) {
		machines.Put(machineId, cache.Machine{})
	}
	for _, unit := range c.config.Model.UnitsOnMachine(placeholder) {
		c.config.Model.UnitStore().Mutate(unit.Id, func(u *cache.Unit) {
			u.MachineId = machineId
		})
	}
	machines.Remove(placeholder)
	req.placeholder = ""
	c.commit()
	c.config.Logger.Debugf("machine %q created in place of %q", machineId, placeholder)
}

func (c *Coordinator) current(unitId string, req *request) bool {
	return c.inflight[unitId] == req
}

func (c *Coordinator) placementFailed(unitId string, req *request, err error) {
	if !c.current(unitId, req) {
		c.config.Logger.Debugf("ignoring failure of superseded placement of %q: %v", unitId, err)
		return
	}
	delete(c.inflight, unitId)
	req.cancel()
	c.config.Logger.Errorf("placing unit %q: %v", unitId, err)
	c.config.Metrics.Placement(metrics.PlacementFailed)

	c.config.Model.UnitStore().Mutate(unitId, func(u *cache.Unit) {
		u.MachineId = ""
		u.Pending = false
	})
	c.discardPlaceholder(req)
	c.commit()
	c.notifyUser("Unit placement failed", errors.Annotatef(err, "placing %s", unitId))
}

func (c *Coordinator) placementConfirmed(unitId string, req *request, machineId string) {
	if !c.current(unitId, req) {
		c.config.Logger.Debugf("ignoring completion of superseded placement of %q", unitId)
		return
	}
	delete(c.inflight, unitId)
	req.cancel()
	c.config.Metrics.Placement(metrics.PlacementConfirmed)

	unit, found := c.config.Model.Unit(unitId)
	if !found || !unit.Pending || unit.MachineId != machineId {
		return
	}
	c.config.Model.UnitStore().Mutate(unitId, func(u *cache.Unit) {
		u.Pending = false
	})
	c.commit()
	c.config.Logger.Debugf("unit %q placed on %q", unitId, machineId)
}
