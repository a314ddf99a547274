// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/names/v5"

	"github.com/juju/jujugui/api/params"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/internal/coordinator"
)

// Client issues the commands used by the GUI.
type Client struct {
	caller APICaller
}

var _ coordinator.CommandAPI = (*Client)(nil)

// NewClient returns a Client making calls through caller.
func NewClient(caller APICaller) *Client {
	return &Client{caller: caller}
}

func (c *Client) call(ctx context.Context, facade, request string, args, response interface{}) error {
	return c.caller.APICall(ctx, facade, c.caller.BestFacadeVersion(facade), "", request, args, response)
}

// WatchAll returns an AllWatcher, from which you can request the Next
// collection of deltas.
func (c *Client) WatchAll(ctx context.Context) (*AllWatcher, error) {
	var info params.AllWatcherId
	if err := c.call(ctx, "Client", "WatchAll", nil, &info); err != nil {
		return nil, errors.Trace(err)
	}
	return NewAllWatcher(c.caller, info.AllWatcherId), nil
}

// AddUnits is part of coordinator.CommandAPI.
func (c *Client) AddUnits(ctx context.Context, service string, n int) ([]string, error) {
	if !names.IsValidApplication(service) {
		return nil, errors.NotValidf("service name %q", service)
	}
	var result params.AddApplicationUnitsResults
	err := c.call(ctx, "Application", "AddUnits", params.AddApplicationUnits{
		ApplicationName: service,
		NumUnits:        n,
	}, &result)
	return result.Units, errors.Trace(err)
}

// AddMachines is part of coordinator.CommandAPI.
func (c *Client) AddMachines(ctx context.Context, specs []coordinator.MachineSpec) ([]string, error) {
	args := params.AddMachines{
		MachineParams: make([]params.AddMachineParams, len(specs)),
	}
	for i, spec := range specs {
		if spec.ParentId != "" && !names.IsValidMachine(spec.ParentId) {
			return nil, errors.NotValidf("parent machine %q", spec.ParentId)
		}
		args.MachineParams[i] = params.AddMachineParams{
			Jobs:          []string{params.JobHostUnits},
			ParentId:      spec.ParentId,
			ContainerType: spec.ContainerType,
		}
	}
	var results params.AddMachinesResults
	if err := c.call(ctx, "MachineManager", "AddMachines", args, &results); err != nil {
		return nil, errors.Trace(err)
	}
	if len(results.Machines) != len(specs) {
		return nil, errors.Errorf("expected %d result(s), got %d", len(specs), len(results.Machines))
	}
	ids := make([]string, len(results.Machines))
	for i, result := range results.Machines {
		if result.Error != nil {
			return nil, result.Error
		}
		ids[i] = result.Machine
	}
	return ids, nil
}

// PlaceUnit is part of coordinator.CommandAPI.
func (c *Client) PlaceUnit(ctx context.Context, unitId, machineId string) error {
	if !names.IsValidUnit(unitId) {
		return errors.NotValidf("unit name %q", unitId)
	}
	if !names.IsValidMachine(machineId) {
		return errors.NotValidf("machine id %q", machineId)
	}
	var results params.ErrorResults
	err := c.call(ctx, "Application", "PlaceUnits", params.PlaceUnitsParams{
		Placements: []params.PlaceUnitParams{{
			UnitTag:    names.NewUnitTag(unitId).String(),
			MachineTag: names.NewMachineTag(machineId).String(),
		}},
	}, &results)
	if err != nil {
		return errors.Trace(err)
	}
	return results.OneError()
}

// AddRelation is part of coordinator.CommandAPI.
func (c *Client) AddRelation(ctx context.Context, endpoints []string) error {
	var result params.AddRelationResults
	err := c.call(ctx, "Application", "AddRelation", params.AddRelation{
		Endpoints: endpoints,
	}, &result)
	return errors.Trace(err)
}

// Deploy is part of coordinator.CommandAPI.
func (c *Client) Deploy(ctx context.Context, charmURL, service string, numUnits int) error {
	if !names.IsValidApplication(service) {
		return errors.NotValidf("service name %q", service)
	}
	var results params.ErrorResults
	err := c.call(ctx, "Application", "Deploy", params.ApplicationsDeploy{
		Applications: []params.ApplicationDeploy{{
			ApplicationName: service,
			CharmURL:        charmURL,
			NumUnits:        numUnits,
		}},
	}, &results)
	if err != nil {
		return errors.Trace(err)
	}
	return results.OneError()
}

// CharmInfo fetches the metadata of the charm with the given URL and
// returns it as a charm record for the model.
func (c *Client) CharmInfo(ctx context.Context, url string) (delta.Delta, error) {
	var info params.CharmInfo
	if err := c.call(ctx, "Charms", "CharmInfo", params.CharmURL{URL: url}, &info); err != nil {
		return delta.Delta{}, errors.Annotatef(err, "fetching charm %q", url)
	}
	if info.URL == "" {
		info.URL = url
	}
	return CharmDelta(info), nil
}
