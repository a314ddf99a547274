// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api_test

import (
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/jujugui/api"
	"github.com/juju/jujugui/api/params"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/internal/coordinator"
)

type clientSuite struct {
	baseSuite

	client *api.Client
}

var _ = gc.Suite(&clientSuite{})

func (s *clientSuite) SetUpTest(c *gc.C) {
	s.baseSuite.SetUpTest(c)
	s.client = api.NewClient(s.open(c))
}

func (s *clientSuite) TestWatchAll(c *gc.C) {
	s.controller.set("Client.WatchAll", params.AllWatcherId{AllWatcherId: "7"})
	s.controller.set("AllWatcher.Next", map[string]interface{}{
		"deltas": []interface{}{
			[]interface{}{"application", "change", map[string]interface{}{
				"name": "mysql", "charm-url": "cs:mysql-2", "exposed": true,
			}},
			[]interface{}{"model", "change", map[string]interface{}{"name": "default"}},
			[]interface{}{"unit", "remove", map[string]interface{}{"name": "mysql/1"}},
		},
	})

	w, err := s.client.WatchAll(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	deltas, err := w.Next(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(deltas, jc.DeepEquals, []delta.Delta{
		delta.New(delta.KindService, delta.VerbChange, map[string]interface{}{
			"id": "mysql", "charmId": "cs:mysql-2", "exposed": true, "subordinate": false,
		}),
		delta.New(delta.KindUnit, delta.VerbRemove, map[string]interface{}{"id": "mysql/1"}),
	})
	c.Assert(w.Stop(context.Background()), jc.ErrorIsNil)

	requests := s.server.Requests()
	last := requests[len(requests)-1]
	c.Check(last.Type, gc.Equals, "AllWatcher")
	c.Check(last.Id, gc.Equals, "7")
	c.Check(last.Action, gc.Equals, "Stop")
}

func (s *clientSuite) TestAddMachines(c *gc.C) {
	s.controller.set("MachineManager.AddMachines", params.AddMachinesResults{
		Machines: []params.AddMachinesResult{{Machine: "4"}, {Machine: "1/lxc/2"}},
	})
	ids, err := s.client.AddMachines(context.Background(), []coordinator.MachineSpec{
		{},
		{ContainerType: "lxc", ParentId: "1"},
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ids, jc.DeepEquals, []string{"4", "1/lxc/2"})

	var args params.AddMachines
	s.controller.paramsFor(c, "MachineManager.AddMachines", &args)
	c.Check(args.MachineParams, jc.DeepEquals, []params.AddMachineParams{
		{Jobs: []string{"JobHostUnits"}},
		{Jobs: []string{"JobHostUnits"}, ParentId: "1", ContainerType: "lxc"},
	})
}

func (s *clientSuite) TestAddMachinesError(c *gc.C) {
	s.controller.set("MachineManager.AddMachines", params.AddMachinesResults{
		Machines: []params.AddMachinesResult{{Error: &params.Error{Message: "quota exceeded"}}},
	})
	_, err := s.client.AddMachines(context.Background(), []coordinator.MachineSpec{{}})
	c.Check(err, gc.ErrorMatches, "quota exceeded")
}

func (s *clientSuite) TestPlaceUnit(c *gc.C) {
	s.controller.set("Application.PlaceUnits", params.ErrorResults{
		Results: []params.ErrorResult{{}},
	})
	err := s.client.PlaceUnit(context.Background(), "mysql/0", "1/lxc/2")
	c.Assert(err, jc.ErrorIsNil)

	var args params.PlaceUnitsParams
	s.controller.paramsFor(c, "Application.PlaceUnits", &args)
	c.Check(args.Placements, jc.DeepEquals, []params.PlaceUnitParams{{
		UnitTag:    "unit-mysql-0",
		MachineTag: "machine-1-lxc-2",
	}})
}

func (s *clientSuite) TestPlaceUnitRejectsPlaceholder(c *gc.C) {
	err := s.client.PlaceUnit(context.Background(), "mysql/0", "new0")
	c.Check(err, gc.ErrorMatches, `machine id "new0" not valid`)
}

func (s *clientSuite) TestPlaceUnitError(c *gc.C) {
	s.controller.set("Application.PlaceUnits", params.ErrorResults{
		Results: []params.ErrorResult{{Error: &params.Error{Message: "unit is dying"}}},
	})
	err := s.client.PlaceUnit(context.Background(), "mysql/0", "1")
	c.Check(err, gc.ErrorMatches, "unit is dying")
}

func (s *clientSuite) TestAddUnits(c *gc.C) {
	s.controller.set("Application.AddUnits", params.AddApplicationUnitsResults{
		Units: []string{"mysql/1", "mysql/2"},
	})
	units, err := s.client.AddUnits(context.Background(), "mysql", 2)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(units, jc.DeepEquals, []string{"mysql/1", "mysql/2"})

	var args params.AddApplicationUnits
	s.controller.paramsFor(c, "Application.AddUnits", &args)
	c.Check(args, jc.DeepEquals, params.AddApplicationUnits{ApplicationName: "mysql", NumUnits: 2})
}

func (s *clientSuite) TestAddRelation(c *gc.C) {
	err := s.client.AddRelation(context.Background(), []string{"wordpress:db", "mysql:db"})
	c.Assert(err, jc.ErrorIsNil)

	var args params.AddRelation
	s.controller.paramsFor(c, "Application.AddRelation", &args)
	c.Check(args.Endpoints, jc.DeepEquals, []string{"wordpress:db", "mysql:db"})
}

func (s *clientSuite) TestDeploy(c *gc.C) {
	s.controller.set("Application.Deploy", params.ErrorResults{
		Results: []params.ErrorResult{{}},
	})
	err := s.client.Deploy(context.Background(), "cs:precise/wordpress-4", "wordpress", 1)
	c.Assert(err, jc.ErrorIsNil)

	var args params.ApplicationsDeploy
	s.controller.paramsFor(c, "Application.Deploy", &args)
	c.Check(args.Applications, jc.DeepEquals, []params.ApplicationDeploy{{
		ApplicationName: "wordpress",
		CharmURL:        "cs:precise/wordpress-4",
		NumUnits:        1,
	}})
}

func (s *clientSuite) TestDeployErrors(c *gc.C) {
	err := s.client.Deploy(context.Background(), "cs:wordpress-4", "Bad_Name", 1)
	c.Check(err, gc.ErrorMatches, `service name "Bad_Name" not valid`)

	s.controller.set("Application.Deploy", params.ErrorResults{
		Results: []params.ErrorResult{{Error: &params.Error{Message: `application "wordpress" already exists`}}},
	})
	err = s.client.Deploy(context.Background(), "cs:wordpress-4", "wordpress", 1)
	c.Check(err, gc.ErrorMatches, `application "wordpress" already exists`)
}

func (s *clientSuite) TestCharmInfo(c *gc.C) {
	s.controller.set("Charms.CharmInfo", params.CharmInfo{
		Revision: 2,
		URL:      "cs:mysql-2",
		Meta: &params.CharmMeta{
			Name: "mysql",
			Provides: map[string]params.CharmRelation{
				"db": {Interface: "mysql", Role: "provider", Scope: "global"},
			},
		},
	})
	d, err := s.client.CharmInfo(context.Background(), "cs:mysql-2")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(d.Kind, gc.Equals, delta.KindCharm)
	c.Check(d.Id(), gc.Equals, "cs:mysql-2")

	data, err := delta.Validate(d)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(data["provides"], jc.DeepEquals, map[string]interface{}{
		"db": map[string]interface{}{
			"name":      "db",
			"interface": "mysql",
			"scope":     "global",
			"optional":  false,
			"limit":     int64(0),
		},
	})
}
