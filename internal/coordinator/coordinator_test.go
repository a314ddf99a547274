// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package coordinator_test

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/relationindex"
	"github.com/juju/jujugui/internal/coordinator"
	"github.com/juju/jujugui/internal/coordinator/mocks"
	"github.com/juju/jujugui/internal/metrics"
	"github.com/juju/jujugui/internal/notifications"
)

type coordinatorSuite struct {
	testing.IsolationSuite

	model    *cache.Model
	bus      *notify.Bus
	index    *relationindex.Index
	notifier *notifications.Notifier
	api      *mocks.MockCommandAPI
	metrics  *fakeMetrics

	posted   chan func()
	received chan notifications.Notification
	notified map[delta.Kind]int

	coord *coordinator.Coordinator
}

var _ = gc.Suite(&coordinatorSuite{})

type fakeMetrics struct {
	results []string
}

func (m *fakeMetrics) Placement(result string) {
	m.results = append(m.results, result)
}

func (s *coordinatorSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.model = cache.NewModel()
	s.bus = notify.NewBus()
	s.index = relationindex.New(s.model)
	s.notifier = notifications.NewNotifier(testclock.NewClock(time.Now()))
	s.metrics = &fakeMetrics{}
	s.posted = make(chan func(), 16)
	s.received = make(chan notifications.Notification, 16)
	s.notified = make(map[delta.Kind]int)

	unsubscribe := s.notifier.Subscribe(func(n notifications.Notification) {
		s.received <- n
	})
	s.AddCleanup(func(*gc.C) { unsubscribe() })
	for _, kind := range delta.AllKinds {
		s.bus.Subscribe(kind, func(kind delta.Kind) {
			s.notified[kind]++
		})
	}
	s.populate(c)
}

func (s *coordinatorSuite) populate(c *gc.C) {
	charms := map[string]map[string]interface{}{
		"cs:wordpress-1": {
			"requires": map[string]interface{}{
				"db": map[string]interface{}{"interface": "mysql"},
			},
		},
		"cs:mysql-2": {
			"provides": map[string]interface{}{
				"db":    map[string]interface{}{"interface": "mysql"},
				"admin": map[string]interface{}{"interface": "mysql"},
			},
		},
	}
	for id, data := range charms {
		data["loaded"] = true
		_, err := s.model.CharmStore().Add(id, data)
		c.Assert(err, jc.ErrorIsNil)
	}
	for id, charmId := range map[string]string{"wordpress": "cs:wordpress-1", "mysql": "cs:mysql-2"} {
		_, err := s.model.ServiceStore().Add(id, map[string]interface{}{"charmId": charmId})
		c.Assert(err, jc.ErrorIsNil)
		s.index.RebuildFor(id)
	}
	s.model.MachineStore().Put("0", cache.Machine{})
	s.model.MachineStore().Put("1", cache.Machine{})
	s.model.MachineStore().Put("new7", cache.Machine{Pending: true})
	s.model.UnitStore().Put("mysql/0", cache.Unit{})
	s.model.ClearDirty()
}

func (s *coordinatorSuite) setup(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)
	s.api = mocks.NewMockCommandAPI(ctrl)
	coord, err := coordinator.New(coordinator.Config{
		Model:    s.model,
		Bus:      s.bus,
		Index:    s.index,
		API:      s.api,
		Notifier: s.notifier,
		Metrics:  s.metrics,
		Logger:   loggo.GetLogger("test"),
		Post: func(fn func()) {
			s.posted <- fn
		},
	})
	c.Assert(err, jc.ErrorIsNil)
	s.coord = coord
	s.AddCleanup(func(*gc.C) { coord.Wait() })
	return ctrl
}

func (s *coordinatorSuite) runPosted(c *gc.C, n int) {
	for i := 0; i < n; i++ {
		select {
		case fn := <-s.posted:
			fn()
		case <-time.After(testing.LongWait):
			c.Fatalf("timed out waiting for posted function %d", i)
		}
	}
}

func (s *coordinatorSuite) assertNotification(c *gc.C, title string) notifications.Notification {
	select {
	case n := <-s.received:
		c.Check(n.Level, gc.Equals, notifications.Error)
		c.Check(n.Title, gc.Equals, title)
		return n
	case <-time.After(testing.LongWait):
		c.Fatalf("timed out waiting for %q notification", title)
	}
	panic("unreachable")
}

func (s *coordinatorSuite) assertNoNotification(c *gc.C) {
	select {
	case n := <-s.received:
		c.Fatalf("unexpected notification %s", n)
	case <-time.After(testing.ShortWait):
	}
}

func (s *coordinatorSuite) unit(c *gc.C, id string) cache.Unit {
	unit, found := s.model.Unit(id)
	c.Assert(found, jc.IsTrue)
	return unit
}

func (s *coordinatorSuite) resetNotified() {
	s.notified = make(map[delta.Kind]int)
}

func (s *coordinatorSuite) TestValidateConfig(c *gc.C) {
	valid := coordinator.Config{
		Model:    s.model,
		Bus:      s.bus,
		Index:    s.index,
		API:      mocks.NewMockCommandAPI(gomock.NewController(c)),
		Notifier: s.notifier,
		Metrics:  s.metrics,
		Logger:   loggo.GetLogger("test"),
		Post:     func(func()) {},
	}
	c.Check(valid.Validate(), jc.ErrorIsNil)

	for i, test := range []struct {
		mutate func(*coordinator.Config)
		err    string
	}{{
		mutate: func(cfg *coordinator.Config) { cfg.Model = nil },
		err:    "nil Model not valid",
	}, {
		mutate: func(cfg *coordinator.Config) { cfg.API = nil },
		err:    "nil API not valid",
	}, {
		mutate: func(cfg *coordinator.Config) { cfg.Post = nil },
		err:    "nil Post not valid",
	}} {
		c.Logf("test %d: %q", i, test.err)
		config := valid
		test.mutate(&config)
		_, err := coordinator.New(config)
		c.Check(err, jc.ErrorIs, errors.NotValid)
		c.Check(err, gc.ErrorMatches, test.err)
	}
}

func (s *coordinatorSuite) TestPlaceOnExistingMachine(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().PlaceUnit(gomock.Any(), "mysql/0", "1").Return(nil)

	err := s.coord.PlaceUnit(context.Background(), "mysql/0", "1")
	c.Assert(err, jc.ErrorIsNil)

	unit := s.unit(c, "mysql/0")
	c.Check(unit.MachineId, gc.Equals, "1")
	c.Check(unit.Pending, jc.IsTrue)
	c.Check(s.notified, jc.DeepEquals, map[delta.Kind]int{delta.KindUnit: 1})

	s.runPosted(c, 1)
	c.Check(s.unit(c, "mysql/0").Pending, jc.IsFalse)
	c.Check(s.coord.InFlight(), gc.Equals, 0)
	c.Check(s.metrics.results, jc.DeepEquals, []string{metrics.PlacementConfirmed})
	s.assertNoNotification(c)
}

func (s *coordinatorSuite) TestPlaceOnBareMetal(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().PlaceUnit(gomock.Any(), "mysql/0", "0").Return(nil)

	err := s.coord.PlaceUnit(context.Background(), "mysql/0", "bare-metal:0")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.unit(c, "mysql/0").MachineId, gc.Equals, "0")
	s.runPosted(c, 1)
}

func (s *coordinatorSuite) TestPlaceOnNewMachineFailureReverts(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().AddMachines(gomock.Any(), []coordinator.MachineSpec{{}}).Return(nil, errors.New("quota exceeded"))

	err := s.coord.PlaceUnit(context.Background(), "mysql/0", "new")
	c.Assert(err, jc.ErrorIsNil)

	unit := s.unit(c, "mysql/0")
	c.Check(unit.MachineId, gc.Equals, "new0")
	machine, found := s.model.Machine("new0")
	c.Assert(found, jc.IsTrue)
	c.Check(machine.Pending, jc.IsTrue)

	s.resetNotified()
	s.runPosted(c, 1)

	unit = s.unit(c, "mysql/0")
	c.Check(unit.MachineId, gc.Equals, "")
	c.Check(unit.Pending, jc.IsFalse)
	c.Check(s.notified[delta.KindUnit], gc.Equals, 1)
	c.Check(s.model.MachineStore().Contains("new0"), jc.IsFalse)
	c.Check(s.metrics.results, jc.DeepEquals, []string{metrics.PlacementFailed})

	n := s.assertNotification(c, "Unit placement failed")
	c.Check(n.Message, gc.Matches, "placing mysql/0: creating machine: quota exceeded")
}

func (s *coordinatorSuite) TestPlaceOnNewMachineReplacesPlaceholder(c *gc.C) {
	defer s.setup(c).Finish()
	gomock.InOrder(
		s.api.EXPECT().AddMachines(gomock.Any(), []coordinator.MachineSpec{{}}).Return([]string{"4"}, nil),
		s.api.EXPECT().PlaceUnit(gomock.Any(), "mysql/0", "4").Return(nil),
	)

	err := s.coord.PlaceUnit(context.Background(), "mysql/0", "new")
	c.Assert(err, jc.ErrorIsNil)

	s.runPosted(c, 1)
	unit := s.unit(c, "mysql/0")
	c.Check(unit.MachineId, gc.Equals, "4")
	c.Check(unit.Pending, jc.IsTrue)
	c.Check(s.model.MachineStore().Contains("new0"), jc.IsFalse)
	c.Check(s.model.MachineStore().Contains("4"), jc.IsTrue)

	s.runPosted(c, 1)
	c.Check(s.unit(c, "mysql/0").Pending, jc.IsFalse)
	s.assertNoNotification(c)
}

func (s *coordinatorSuite) TestPlaceOnNewContainer(c *gc.C) {
	defer s.setup(c).Finish()
	gomock.InOrder(
		s.api.EXPECT().AddMachines(gomock.Any(), []coordinator.MachineSpec{{
			ContainerType: "lxc",
			ParentId:      "1",
		}}).Return([]string{"1/lxc/3"}, nil),
		s.api.EXPECT().PlaceUnit(gomock.Any(), "mysql/0", "1/lxc/3").Return(nil),
	)

	err := s.coord.PlaceUnit(context.Background(), "mysql/0", "lxc:1")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.unit(c, "mysql/0").MachineId, gc.Equals, "1/lxc/new0")
	placeholder, found := s.model.Machine("1/lxc/new0")
	c.Assert(found, jc.IsTrue)
	c.Check(placeholder.ParentId, gc.Equals, "1")

	s.runPosted(c, 2)
	unit := s.unit(c, "mysql/0")
	c.Check(unit.MachineId, gc.Equals, "1/lxc/3")
	c.Check(unit.Pending, jc.IsFalse)
	c.Check(s.model.MachinesByParent("1"), gc.HasLen, 1)
}

func (s *coordinatorSuite) TestPlacementFailsAfterMachineCreated(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().AddMachines(gomock.Any(), gomock.Any()).Return([]string{"4"}, nil)
	s.api.EXPECT().PlaceUnit(gomock.Any(), "mysql/0", "4").Return(errors.New("unit is dying"))

	err := s.coord.PlaceUnit(context.Background(), "mysql/0", "new")
	c.Assert(err, jc.ErrorIsNil)
	s.runPosted(c, 2)

	c.Check(s.unit(c, "mysql/0").MachineId, gc.Equals, "")
	// The controller created the machine, so it stays.
	c.Check(s.model.MachineStore().Contains("4"), jc.IsTrue)
	s.assertNotification(c, "Unit placement failed")
}

func (s *coordinatorSuite) TestPlacementSuperseded(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().AddMachines(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ []coordinator.MachineSpec) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	)
	s.api.EXPECT().PlaceUnit(gomock.Any(), "mysql/0", "1").Return(nil)

	err := s.coord.PlaceUnit(context.Background(), "mysql/0", "new")
	c.Assert(err, jc.ErrorIsNil)
	err = s.coord.PlaceUnit(context.Background(), "mysql/0", "1")
	c.Assert(err, jc.ErrorIsNil)

	c.Check(s.model.MachineStore().Contains("new0"), jc.IsFalse)
	c.Check(s.unit(c, "mysql/0").MachineId, gc.Equals, "1")

	// Completions of both requests arrive in either order; only the
	// latest one counts.
	s.runPosted(c, 2)
	unit := s.unit(c, "mysql/0")
	c.Check(unit.MachineId, gc.Equals, "1")
	c.Check(unit.Pending, jc.IsFalse)
	c.Check(s.metrics.results, jc.DeepEquals, []string{
		metrics.PlacementSuperseded,
		metrics.PlacementConfirmed,
	})
	s.assertNoNotification(c)
}

func (s *coordinatorSuite) TestPlaceUnitErrors(c *gc.C) {
	defer s.setup(c).Finish()

	for i, test := range []struct {
		unit   string
		target string
		err    string
	}{{
		unit:   "mysql/0",
		target: "kvm-ish:1",
		err:    `placement target "kvm-ish:1": container type "kvm-ish" not valid`,
	}, {
		unit:   "mysql/9",
		target: "1",
		err:    `unit "mysql/9" not found`,
	}, {
		unit:   "mysql/0",
		target: "42",
		err:    `machine "42" not found`,
	}, {
		unit:   "mysql/0",
		target: "lxc:42",
		err:    `machine "42" not found`,
	}, {
		unit:   "mysql/0",
		target: "new7",
		err:    `machine "new7" not yet available`,
	}, {
		unit:   "mysql/0",
		target: "lxc:0/lxc/new3",
		err:    `machine "0/lxc/new3" not yet available`,
	}} {
		c.Logf("test %d: %q on %q", i, test.unit, test.target)
		err := s.coord.PlaceUnit(context.Background(), test.unit, test.target)
		c.Check(err, gc.ErrorMatches, test.err)
	}
	c.Check(s.unit(c, "mysql/0").MachineId, gc.Equals, "")
	c.Check(s.notified, gc.HasLen, 0)
}

func (s *coordinatorSuite) TestAddRelation(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().AddRelation(gomock.Any(), []string{"wordpress:db", "mysql:db"}).Return(nil)

	err := s.coord.AddRelationEndpoints(context.Background(), "wordpress", "mysql:db")
	c.Assert(err, jc.ErrorIsNil)

	relations := s.model.RelationsForService("mysql")
	c.Assert(relations, gc.HasLen, 1)
	rel := relations[0]
	c.Check(rel.Id, gc.Matches, "pending-.*")
	c.Check(rel.Pending, jc.IsTrue)
	c.Check(rel.Interface, gc.Equals, "mysql")
	c.Check(s.notified, jc.DeepEquals, map[delta.Kind]int{delta.KindRelation: 1})

	provides := s.index.EndpointsFor("mysql").Provides
	c.Assert(provides, gc.HasLen, 1)
	c.Check(provides[0].RemoteServiceId, gc.Equals, "wordpress")

	// The relation stays pending until the controller reports it.
	s.runPosted(c, 1)
	rel, found := s.model.Relation(rel.Id)
	c.Assert(found, jc.IsTrue)
	c.Check(rel.Pending, jc.IsTrue)
	s.assertNoNotification(c)
}

func (s *coordinatorSuite) TestAddRelationFailure(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().AddRelation(gomock.Any(), gomock.Any()).Return(errors.New("permission denied"))

	err := s.coord.AddRelationEndpoints(context.Background(), "wordpress:db", "mysql:admin")
	c.Assert(err, jc.ErrorIsNil)

	s.resetNotified()
	s.runPosted(c, 1)
	c.Check(s.model.RelationsForService("mysql"), gc.HasLen, 0)
	c.Check(s.index.EndpointsFor("mysql").Provides, gc.HasLen, 0)
	c.Check(s.notified, jc.DeepEquals, map[delta.Kind]int{delta.KindRelation: 1})
	n := s.assertNotification(c, "Relation failed")
	c.Check(n.Message, gc.Equals, "adding relation: permission denied")
}

func (s *coordinatorSuite) TestAddRelationErrors(c *gc.C) {
	defer s.setup(c).Finish()

	err := s.coord.AddRelationEndpoints(context.Background(), "wordpress", "mysql")
	c.Check(err, gc.ErrorMatches, `ambiguous relation: "wordpress" "mysql" could refer to "wordpress:db mysql:admin"; "wordpress:db mysql:db"`)

	err = s.coord.AddRelationEndpoints(context.Background(), "wordpress", "mysql:nope")
	c.Check(err, jc.ErrorIs, errors.NotFound)

	err = s.coord.AddRelationEndpoints(context.Background(), "wordpress", "haproxy")
	c.Check(err, gc.ErrorMatches, `service "haproxy" not found`)

	c.Check(s.model.RelationsForService("wordpress"), gc.HasLen, 0)
}

func (s *coordinatorSuite) TestAddUnits(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().AddUnits(gomock.Any(), "mysql", 2).Return([]string{"mysql/1", "mysql/2"}, nil)

	err := s.coord.AddUnits(context.Background(), "mysql", 2)
	c.Assert(err, jc.ErrorIsNil)
	s.runPosted(c, 1)
	s.assertNoNotification(c)
	// Units arrive through the delta stream, not the command result.
	c.Check(s.model.UnitsForService("mysql"), gc.HasLen, 1)
}

func (s *coordinatorSuite) TestAddUnitsFailure(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().AddUnits(gomock.Any(), "mysql", 1).Return(nil, errors.New("boom"))

	err := s.coord.AddUnits(context.Background(), "mysql", 1)
	c.Assert(err, jc.ErrorIsNil)
	s.runPosted(c, 1)
	n := s.assertNotification(c, "Adding units failed")
	c.Check(n.Message, gc.Equals, "adding units to mysql: boom")
}

func (s *coordinatorSuite) TestAddUnitsErrors(c *gc.C) {
	defer s.setup(c).Finish()

	err := s.coord.AddUnits(context.Background(), "mysql", 0)
	c.Check(err, gc.ErrorMatches, "unit count 0 not valid")
	err = s.coord.AddUnits(context.Background(), "nope", 1)
	c.Check(err, gc.ErrorMatches, `service "nope" not found`)
}

func (s *coordinatorSuite) TestDeploy(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().Deploy(gomock.Any(), "cs:precise/haproxy-7", "haproxy", 1).Return(nil)

	err := s.coord.Deploy(context.Background(), "cs:precise/haproxy-7", "", 1)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.notified, jc.DeepEquals, map[delta.Kind]int{
		delta.KindService: 1,
		delta.KindCharm:   1,
	})
	svc, found := s.model.Service("haproxy")
	c.Assert(found, jc.IsTrue)
	c.Check(svc.Pending, jc.IsTrue)
	c.Check(svc.CharmId, gc.Equals, "cs:precise/haproxy-7")
	ch, found := s.model.Charm("cs:precise/haproxy-7")
	c.Assert(found, jc.IsTrue)
	c.Check(ch.Loaded, jc.IsFalse)

	s.runPosted(c, 1)
	s.assertNoNotification(c)
	// The service stays pending until the controller reports it.
	svc, _ = s.model.Service("haproxy")
	c.Check(svc.Pending, jc.IsTrue)
}

func (s *coordinatorSuite) TestDeployFailureReverts(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().Deploy(gomock.Any(), "cs:mysql-2", "db2", 1).Return(errors.New("quota exceeded"))

	err := s.coord.Deploy(context.Background(), "cs:mysql-2", "db2", 1)
	c.Assert(err, jc.ErrorIsNil)

	s.resetNotified()
	s.runPosted(c, 1)
	_, found := s.model.Service("db2")
	c.Check(found, jc.IsFalse)
	c.Check(s.notified, jc.DeepEquals, map[delta.Kind]int{delta.KindService: 1})
	n := s.assertNotification(c, "Deploy failed")
	c.Check(n.Message, gc.Equals, "deploying db2: quota exceeded")
}

func (s *coordinatorSuite) TestDeployFailureKeepsConfirmedService(c *gc.C) {
	defer s.setup(c).Finish()
	s.api.EXPECT().Deploy(gomock.Any(), "cs:mysql-2", "db2", 1).Return(errors.New("timed out"))

	err := s.coord.Deploy(context.Background(), "cs:mysql-2", "db2", 1)
	c.Assert(err, jc.ErrorIsNil)
	s.model.ServiceStore().Mutate("db2", func(svc *cache.Service) { svc.Pending = false })

	s.runPosted(c, 1)
	_, found := s.model.Service("db2")
	c.Check(found, jc.IsTrue)
	s.assertNotification(c, "Deploy failed")
}

func (s *coordinatorSuite) TestDeployErrors(c *gc.C) {
	defer s.setup(c).Finish()

	err := s.coord.Deploy(context.Background(), "", "x", 1)
	c.Check(err, gc.ErrorMatches, "empty charm URL not valid")
	err = s.coord.Deploy(context.Background(), "cs:mysql-2", "x", -1)
	c.Check(err, gc.ErrorMatches, "unit count -1 not valid")
	err = s.coord.Deploy(context.Background(), "cs:mysql-2", "", 1)
	c.Check(err, jc.ErrorIs, errors.AlreadyExists)
	c.Check(err, gc.ErrorMatches, `service "mysql" already exists`)
}

func (s *coordinatorSuite) TestCharmName(c *gc.C) {
	for url, name := range map[string]string{
		"cs:precise/wordpress-4":          "wordpress",
		"cs:~user/precise/mysql-slave-12": "mysql-slave",
		"local:haproxy":                   "haproxy",
		"ch:postgresql":                   "postgresql",
		"mongodb-next":                    "mongodb-next",
	} {
		c.Check(coordinator.CharmName(url), gc.Equals, name, gc.Commentf("url %q", url))
	}
}
