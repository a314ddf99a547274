// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/testing"
	gc "gopkg.in/check.v1"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/internal/notifications"
)

type viewSuite struct {
	testing.IsolationSuite

	model    *cache.Model
	bus      *notify.Bus
	notifier *notifications.Notifier
	logger   *recordingLogger
	view     *logView
}

var _ = gc.Suite(&viewSuite{})

func (s *viewSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.model = cache.NewModel()
	s.bus = notify.NewBus()
	s.notifier = notifications.NewNotifier(clock.WallClock)
	s.logger = &recordingLogger{lines: make(chan string, 10)}
	s.view = newLogView(s.model, s.bus, s.notifier, s.logger)
	s.AddCleanup(func(*gc.C) { s.view.Close() })
}

func (s *viewSuite) TestSummary(c *gc.C) {
	c.Check(s.view.summary(), gc.Equals, "no units")

	s.model.UnitStore().Put("mysql/0", cache.Unit{MachineId: "0", AgentState: "started"})
	s.model.UnitStore().Put("mysql/1", cache.Unit{AgentState: "error"})
	s.model.UnitStore().Put("mysql/2", cache.Unit{Pending: true})
	c.Check(s.view.summary(), gc.Equals, "1 error, 1 running, 1 uncommitted, unplaced mysql/1 mysql/2")
}

func (s *viewSuite) TestLogsChanges(c *gc.C) {
	s.model.UnitStore().Put("wordpress/0", cache.Unit{MachineId: "0", AgentState: "started"})
	notify.Commit(s.bus, s.model)

	c.Check(s.next(c), gc.Equals, "INFO unit changed: 1 running")
}

func (s *viewSuite) TestLogsPlacementTargets(c *gc.C) {
	s.model.MachineStore().Put("10", cache.Machine{})
	s.model.MachineStore().Put("2", cache.Machine{})
	s.model.MachineStore().Put("2/lxc/0", cache.Machine{})
	s.model.MachineStore().Put("2/lxc/new1", cache.Machine{Pending: true})
	notify.Commit(s.bus, s.model)

	c.Check(s.next(c), gc.Equals, "INFO machine changed: no units")
	c.Check(s.next(c), gc.Equals,
		"INFO placement targets: new, 2/bare metal, 2/lxc/0, 2/lxc/new1 (pending), 10/bare metal")
}

func (s *viewSuite) TestLogsNotifications(c *gc.C) {
	wait := s.notifier.Publish(notifications.Notification{
		Level:   notifications.Error,
		Title:   "Unit placement failed",
		Message: "placing mysql/0: boom",
	})
	wait()
	c.Check(s.next(c), gc.Equals, "ERROR Unit placement failed: placing mysql/0: boom")
}

func (s *viewSuite) TestCloseUnsubscribes(c *gc.C) {
	s.view.Close()
	s.bus.Notify(delta.KindUnit)
	s.bus.Flush()
	select {
	case line := <-s.logger.lines:
		c.Fatalf("unexpected log %q", line)
	case <-time.After(testing.ShortWait):
	}
}

func (s *viewSuite) next(c *gc.C) string {
	select {
	case line := <-s.logger.lines:
		return line
	case <-time.After(testing.LongWait):
		c.Fatalf("timed out waiting for log line")
	}
	panic("unreachable")
}

type recordingLogger struct {
	lines chan string
}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.lines <- "INFO " + fmt.Sprintf(format, args...)
}

func (l *recordingLogger) Warningf(format string, args ...interface{}) {
	l.lines <- "WARNING " + fmt.Sprintf(format, args...)
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.lines <- "ERROR " + fmt.Sprintf(format, args...)
}
