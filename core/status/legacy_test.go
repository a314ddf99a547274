// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status_test

import (
	gc "gopkg.in/check.v1"

	"github.com/juju/jujugui/core/status"
)

func (s *statusSuite) TestFromUnitStatus(c *gc.C) {
	for i, test := range []struct {
		agent, workload, message string
		expected                 status.Status
	}{
		{"", "", "", ""},
		{"allocating", "waiting", "", status.Pending},
		{"error", "active", "", status.Error},
		{"lost", "active", "", status.Down},
		{"idle", "error", "hook failed", status.Error},
		{"idle", "terminated", "", status.Stopped},
		{"executing", "maintenance", status.MessageInstalling, status.Installed},
		{"executing", "maintenance", "configuring", status.Started},
		{"idle", "unknown", "", status.Pending},
		{"idle", "active", "ready", status.Started},
		{"idle", "blocked", "missing relation", status.Started},
	} {
		c.Logf("test %d: %q %q %q", i, test.agent, test.workload, test.message)
		c.Check(status.FromUnitStatus(test.agent, test.workload, test.message), gc.Equals, test.expected)
	}
}

func (s *statusSuite) TestFromMachineStatus(c *gc.C) {
	c.Check(status.FromMachineStatus("started"), gc.Equals, status.Started)
	c.Check(status.FromMachineStatus("down"), gc.Equals, status.Down)
	c.Check(status.FromMachineStatus("rebooting"), gc.Equals, status.Status(""))
}
