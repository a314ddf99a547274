// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status

// Agent and workload status values reported by the controller's watcher,
// which are folded into the agent state shown for a unit.
const (
	agentAllocating = "allocating"
	agentError      = "error"
	agentLost       = "lost"

	workloadError       = "error"
	workloadTerminated  = "terminated"
	workloadMaintenance = "maintenance"
	workloadUnknown     = "unknown"
)

// MessageInstalling is the workload message set while the charm is
// being installed.
const MessageInstalling = "installing charm software"

// FromUnitStatus folds a unit's separate agent and workload statuses into
// a single agent state. An empty result means the statuses were not
// recognised.
func FromUnitStatus(agent, workload, workloadMessage string) Status {
	switch agent {
	case "":
		return ""
	case agentAllocating:
		return Pending
	case agentError:
		return Error
	case agentLost:
		return Down
	}
	switch workload {
	case workloadError:
		return Error
	case workloadTerminated:
		return Stopped
	case workloadMaintenance:
		if workloadMessage == MessageInstalling {
			return Installed
		}
	case workloadUnknown, "":
		return Pending
	}
	return Started
}

// FromMachineStatus returns the agent state for a machine's agent
// status; machine agents already report the legacy vocabulary.
func FromMachineStatus(agent string) Status {
	s := Status(agent)
	if s.KnownMachineStatus() {
		return s
	}
	return ""
}
