// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package status holds the agent state vocabulary reported for units and
// machines, and the coarse grouping used when listing them.
package status

import (
	"github.com/juju/jujugui/core/cache"
)

// Status is an agent state as reported by the controller.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

const (
	// Status values common to machine and unit agents.

	// Pending is set when:
	// The entity is not yet participating in the model.
	Pending Status = "pending"

	// Started is set when:
	// The entity is actively participating in the model.
	Started Status = "started"

	// Stopped is set when:
	// The agent will perform no further action.
	Stopped Status = "stopped"

	// Error means the entity requires human intervention
	// in order to operate correctly.
	Error Status = "error"

	// Down is set when:
	// The agent ought to be signalling activity, but it cannot be
	// detected.
	Down Status = "down"
)

const (
	// Status values specific to unit agents.

	// Installed is set when the charm has been installed but not yet
	// started.
	Installed Status = "installed"

	// Dying is set while the unit is being torn down.
	Dying Status = "dying"

	// InstallError means the charm's install hook failed.
	InstallError Status = "install_error"

	// StartError means the charm's start hook failed.
	StartError Status = "start_error"

	// ConfigChangedError means the charm's config-changed hook failed.
	ConfigChangedError Status = "config_changed_error"
)

// KnownUnitStatus returns true if status has a known value for a unit
// agent.
func (s Status) KnownUnitStatus() bool {
	switch s {
	case
		Pending,
		Installed,
		Started,
		Stopped,
		Dying,
		Error,
		InstallError,
		StartError,
		ConfigChangedError,
		Down:
		return true
	}
	return false
}

// KnownMachineStatus returns true if status has a known value for a machine.
func (s Status) KnownMachineStatus() bool {
	switch s {
	case
		Error,
		Started,
		Pending,
		Stopped,
		Down:
		return true
	}
	return false
}

// IsError returns true for every status reporting a failure.
func (s Status) IsError() bool {
	switch s {
	case Error, InstallError, StartError, ConfigChangedError:
		return true
	}
	return false
}

// Group is the coarse bucket a unit falls into in status listings.
type Group string

const (
	GroupPending     Group = "pending"
	GroupRunning     Group = "running"
	GroupError       Group = "error"
	GroupUncommitted Group = "uncommitted"
)

// Groups holds every group in display order.
var Groups = []Group{GroupError, GroupPending, GroupRunning, GroupUncommitted}

// Classify returns the group for an agent state. Unknown and empty states
// count as pending.
func Classify(s Status) Group {
	switch {
	case s.IsError():
		return GroupError
	case s == Started:
		return GroupRunning
	}
	return GroupPending
}

// ClassifyUnit returns the group for a unit. Units the controller has not
// confirmed yet are uncommitted regardless of their agent state.
func ClassifyUnit(u cache.Unit) Group {
	if u.Pending {
		return GroupUncommitted
	}
	return Classify(Status(u.AgentState))
}

// GroupUnits buckets units by group, preserving their order within each
// bucket.
func GroupUnits(units []cache.Unit) map[Group][]cache.Unit {
	groups := make(map[Group][]cache.Unit)
	for _, u := range units {
		g := ClassifyUnit(u)
		groups[g] = append(groups[g], u)
	}
	return groups
}
