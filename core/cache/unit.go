// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

import (
	"strings"
)

// Unit represents a unit of a service in the model.
type Unit struct {
	Id             string `json:"id"`
	ServiceId      string `json:"serviceId"`
	MachineId      string `json:"machineId,omitempty"`
	AgentState     string `json:"agentState,omitempty"`
	AgentStateInfo string `json:"agentStateInfo,omitempty"`
	PublicAddress  string `json:"publicAddress,omitempty"`
	IsSubordinate  bool   `json:"isSubordinate,omitempty"`

	// Pending marks a placement made optimistically by the client that
	// the controller has not yet confirmed.
	Pending bool `json:"pending,omitempty"`
}

// IsPlaced reports whether the unit is assigned to a machine.
func (u Unit) IsPlaced() bool {
	return u.MachineId != ""
}

func fixupUnit(id string, u *Unit) {
	u.Id = id
	// The owning service is always the name prefix.
	if i := strings.LastIndex(id, "/"); i > 0 {
		u.ServiceId = id[:i]
	}
}
