// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

import (
	"strings"
)

// Machine represents a machine or container in the model. Containers have
// ids of the form <parent>/<container-type>/<n>.
type Machine struct {
	Id             string `json:"id"`
	PublicAddress  string `json:"publicAddress,omitempty"`
	InstanceState  string `json:"instanceState,omitempty"`
	AgentState     string `json:"agentState,omitempty"`
	AgentStateInfo string `json:"agentStateInfo,omitempty"`
	Series         string `json:"series,omitempty"`

	// ParentId is derived from the id; it is empty for bare machines.
	ParentId string `json:"parentId,omitempty"`

	// Pending is set on machines created optimistically by the client
	// that the controller has not yet confirmed.
	Pending bool `json:"pending,omitempty"`
}

// IsContainer reports whether the machine is a container.
func (m Machine) IsContainer() bool {
	return m.ParentId != ""
}

// DisplayName returns the name shown for the machine in placement lists.
func (m Machine) DisplayName() string {
	return m.Id
}

func fixupMachine(id string, m *Machine) {
	m.Id = id
	m.ParentId = ParentId(id)
}

// ParentId returns the id of the machine hosting the container with the
// given id, or the empty string if id names a bare machine. Resolution is
// purely lexical.
func ParentId(id string) string {
	parts := strings.Split(id, "/")
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], "/")
}

// IsContainer reports whether id names a container.
func IsContainer(id string) bool {
	return ParentId(id) != ""
}

// ContainerType returns the container type segment of a container id, or
// the empty string for a bare machine.
func ContainerType(id string) string {
	parts := strings.Split(id, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2]
}

// ChildIndex returns the trailing segment of a machine or container id.
func ChildIndex(id string) string {
	return id[strings.LastIndex(id, "/")+1:]
}

// isChildOf reports whether id names a container directly hosted by
// parentId; an empty parentId matches bare machines.
func isChildOf(id, parentId string) bool {
	return ParentId(id) == parentId
}
