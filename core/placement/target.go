// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package placement defines where a unit can be placed and how placement
// targets are listed.
package placement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// ContainerType names a kind of container that can host units.
type ContainerType string

const (
	LXC ContainerType = "lxc"
	KVM ContainerType = "kvm"
	LXD ContainerType = "lxd"
)

// ContainerTypes holds the container types that may be requested.
var ContainerTypes = []ContainerType{LXC, KVM, LXD}

// Valid returns whether the container type is known.
func (t ContainerType) Valid() bool {
	for _, known := range ContainerTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TargetKind distinguishes the ways a unit can be placed.
type TargetKind int

const (
	// Existing places the unit on a machine or container that is
	// already in the model.
	Existing TargetKind = iota
	// NewMachine places the unit on a machine created for it.
	NewMachine
	// NewContainer places the unit in a container created for it on a
	// parent machine.
	NewContainer
	// BareMetal places the unit directly on the parent machine.
	BareMetal
)

// String implements fmt.Stringer.
func (k TargetKind) String() string {
	switch k {
	case Existing:
		return "existing"
	case NewMachine:
		return "new machine"
	case NewContainer:
		return "new container"
	case BareMetal:
		return "bare metal"
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

const (
	newMachineTarget = "new"
	bareMetalPrefix  = "bare-metal"
)

// Target is a parsed placement target.
type Target struct {
	Kind TargetKind
	// MachineId is the existing machine or container, for Existing
	// targets, and the parent machine for NewContainer and BareMetal.
	MachineId     string
	ContainerType ContainerType
}

// ExistingTarget returns a target naming an existing machine or container.
func ExistingTarget(machineId string) Target {
	return Target{Kind: Existing, MachineId: machineId}
}

// NewMachineTarget returns a target requesting a new machine.
func NewMachineTarget() Target {
	return Target{Kind: NewMachine}
}

// NewContainerTarget returns a target requesting a new container of the
// given type on parentId.
func NewContainerTarget(ctype ContainerType, parentId string) Target {
	return Target{Kind: NewContainer, MachineId: parentId, ContainerType: ctype}
}

// BareMetalTarget returns a target placing a unit directly on parentId.
func BareMetalTarget(parentId string) Target {
	return Target{Kind: BareMetal, MachineId: parentId}
}

// String returns the textual form of the target, as accepted by
// ParseTarget.
func (t Target) String() string {
	switch t.Kind {
	case NewMachine:
		return newMachineTarget
	case NewContainer:
		return string(t.ContainerType) + ":" + t.MachineId
	case BareMetal:
		return bareMetalPrefix + ":" + t.MachineId
	}
	return t.MachineId
}

// MachineToPlace returns the id of the machine the unit ends up on when
// the target refers to a machine that already exists, and false when a
// machine or container has to be created first.
func (t Target) MachineToPlace() (string, bool) {
	switch t.Kind {
	case Existing, BareMetal:
		return t.MachineId, true
	}
	return "", false
}

// ParseTarget parses a placement target. Accepted forms are "new",
// "<container-type>:<parent>", "bare-metal:<parent>" and the id of a
// machine or container.
func ParseTarget(s string) (Target, error) {
	if s == newMachineTarget {
		return NewMachineTarget(), nil
	}
	if prefix, parent, ok := strings.Cut(s, ":"); ok {
		if !IsMachineId(parent) {
			return Target{}, errors.NotValidf("placement target %q: parent machine %q", s, parent)
		}
		if prefix == bareMetalPrefix {
			return BareMetalTarget(parent), nil
		}
		ctype := ContainerType(prefix)
		if !ctype.Valid() {
			return Target{}, errors.NotValidf("placement target %q: container type %q", s, prefix)
		}
		return NewContainerTarget(ctype, parent), nil
	}
	if !IsMachineId(s) {
		return Target{}, errors.NotValidf("placement target %q", s)
	}
	return ExistingTarget(s), nil
}

var placeholderSegment = regexp.MustCompile(`^new[0-9]+$`)

// IsMachineId reports whether id names a machine or container, including
// the placeholder ids given to machines that have been requested but not
// yet created.
func IsMachineId(id string) bool {
	if names.IsValidMachine(id) {
		return true
	}
	parts := strings.Split(id, "/")
	if len(parts)%2 == 0 {
		return false
	}
	for i, part := range parts {
		if i%2 == 1 {
			if !ContainerType(part).Valid() {
				return false
			}
			continue
		}
		if !isNumber(part) && !placeholderSegment.MatchString(part) {
			return false
		}
	}
	return true
}

// IsPlaceholder reports whether id contains a placeholder segment.
func IsPlaceholder(id string) bool {
	for _, part := range strings.Split(id, "/") {
		if placeholderSegment.MatchString(part) {
			return true
		}
	}
	return false
}

// PlaceholderId returns the placeholder for the n'th pending machine or
// container. An empty parentId yields a bare machine placeholder.
func PlaceholderId(parentId string, ctype ContainerType, n int) string {
	if parentId == "" {
		return fmt.Sprintf("new%d", n)
	}
	return fmt.Sprintf("%s/%s/new%d", parentId, ctype, n)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
