// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import (
	"slices"
	"strings"

	"github.com/juju/naturalsort"

	"github.com/juju/jujugui/core/cache"
)

// Entry is one choice in a placement target listing.
type Entry struct {
	// Target is the textual target to pass when placing a unit.
	Target      string
	DisplayName string
	// Pending is set for machines and containers the controller has not
	// confirmed yet.
	Pending bool
}

// SortMachineIds sorts machine ids in place, comparing numeric segments
// numerically so that "2" comes before "10".
func SortMachineIds(ids []string) []string {
	return naturalsort.Sort(ids)
}

// MachineTargets lists the bare machines of the model, sorted numerically
// by id.
func MachineTargets(model cache.Reader) []Entry {
	machines := make(map[string]cache.Machine)
	ids := make([]string, 0)
	for _, m := range model.MachinesByParent("") {
		machines[m.Id] = m
		ids = append(ids, m.Id)
	}
	entries := make([]Entry, 0, len(ids))
	for _, id := range SortMachineIds(ids) {
		m := machines[id]
		entries = append(entries, Entry{
			Target:      ExistingTarget(m.Id).String(),
			DisplayName: m.DisplayName(),
			Pending:     m.Pending,
		})
	}
	return entries
}

// ContainerTargets lists the places a unit can go on parentId: first the
// parent itself as "bare metal", then its containers sorted numerically by
// their trailing segment.
func ContainerTargets(model cache.Reader, parentId string) []Entry {
	containers := model.MachinesByParent(parentId)
	slices.SortStableFunc(containers, func(x, y cache.Machine) int {
		a, b := cache.ChildIndex(x.Id), cache.ChildIndex(y.Id)
		if a != b {
			if lessNatural(a, b) {
				return -1
			}
			return 1
		}
		return strings.Compare(x.Id, y.Id)
	})

	parent, _ := model.Machine(parentId)
	entries := make([]Entry, 0, len(containers)+1)
	entries = append(entries, Entry{
		Target:      BareMetalTarget(parentId).String(),
		DisplayName: parentId + "/bare metal",
		Pending:     parent.Pending,
	})
	for _, m := range containers {
		entries = append(entries, Entry{
			Target:      ExistingTarget(m.Id).String(),
			DisplayName: m.DisplayName(),
			Pending:     m.Pending,
		})
	}
	return entries
}

func lessNatural(a, b string) bool {
	if a == b {
		return false
	}
	sorted := naturalsort.Sort([]string{a, b})
	return sorted[0] == a
}
