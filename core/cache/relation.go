// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

import (
	"github.com/juju/collections/set"
)

// Relation scopes.
const (
	ScopeGlobal    = "global"
	ScopeContainer = "container"
)

// Endpoint is one side of a relation.
type Endpoint struct {
	ServiceId string `json:"serviceId"`
	Role      string `json:"role,omitempty"`
	Name      string `json:"name"`
}

// Relation represents a relation between one service (a peer relation)
// or two services.
type Relation struct {
	Id        string     `json:"id"`
	Interface string     `json:"interface,omitempty"`
	Scope     string     `json:"scope,omitempty"`
	Endpoints []Endpoint `json:"endpoints"`

	// Pending is set on relations added optimistically by the client.
	Pending bool `json:"pending,omitempty"`
}

// ServiceIds returns the ids of the services taking part in the relation.
func (r Relation) ServiceIds() []string {
	ids := set.NewStrings()
	for _, ep := range r.Endpoints {
		ids.Add(ep.ServiceId)
	}
	return ids.SortedValues()
}

// Involves reports whether serviceId is one of the relation's endpoints.
func (r Relation) Involves(serviceId string) bool {
	for _, ep := range r.Endpoints {
		if ep.ServiceId == serviceId {
			return true
		}
	}
	return false
}

// IsPeer reports whether the relation is a peer relation.
func (r Relation) IsPeer() bool {
	return len(r.Endpoints) == 1
}

func fixupRelation(id string, r *Relation) {
	r.Id = id
	if r.Scope == "" {
		r.Scope = ScopeGlobal
	}
}
