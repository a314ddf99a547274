// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

// Relation roles as declared in charm metadata.
const (
	RoleRequirer = "requirer"
	RoleProvider = "provider"
	RolePeer     = "peer"
)

// CharmRelation describes one relation declared in charm metadata.
type CharmRelation struct {
	Name      string `json:"name,omitempty"`
	Interface string `json:"interface"`
	Scope     string `json:"scope,omitempty"`
	Optional  bool   `json:"optional,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Charm holds charm metadata keyed by the fully qualified charm URL.
// Metadata is populated once; Loaded becomes true when it has been.
type Charm struct {
	Id       string                   `json:"id"`
	Name     string                   `json:"name,omitempty"`
	Revision int                      `json:"revision,omitempty"`
	Requires map[string]CharmRelation `json:"requires,omitempty"`
	Provides map[string]CharmRelation `json:"provides,omitempty"`
	Peers    map[string]CharmRelation `json:"peers,omitempty"`
	Loaded   bool                     `json:"loaded,omitempty"`
}

func fixupCharm(id string, ch *Charm) {
	ch.Id = id
	fill := func(rels map[string]CharmRelation) {
		for name, rel := range rels {
			if rel.Name == "" {
				rel.Name = name
				rels[name] = rel
			}
		}
	}
	fill(ch.Requires)
	fill(ch.Provides)
	fill(ch.Peers)
}
