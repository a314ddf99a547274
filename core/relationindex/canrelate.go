// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationindex

import (
	"github.com/juju/collections/set"

	"github.com/juju/jujugui/core/cache"
)

// EndpointPair is a candidate relation between two services.
type EndpointPair struct {
	Interface string
	Scope     string
	// Endpoints holds the requirer first. Peer candidates hold a single
	// endpoint.
	Endpoints []cache.Endpoint
}

// CanRelate returns the relations that could be added between services a
// and b, matching the requirer endpoints of one charm against the
// provider endpoints of the other by interface. Pairs that are already
// related are excluded. When a and b are the same service the peer
// endpoints of its charm are returned. Services whose charm metadata is
// unknown have no candidates.
func (idx *Index) CanRelate(a, b string) []EndpointPair {
	charmA, found := idx.model.CharmForService(a)
	if !found {
		return nil
	}
	existing := idx.model.RelationsForService(a)

	var pairs []EndpointPair
	if a == b {
		for _, name := range sortedNames(charmA.Peers) {
			peer := charmA.Peers[name]
			ep := cache.Endpoint{ServiceId: a, Role: cache.RolePeer, Name: name}
			pair := EndpointPair{
				Interface: peer.Interface,
				Scope:     scope(peer, peer),
				Endpoints: []cache.Endpoint{ep},
			}
			if !related(existing, pair) {
				pairs = append(pairs, pair)
			}
		}
		return pairs
	}

	charmB, found := idx.model.CharmForService(b)
	if !found {
		return nil
	}
	match := func(reqService string, requires map[string]cache.CharmRelation, provService string, provides map[string]cache.CharmRelation) {
		for _, reqName := range sortedNames(requires) {
			req := requires[reqName]
			for _, provName := range sortedNames(provides) {
				prov := provides[provName]
				if req.Interface != prov.Interface {
					continue
				}
				pair := EndpointPair{
					Interface: req.Interface,
					Scope:     scope(req, prov),
					Endpoints: []cache.Endpoint{
						{ServiceId: reqService, Role: cache.RoleRequirer, Name: reqName},
						{ServiceId: provService, Role: cache.RoleProvider, Name: provName},
					},
				}
				if !related(existing, pair) {
					pairs = append(pairs, pair)
				}
			}
		}
	}
	match(a, charmA.Requires, b, charmB.Provides)
	match(b, charmB.Requires, a, charmA.Provides)
	return pairs
}

func scope(x, y cache.CharmRelation) string {
	if x.Scope == cache.ScopeContainer || y.Scope == cache.ScopeContainer {
		return cache.ScopeContainer
	}
	return cache.ScopeGlobal
}

// related reports whether a live relation already joins the endpoints of
// pair.
func related(relations []cache.Relation, pair EndpointPair) bool {
	for _, rel := range relations {
		if len(rel.Endpoints) != len(pair.Endpoints) {
			continue
		}
		matched := 0
		for _, want := range pair.Endpoints {
			for _, got := range rel.Endpoints {
				if got.ServiceId == want.ServiceId && got.Name == want.Name {
					matched++
					break
				}
			}
		}
		if matched == len(pair.Endpoints) {
			return true
		}
	}
	return false
}

func sortedNames(rels map[string]cache.CharmRelation) []string {
	names := set.NewStrings()
	for name := range rels {
		names.Add(name)
	}
	return names.SortedValues()
}
