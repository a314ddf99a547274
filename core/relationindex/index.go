// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package relationindex maintains, per service, the endpoints currently
// in use by live relations. The index is derived from the model's
// relations and can always be rebuilt from them.
package relationindex

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/loggo/v2"

	"github.com/juju/jujugui/core/cache"
)

var logger = loggo.GetLogger("jujugui.core.relationindex")

// EndpointRef describes one of a service's endpoints and the relation that
// uses it.
type EndpointRef struct {
	RelationId string
	Name       string
	Interface  string
	Role       string
	Scope      string
	// RemoteServiceId is the service at the other end of the relation. It
	// is the service itself for peer relations.
	RemoteServiceId string
	RemoteName      string
}

// Endpoints holds the endpoints of a service grouped by role.
type Endpoints struct {
	Requires []EndpointRef
	Provides []EndpointRef
	Peers    []EndpointRef
}

// Index caches the Endpoints of every service.
type Index struct {
	model cache.Reader

	mu        sync.RWMutex
	endpoints map[string]Endpoints
}

// New returns an empty index over model.
func New(model cache.Reader) *Index {
	return &Index{
		model:     model,
		endpoints: make(map[string]Endpoints),
	}
}

// EndpointsFor returns the cached endpoints of the service. A service that
// has never been indexed has no endpoints.
func (idx *Index) EndpointsFor(serviceId string) Endpoints {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	eps, found := idx.endpoints[serviceId]
	if !found {
		return Endpoints{Requires: []EndpointRef{}, Provides: []EndpointRef{}, Peers: []EndpointRef{}}
	}
	return Endpoints{
		Requires: append([]EndpointRef{}, eps.Requires...),
		Provides: append([]EndpointRef{}, eps.Provides...),
		Peers:    append([]EndpointRef{}, eps.Peers...),
	}
}

// RebuildFor recomputes the endpoints of one service from the live
// relations in the model. A service that no longer exists is dropped from
// the index.
func (idx *Index) RebuildFor(serviceId string) {
	eps, found := idx.compute(serviceId)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !found {
		delete(idx.endpoints, serviceId)
		return
	}
	idx.endpoints[serviceId] = eps
}

// OnRelationChanged rebuilds the entries of every service the relation
// touches. It is called after a relation has been added, changed or
// removed.
func (idx *Index) OnRelationChanged(rel cache.Relation) {
	for _, serviceId := range rel.ServiceIds() {
		idx.RebuildFor(serviceId)
	}
}

// OnServiceRemoved drops the service from the index.
func (idx *Index) OnServiceRemoved(serviceId string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.endpoints, serviceId)
}

// RebuildAll discards the index and recomputes it from scratch, visiting
// every relation once.
func (idx *Index) RebuildAll() {
	fresh := make(map[string]Endpoints)
	for svc := range idx.model.Services(nil) {
		fresh[svc.Id] = Endpoints{}
	}
	for rel := range idx.model.Relations(nil) {
		for _, ep := range rel.Endpoints {
			eps, found := fresh[ep.ServiceId]
			if !found {
				logger.Warningf("relation %q refers to unknown service %q", rel.Id, ep.ServiceId)
				continue
			}
			fresh[ep.ServiceId] = idx.add(eps, ep.ServiceId, rel)
		}
	}
	for id, eps := range fresh {
		fresh[id] = normalise(eps)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.endpoints = fresh
	logger.Debugf("relation index rebuilt for %d service(s)", len(fresh))
}

// Indexed returns the ids of the services present in the index.
func (idx *Index) Indexed() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := set.NewStrings()
	for id := range idx.endpoints {
		ids.Add(id)
	}
	return ids.SortedValues()
}

func (idx *Index) compute(serviceId string) (Endpoints, bool) {
	if _, found := idx.model.Service(serviceId); !found {
		return Endpoints{}, false
	}
	var eps Endpoints
	for _, rel := range idx.model.RelationsForService(serviceId) {
		eps = idx.add(eps, serviceId, rel)
	}
	return normalise(eps), true
}

// add appends the service's side of rel to eps.
func (idx *Index) add(eps Endpoints, serviceId string, rel cache.Relation) Endpoints {
	for i, ep := range rel.Endpoints {
		if ep.ServiceId != serviceId {
			continue
		}
		ref := EndpointRef{
			RelationId:      rel.Id,
			Name:            ep.Name,
			Interface:       rel.Interface,
			Role:            idx.role(ep),
			Scope:           rel.Scope,
			RemoteServiceId: ep.ServiceId,
			RemoteName:      ep.Name,
		}
		if len(rel.Endpoints) == 2 {
			remote := rel.Endpoints[1-i]
			ref.RemoteServiceId = remote.ServiceId
			ref.RemoteName = remote.Name
		}
		switch ref.Role {
		case cache.RoleRequirer:
			eps.Requires = append(eps.Requires, ref)
		case cache.RoleProvider:
			eps.Provides = append(eps.Provides, ref)
		default:
			eps.Peers = append(eps.Peers, ref)
		}
	}
	return eps
}

// role returns the endpoint's role, falling back to the charm metadata of
// its service when the relation record does not carry it.
func (idx *Index) role(ep cache.Endpoint) string {
	if ep.Role != "" {
		return ep.Role
	}
	ch, found := idx.model.CharmForService(ep.ServiceId)
	if !found {
		return cache.RolePeer
	}
	if _, ok := ch.Requires[ep.Name]; ok {
		return cache.RoleRequirer
	}
	if _, ok := ch.Provides[ep.Name]; ok {
		return cache.RoleProvider
	}
	return cache.RolePeer
}

func normalise(eps Endpoints) Endpoints {
	sortRefs := func(refs []EndpointRef) []EndpointRef {
		if refs == nil {
			return []EndpointRef{}
		}
		slices.SortFunc(refs, func(a, b EndpointRef) int {
			return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.RelationId, b.RelationId))
		})
		return refs
	}
	return Endpoints{
		Requires: sortRefs(eps.Requires),
		Provides: sortRefs(eps.Provides),
		Peers:    sortRefs(eps.Peers),
	}
}
