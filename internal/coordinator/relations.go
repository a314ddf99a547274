// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/relationindex"
)

// AddRelationEndpoints relates a and b, each given as a service name or
// as service:endpoint. The relation is shown straight away, marked
// pending, and replaced by the controller's record once it arrives. If
// the controller rejects the relation it is removed and the user is
// notified.
func (c *Coordinator) AddRelationEndpoints(ctx context.Context, a, b string) error {
	serviceA, nameA := splitEndpoint(a)
	serviceB, nameB := splitEndpoint(b)
	for _, id := range []string{serviceA, serviceB} {
		if !c.config.Model.ServiceStore().Contains(id) {
			return errors.NotFoundf("service %q", id)
		}
	}

	var candidates []relationindex.EndpointPair
	for _, pair := range c.config.Index.CanRelate(serviceA, serviceB) {
		if matches(pair, serviceA, nameA) && matches(pair, serviceB, nameB) {
			candidates = append(candidates, pair)
		}
	}
	switch len(candidates) {
	case 0:
		return errors.NotFoundf("compatible endpoints for %q and %q", a, b)
	case 1:
	default:
		var options []string
		for _, pair := range candidates {
			options = append(options, fmt.Sprintf("%q", strings.Join(endpointNames(pair.Endpoints), " ")))
		}
		return errors.Errorf("ambiguous relation: %q %q could refer to %s", a, b, strings.Join(options, "; "))
	}
	pair := candidates[0]

	id := "pending-" + uuid.NewString()
	c.config.Model.RelationStore().Put(id, cache.Relation{
		Interface: pair.Interface,
		Scope:     pair.Scope,
		Endpoints: pair.Endpoints,
		Pending:   true,
	})
	rel, _ := c.config.Model.Relation(id)
	c.config.Index.OnRelationChanged(rel)
	c.commit()

	endpoints := endpointNames(pair.Endpoints)
	c.config.Logger.Debugf("adding relation %v as %q", endpoints, id)
	c.run(func() {
		err := c.config.API.AddRelation(ctx, endpoints)
		c.config.Post(func() {
			if err != nil {
				c.relationFailed(id, err)
			}
		})
	})
	return nil
}

func (c *Coordinator) relationFailed(id string, err error) {
	c.config.Logger.Errorf("adding relation %q: %v", id, err)
	if rel, found := c.config.Model.Relation(id); found {
		c.config.Model.RelationStore().Remove(id)
		c.config.Index.OnRelationChanged(rel)
		c.commit()
	}
	c.notifyUser("Relation failed", errors.Annotate(err, "adding relation"))
}

func splitEndpoint(s string) (string, string) {
	service, name, _ := strings.Cut(s, ":")
	return service, name
}

// matches reports whether pair has an endpoint on the service with the
// given name; an empty name matches any endpoint of the service.
func matches(pair relationindex.EndpointPair, service, name string) bool {
	for _, ep := range pair.Endpoints {
		if ep.ServiceId == service && (name == "" || ep.Name == name) {
			return true
		}
	}
	return false
}

func endpointNames(eps []cache.Endpoint) []string {
	names := make([]string, len(eps))
	for i, ep := range eps {
		names[i] = ep.ServiceId + ":" + ep.Name
	}
	return names
}
