// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package coordinator

import (
	"context"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/jujugui/core/cache"
)

// Deploy deploys the charm as a new service with numUnits units. An
// empty service name is taken from the charm URL. The service is shown
// straight away, marked pending, until the controller reports it; if
// the controller rejects the deployment the service is removed and the
// user is notified.
func (c *Coordinator) Deploy(ctx context.Context, charmURL, service string, numUnits int) error {
	if charmURL == "" {
		return errors.NotValidf("empty charm URL")
	}
	if numUnits < 0 {
		return errors.NotValidf("unit count %d", numUnits)
	}
	if service == "" {
		service = CharmName(charmURL)
	}
	if c.config.Model.ServiceStore().Contains(service) {
		return errors.AlreadyExistsf("service %q", service)
	}

	c.config.Model.ServiceStore().Put(service, cache.Service{
		CharmId: charmURL,
		Pending: true,
	})
	if !c.config.Model.CharmStore().Contains(charmURL) {
		c.config.Model.CharmStore().Put(charmURL, cache.Charm{})
	}
	c.config.Index.RebuildFor(service)
	c.commit()

	c.config.Logger.Debugf("deploying %q as %q", charmURL, service)
	c.run(func() {
		err := c.config.API.Deploy(ctx, charmURL, service, numUnits)
		c.config.Post(func() {
			if err != nil {
				c.deployFailed(service, err)
				return
			}
			c.config.Logger.Infof("deployed %q", service)
		})
	})
	return nil
}

func (c *Coordinator) deployFailed(service string, err error) {
	c.config.Logger.Errorf("deploying %q: %v", service, err)
	// A service the controller has reported in the meantime is left
	// alone.
	if svc, found := c.config.Model.Service(service); found && svc.Pending {
		c.config.Model.ServiceStore().Remove(service)
		c.config.Index.OnServiceRemoved(service)
		c.commit()
	}
	c.notifyUser("Deploy failed", errors.Annotatef(err, "deploying %s", service))
}

// CharmName returns the name part of a charm URL, such as "wordpress"
// for "cs:precise/wordpress-4".
func CharmName(url string) string {
	if _, rest, found := strings.Cut(url, ":"); found {
		url = rest
	}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		url = url[i+1:]
	}
	if i := strings.LastIndex(url, "-"); i > 0 {
		if _, err := strconv.Atoi(url[i+1:]); err == nil {
			url = url[:i]
		}
	}
	return url
}
