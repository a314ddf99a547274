// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package coordinator

import (
	"context"

	"github.com/juju/errors"
)

// AddUnits asks the controller for n more units of the service. The
// units appear in the model when the controller reports them; failure is
// reported to the user.
func (c *Coordinator) AddUnits(ctx context.Context, service string, n int) error {
	if n < 1 {
		return errors.NotValidf("unit count %d", n)
	}
	if !c.config.Model.ServiceStore().Contains(service) {
		return errors.NotFoundf("service %q", service)
	}
	c.run(func() {
		units, err := c.config.API.AddUnits(ctx, service, n)
		c.config.Post(func() {
			if err != nil {
				c.config.Logger.Errorf("adding %d unit(s) to %q: %v", n, service, err)
				c.notifyUser("Adding units failed", errors.Annotatef(err, "adding units to %s", service))
				return
			}
			c.config.Logger.Infof("added unit(s) %v", units)
		})
	})
	return nil
}
