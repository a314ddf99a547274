// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package coordinator turns user intents, such as placing a unit or
// relating two services, into remote commands, applying their expected
// outcome to the model optimistically until the controller answers.
package coordinator

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/relationindex"
	"github.com/juju/jujugui/internal/notifications"
)

// MachineSpec describes a machine or container to create. An empty
// ContainerType requests a new machine.
type MachineSpec struct {
	ContainerType string
	ParentId      string
}

// CommandAPI is the set of remote commands used by the coordinator. Each
// method blocks until the controller has answered.
type CommandAPI interface {
	// AddUnits adds n units to the service and returns their names.
	AddUnits(ctx context.Context, service string, n int) ([]string, error)
	// AddMachines creates machines or containers, returning their ids in
	// the order of specs.
	AddMachines(ctx context.Context, specs []MachineSpec) ([]string, error)
	// PlaceUnit assigns the unit to an existing machine.
	PlaceUnit(ctx context.Context, unitId, machineId string) error
	// AddRelation relates the endpoints, each given as service:name.
	AddRelation(ctx context.Context, endpoints []string) error
	// Deploy deploys the charm as the named service.
	Deploy(ctx context.Context, charmURL, service string, numUnits int) error
}

// Logger represents the methods used by the coordinator to log
// information.
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// Notifier publishes user visible notifications.
type Notifier interface {
	Publish(notifications.Notification) func()
}

// Metrics records placement outcomes.
type Metrics interface {
	Placement(result string)
}

// Config holds the dependencies of a Coordinator.
type Config struct {
	Model    *cache.Model
	Bus      *notify.Bus
	Index    *relationindex.Index
	API      CommandAPI
	Notifier Notifier
	Metrics  Metrics
	Logger   Logger

	// Post schedules a function on the goroutine that owns the model.
	// Completions of remote commands are delivered through it, in the
	// order they are posted.
	Post func(func())
}

// Validate returns an error if config cannot drive a Coordinator.
func (config Config) Validate() error {
	if config.Model == nil {
		return errors.NotValidf("nil Model")
	}
	if config.Bus == nil {
		return errors.NotValidf("nil Bus")
	}
	if config.Index == nil {
		return errors.NotValidf("nil Index")
	}
	if config.API == nil {
		return errors.NotValidf("nil API")
	}
	if config.Notifier == nil {
		return errors.NotValidf("nil Notifier")
	}
	if config.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.Post == nil {
		return errors.NotValidf("nil Post")
	}
	return nil
}

// Coordinator applies user intents. Its methods, and the functions it
// posts, must all run on the goroutine that owns the model; only the
// remote calls run elsewhere.
type Coordinator struct {
	config Config

	generation      uint64
	inflight        map[string]*request
	nextPlaceholder int

	wg sync.WaitGroup
}

// request tracks an in-flight placement of one unit.
type request struct {
	generation uint64
	cancel     context.CancelFunc
	// placeholder is the id of the machine standing in for one being
	// created, until the controller reports its real id.
	placeholder string
}

// New returns a Coordinator backed by config.
func New(config Config) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Coordinator{
		config:   config,
		inflight: make(map[string]*request),
	}, nil
}

// Wait blocks until every remote command started by the coordinator has
// returned. Cancel the context passed to the intents to make them return
// promptly.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// InFlight returns the number of placements awaiting the controller.
func (c *Coordinator) InFlight() int {
	return len(c.inflight)
}

// run calls fn on a new goroutine.
func (c *Coordinator) run(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// commit notifies the kinds changed by an optimistic update.
func (c *Coordinator) commit() {
	notify.Commit(c.config.Bus, c.config.Model)
}

func (c *Coordinator) notifyUser(title string, err error) {
	c.config.Notifier.Publish(notifications.Notification{
		Level:   notifications.Error,
		Title:   title,
		Message: err.Error(),
	})
}
