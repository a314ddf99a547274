// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/delta"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/placement"
	"github.com/juju/jujugui/core/status"
	"github.com/juju/jujugui/internal/notifications"
)

// viewLogger is the subset of loggo.Logger used by logView.
type viewLogger interface {
	Infof(string, ...interface{})
	Warningf(string, ...interface{})
	Errorf(string, ...interface{})
}

// logView renders model changes to the log, the way a GUI view would
// render them to the screen.
type logView struct {
	model  cache.Reader
	logger viewLogger
	unsubs []func()
}

func newLogView(model cache.Reader, bus *notify.Bus, notifier *notifications.Notifier, logger viewLogger) *logView {
	v := &logView{
		model:  model,
		logger: logger,
	}
	for _, kind := range delta.AllKinds {
		v.unsubs = append(v.unsubs, bus.Subscribe(kind, v.onChange))
	}
	v.unsubs = append(v.unsubs, notifier.Subscribe(v.onNotification))
	return v
}

// Close removes the view's subscriptions.
func (v *logView) Close() {
	for _, unsub := range v.unsubs {
		unsub()
	}
	v.unsubs = nil
}

func (v *logView) onChange(kind delta.Kind) {
	v.logger.Infof("%s changed: %s", kind, v.summary())
	if kind == delta.KindMachine {
		v.logger.Infof("placement targets: %s", v.targets())
	}
}

// targets lists where units can be placed: a new machine, then every
// machine followed by its containers.
func (v *logView) targets() string {
	names := []string{placement.NewMachineTarget().String()}
	for _, m := range placement.MachineTargets(v.model) {
		for _, e := range placement.ContainerTargets(v.model, m.Target) {
			name := e.DisplayName
			if e.Pending {
				name += " (pending)"
			}
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// summary describes the unit status groups and the unplaced units.
func (v *logView) summary() string {
	groups := status.GroupUnits(slices.Collect(v.model.Units(nil)))
	var parts []string
	for _, g := range status.Groups {
		if n := len(groups[g]); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, g))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no units")
	}
	if unplaced := v.model.UnplacedUnits(); len(unplaced) > 0 {
		ids := make([]string, len(unplaced))
		for i, u := range unplaced {
			ids[i] = u.Id
		}
		parts = append(parts, fmt.Sprintf("unplaced %s", strings.Join(ids, " ")))
	}
	return strings.Join(parts, ", ")
}

func (v *logView) onNotification(n notifications.Notification) {
	switch n.Level {
	case notifications.Error:
		v.logger.Errorf("%s: %s", n.Title, n.Message)
	case notifications.Warning:
		v.logger.Warningf("%s: %s", n.Title, n.Message)
	default:
		v.logger.Infof("%s: %s", n.Title, n.Message)
	}
}
