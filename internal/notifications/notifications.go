// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package notifications carries user visible notifications, such as the
// failure of a remote command, from the model layer to whoever displays
// them.
package notifications

import (
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
	"github.com/juju/pubsub/v2"
)

var logger = loggo.GetLogger("jujugui.notifications")

const topic = "user.notification"

// Level is the severity of a notification.
type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notification is a message for the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
	Time    time.Time
}

// String implements fmt.Stringer.
func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s: %s", n.Level, n.Title, n.Message)
}

// Notifier fans notifications out to subscribers. Each subscriber sees
// notifications in the order they were published.
type Notifier struct {
	hub   *pubsub.SimpleHub
	clock clock.Clock
}

// NewNotifier returns a Notifier using clk to timestamp notifications.
func NewNotifier(clk clock.Clock) *Notifier {
	return &Notifier{
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
			Logger: loggo.GetLogger("jujugui.notifications.hub"),
		}),
		clock: clk,
	}
}

// Publish sends n to every subscriber. The returned function blocks until
// every subscriber has handled it.
func (n *Notifier) Publish(notification Notification) func() {
	if notification.Time.IsZero() {
		notification.Time = n.clock.Now()
	}
	logger.Debugf("publishing %s", notification)
	return n.hub.Publish(topic, notification)
}

// Subscribe registers handler for every notification published after the
// call. The returned function removes the subscription.
func (n *Notifier) Subscribe(handler func(Notification)) func() {
	return n.hub.Subscribe(topic, func(_ string, data interface{}) {
		notification, ok := data.(Notification)
		if !ok {
			logger.Criticalf("programming error: topic data expected Notification, got %T", data)
			return
		}
		handler(notification)
	})
}
