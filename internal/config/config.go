// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config holds the settings of the GUI model synchronizer: where
// the controller is, which model to watch and how to log in.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"
)

const (
	APIAddress     = "api-address"
	ModelUUID      = "model-uuid"
	SocketTemplate = "socket-template"
	SocketProtocol = "socket-protocol"
	Insecure       = "insecure"
	User           = "user"
	Password       = "password"
	LoggingConfig  = "logging-config"
	MetricsAddress = "metrics-address"
	ReconnectDelay = "reconnect-delay"
	DialAttempts   = "dial-attempts"
)

const (
	DefaultSocketTemplate = "/model/$uuid/api"
	DefaultSocketProtocol = "wss"
	DefaultLoggingConfig  = "<root>=INFO"
	DefaultReconnectDelay = 5 * time.Second
	DefaultDialAttempts   = 10
)

var fields = schema.Fields{
	APIAddress:     schema.String(),
	ModelUUID:      schema.String(),
	SocketTemplate: schema.String(),
	SocketProtocol: schema.OneOf(schema.Const("wss"), schema.Const("ws")),
	Insecure:       schema.Bool(),
	User:           schema.String(),
	Password:       schema.String(),
	LoggingConfig:  schema.String(),
	MetricsAddress: schema.String(),
	ReconnectDelay: schema.TimeDuration(),
	DialAttempts:   schema.ForceInt(),
}

var defaults = schema.Defaults{
	SocketTemplate: DefaultSocketTemplate,
	SocketProtocol: DefaultSocketProtocol,
	Insecure:       false,
	User:           "admin",
	Password:       "",
	LoggingConfig:  DefaultLoggingConfig,
	MetricsAddress: "",
	ReconnectDelay: DefaultReconnectDelay,
	DialAttempts:   int64(DefaultDialAttempts),
}

var checker = schema.FieldMap(fields, defaults)

// Config holds validated settings.
type Config struct {
	APIAddress     string
	ModelUUID      string
	SocketTemplate string
	SocketProtocol string
	Insecure       bool
	User           string
	Password       string
	LoggingConfig  string
	MetricsAddress string
	ReconnectDelay time.Duration
	DialAttempts   int
}

// New returns a Config built from attrs, filling in defaults for
// missing attributes. Unknown attributes are rejected.
func New(attrs map[string]interface{}) (Config, error) {
	for name := range attrs {
		if _, ok := fields[name]; !ok {
			return Config{}, errors.NotValidf("unknown attribute %q", name)
		}
	}
	coerced, err := checker.Coerce(attrs, nil)
	if err != nil {
		return Config{}, errors.Annotate(err, "invalid configuration")
	}
	m := coerced.(map[string]interface{})
	cfg := Config{
		APIAddress:     m[APIAddress].(string),
		ModelUUID:      m[ModelUUID].(string),
		SocketTemplate: m[SocketTemplate].(string),
		SocketProtocol: m[SocketProtocol].(string),
		Insecure:       m[Insecure].(bool),
		User:           m[User].(string),
		Password:       m[Password].(string),
		LoggingConfig:  m[LoggingConfig].(string),
		MetricsAddress: m[MetricsAddress].(string),
		ReconnectDelay: m[ReconnectDelay].(time.Duration),
		DialAttempts:   int(m[DialAttempts].(int64)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return cfg, nil
}

// Parse returns the Config held in the YAML document data.
func Parse(data []byte) (Config, error) {
	attrs := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return Config{}, errors.Annotate(err, "parsing configuration")
	}
	return New(attrs)
}

// ReadFile returns the Config held in the YAML file at path, with
// overrides applied on top of the file's attributes.
func ReadFile(path string, overrides map[string]interface{}) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Annotatef(err, "reading %s", path)
	}
	attrs := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return Config{}, errors.Annotatef(err, "parsing %s", path)
	}
	for name, value := range overrides {
		attrs[name] = value
	}
	cfg, err := New(attrs)
	return cfg, errors.Annotatef(err, "loading %s", path)
}

// Validate returns an error if the config cannot be used to connect.
func (c Config) Validate() error {
	if c.APIAddress == "" {
		return errors.NotValidf("empty %s", APIAddress)
	}
	if _, _, err := net.SplitHostPort(c.APIAddress); err != nil {
		return errors.NotValidf("%s %q", APIAddress, c.APIAddress)
	}
	if _, err := uuid.Parse(c.ModelUUID); err != nil {
		return errors.NotValidf("%s %q", ModelUUID, c.ModelUUID)
	}
	if !strings.HasPrefix(c.SocketTemplate, "/") {
		return errors.NotValidf("%s %q", SocketTemplate, c.SocketTemplate)
	}
	if c.SocketProtocol != "wss" && c.SocketProtocol != "ws" {
		return errors.NotValidf("%s %q", SocketProtocol, c.SocketProtocol)
	}
	if c.User == "" {
		return errors.NotValidf("empty %s", User)
	}
	if c.ReconnectDelay <= 0 {
		return errors.NotValidf("%s %v", ReconnectDelay, c.ReconnectDelay)
	}
	if c.DialAttempts < 1 {
		return errors.NotValidf("%s %d", DialAttempts, c.DialAttempts)
	}
	return nil
}

// SocketPath returns the socket template with the model UUID filled in.
func (c Config) SocketPath() string {
	return strings.ReplaceAll(c.SocketTemplate, "$uuid", c.ModelUUID)
}

// SocketURL returns the websocket URL of the model's API.
func (c Config) SocketURL() string {
	return fmt.Sprintf("%s://%s%s", c.SocketProtocol, c.APIAddress, c.SocketPath())
}
