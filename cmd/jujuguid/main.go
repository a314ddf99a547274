// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// jujuguid keeps a model synchronized with a Juju controller and logs
// what a GUI would show: unplaced units, unit status groups and user
// notifications.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/juju/jujugui/core/cache"
	"github.com/juju/jujugui/core/notify"
	"github.com/juju/jujugui/core/relationindex"
	"github.com/juju/jujugui/internal/config"
	"github.com/juju/jujugui/internal/metrics"
	"github.com/juju/jujugui/internal/notifications"
)

var logger = loggo.GetLogger("jujugui.cmd.jujuguid")

const (
	// exitErr is returned when jujuguid has been run in an invalid way.
	exitErr = 2
)

func main() {
	os.Exit(Main(os.Args[1:], os.Stderr))
}

// Main runs jujuguid with args and returns the exit code.
func Main(args []string, stderr io.Writer) int {
	path, overrides, err := parseArgs(args, stderr)
	if err != nil {
		if err == gnuflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitErr
	}
	cfg, err := config.ReadFile(path, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitErr
	}
	if err := loggo.ConfigureLoggers(cfg.LoggingConfig); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitErr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, cfg); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

// parseArgs returns the configuration file path and the attributes set
// on the command line, which override those in the file.
func parseArgs(args []string, stderr io.Writer) (string, map[string]interface{}, error) {
	fs := gnuflag.NewFlagSet("jujuguid", gnuflag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		path string
		strs = map[string]*string{
			config.APIAddress:     new(string),
			config.ModelUUID:      new(string),
			config.User:           new(string),
			config.Password:       new(string),
			config.LoggingConfig:  new(string),
			config.MetricsAddress: new(string),
			config.ReconnectDelay: new(string),
		}
		insecure bool
	)
	fs.StringVar(&path, "config", "", "path to the configuration file")
	fs.StringVar(&path, "c", "", "")
	for name, value := range strs {
		fs.StringVar(value, name, "", fmt.Sprintf("override the %s attribute", name))
	}
	fs.BoolVar(&insecure, config.Insecure, false, "do not verify the controller's certificate")

	if err := fs.Parse(true, args); err != nil {
		return "", nil, err
	}
	if path == "" {
		return "", nil, errors.New("no configuration file specified")
	}
	if rest := fs.Args(); len(rest) > 0 {
		return "", nil, errors.Errorf("unrecognized args: %q", rest)
	}

	overrides := make(map[string]interface{})
	fs.Visit(func(f *gnuflag.Flag) {
		if value, ok := strs[f.Name]; ok {
			overrides[f.Name] = *value
		}
		if f.Name == config.Insecure {
			overrides[f.Name] = insecure
		}
	})
	return path, overrides, nil
}

// run keeps the model synchronized until ctx is done.
func run(ctx context.Context, cfg config.Config) error {
	clk := clock.WallClock

	// The model and everything subscribed to it survive reconnection;
	// each new connection resyncs the model from scratch.
	model := cache.NewModel()
	bus := notify.NewBus()
	index := relationindex.New(model)
	notifier := notifications.NewNotifier(clk)
	collector := metrics.NewCollector()

	if cfg.MetricsAddress != "" {
		stop, err := serveMetrics(cfg.MetricsAddress, collector)
		if err != nil {
			return errors.Trace(err)
		}
		defer stop()
	}

	view := newLogView(model, bus, notifier, logger)
	defer view.Close()

	runner := worker.NewRunner(worker.RunnerParams{
		// Every failure is a lost connection or a resync error; keep
		// trying until told to stop.
		IsFatal:      func(error) bool { return false },
		RestartDelay: cfg.ReconnectDelay,
		Clock:        clk,
	})
	err := runner.StartWorker("model-sync", func() (worker.Worker, error) {
		return newConnectionWorker(connectionConfig{
			Config:   cfg,
			Model:    model,
			Bus:      bus,
			Index:    index,
			Notifier: notifier,
			Metrics:  collector,
			Clock:    clk,
			Logger:   logger,
		})
	})
	if err != nil {
		return errors.Trace(err)
	}

	<-ctx.Done()
	logger.Infof("shutting down")
	return worker.Stop(runner)
}

// serveMetrics exposes the collector over HTTP at addr. The returned
// function stops the server.
func serveMetrics(addr string, collector *metrics.Collector) (func(), error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return nil, errors.Annotate(err, "registering metrics")
	}
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})).Methods(http.MethodGet)
	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	logger.Infof("serving metrics on %s", addr)
	return func() {
		_ = server.Close()
	}, nil
}
