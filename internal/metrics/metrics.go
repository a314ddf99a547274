// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package metrics defines the prometheus metrics exported by the model
// synchronisation machinery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/jujugui/core/delta"
)

const metricsNamespace = "jujugui"

// Placement results.
const (
	PlacementConfirmed  = "confirmed"
	PlacementFailed     = "failed"
	PlacementSuperseded = "superseded"
)

// Collector is a prometheus.Collector that collects metrics about delta
// application and unit placement.
type Collector struct {
	deltasApplied     *prometheus.CounterVec
	deltasMalformed   prometheus.Counter
	referencesDropped *prometheus.CounterVec
	pendingReferences prometheus.Gauge
	batches           prometheus.Counter
	batchSize         prometheus.Histogram
	placements        *prometheus.CounterVec
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		deltasApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "deltas_applied_total",
				Help:      "The number of deltas applied to the model.",
			}, []string{"kind", "verb"},
		),
		deltasMalformed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "deltas_malformed_total",
				Help:      "The number of deltas skipped because they were malformed.",
			},
		),
		referencesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "references_dropped_total",
				Help:      "The number of deltas dropped because a referenced entity never arrived.",
			}, []string{"kind"},
		),
		pendingReferences: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "pending_references",
				Help:      "The number of deltas waiting for a referenced entity.",
			},
		),
		batches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batches_total",
				Help:      "The number of delta batches applied.",
			},
		),
		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "batch_size",
				Help:      "The number of deltas in each applied batch.",
				Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
			},
		),
		placements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "placements_total",
				Help:      "The number of unit placements by outcome.",
			}, []string{"result"},
		),
	}
}

// DeltaApplied records a delta that was applied to the model.
func (c *Collector) DeltaApplied(kind delta.Kind, verb delta.Verb) {
	c.deltasApplied.WithLabelValues(string(kind), string(verb)).Inc()
}

// DeltaMalformed records a skipped malformed delta.
func (c *Collector) DeltaMalformed() {
	c.deltasMalformed.Inc()
}

// ReferenceDropped records a delta dropped because its reference never
// resolved.
func (c *Collector) ReferenceDropped(kind delta.Kind) {
	c.referencesDropped.WithLabelValues(string(kind)).Inc()
}

// SetPendingReferences records the size of the pending buffer.
func (c *Collector) SetPendingReferences(n int) {
	c.pendingReferences.Set(float64(n))
}

// BatchApplied records a batch of size deltas.
func (c *Collector) BatchApplied(size int) {
	c.batches.Inc()
	c.batchSize.Observe(float64(size))
}

// Placement records the outcome of a placement.
func (c *Collector) Placement(result string) {
	c.placements.WithLabelValues(result).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.deltasApplied.Describe(ch)
	c.deltasMalformed.Describe(ch)
	c.referencesDropped.Describe(ch)
	c.pendingReferences.Describe(ch)
	c.batches.Describe(ch)
	c.batchSize.Describe(ch)
	c.placements.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.deltasApplied.Collect(ch)
	c.deltasMalformed.Collect(ch)
	c.referencesDropped.Collect(ch)
	c.pendingReferences.Collect(ch)
	c.batches.Collect(ch)
	c.batchSize.Collect(ch)
	c.placements.Collect(ch)
}
