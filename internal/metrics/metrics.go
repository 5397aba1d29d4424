// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exports a snapshot of a collection run as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironcore-dev/lag-report/internal/capacity"
)

const namespace = "lag_report"

var interfaceLabels = []string{"peer", "device", "interface"}

// Exporter holds the gauges of one collection run in a private registry.
type Exporter struct {
	registry *prometheus.Registry

	utilization *prometheus.GaugeVec
	configured  *prometheus.GaugeVec
	available   *prometheus.GaugeVec
	input       *prometheus.GaugeVec
	mismatch    *prometheus.GaugeVec
	errors      *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "utilization_ratio",
			Help:      "Input rate divided by available capacity of a bundle interface",
		}, interfaceLabels),
		configured: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "configured_capacity_bps",
			Help:      "Capacity declared in the interface description in bits per second",
		}, interfaceLabels),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available_capacity_bps",
			Help:      "Bandwidth reported by the device in bits per second",
		}, interfaceLabels),
		input: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "input_rate_bps",
			Help:      "30 second input rate in bits per second",
		}, interfaceLabels),
		mismatch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capacity_mismatch",
			Help:      "1 if configured and available capacity diverge beyond the tolerance",
		}, interfaceLabels),
		errors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_errors",
			Help:      "Number of collection errors per device and reason",
		}, []string{"peer", "device", "reason"}),
	}
	e.registry.MustRegister(e.utilization, e.configured, e.available, e.input, e.mismatch, e.errors)
	return e
}

// Observe records the results of a collection run for peer.
// Absent values produce no sample.
func (e *Exporter) Observe(peer string, results []capacity.DeviceResult, detector capacity.MismatchDetector) {
	for i := range results {
		res := &results[i]
		for _, err := range res.Errors {
			e.errors.WithLabelValues(peer, res.Host, string(err.Reason)).Inc()
		}
		for j := range res.Records {
			rec := &res.Records[j]
			labels := prometheus.Labels{"peer": peer, "device": res.Host, "interface": rec.Interface}
			set(e.configured, labels, rec.ConfiguredBps)
			set(e.available, labels, rec.AvailableBps)
			set(e.input, labels, rec.InputBps)
			set(e.utilization, labels, rec.Utilization())
			if rec.ConfiguredBps != nil && rec.AvailableBps != nil {
				var v float64
				if detector.HasMismatch(rec.ConfiguredBps, rec.AvailableBps) {
					v = 1
				}
				e.mismatch.With(labels).Set(v)
			}
		}
	}
}

func set(g *prometheus.GaugeVec, labels prometheus.Labels, v *float64) {
	if v != nil {
		g.With(labels).Set(*v)
	}
}

// Gatherer returns the registry holding the observed metrics.
func (e *Exporter) Gatherer() prometheus.Gatherer {
	return e.registry
}

// WriteFile writes the observed metrics to path in the text exposition format.
// The file is replaced atomically.
func (e *Exporter) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
