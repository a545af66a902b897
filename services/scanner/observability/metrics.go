// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the scanner.
//
// Metrics are exposed via the /metrics endpoint of the scanner service.
// All operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "shortscan"

// Metrics holds the scanner's Prometheus collectors. Initialize once at
// startup via NewMetrics, or use Default.
type Metrics struct {
	// RunsTotal counts orchestrator runs.
	// Labels: status (completed, cancelled)
	RunsTotal *prometheus.CounterVec

	// DetectorOutcomesTotal counts per-detector outcomes.
	// Labels: detector, status (success, failure, cache_hit)
	DetectorOutcomesTotal *prometheus.CounterVec

	// DetectorDurationSeconds measures wall time per detector invocation,
	// excluding cache hits.
	// Labels: detector
	DetectorDurationSeconds *prometheus.HistogramVec

	// CacheHitsTotal and CacheMissesTotal count cache lookups.
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// BackendRetriesTotal counts retried backend attempts.
	// Labels: detector
	BackendRetriesTotal *prometheus.CounterVec
}

// NewMetrics registers the scanner collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Orchestrator runs by terminal status.",
		}, []string{"status"}),
		DetectorOutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "detector_outcomes_total",
			Help:      "Detector outcomes by detector and status.",
		}, []string{"detector", "status"}),
		DetectorDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "detector_duration_seconds",
			Help:      "Detector wall time, cache hits excluded.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"detector"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Detection cache hits.",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_misses_total",
			Help:      "Detection cache misses.",
		}),
		BackendRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "backend_retries_total",
			Help:      "Backend attempts beyond the first, by detector.",
		}, []string{"detector"}),
	}
}

// Default is the singleton registered on the global Prometheus registry.
var Default = NewMetrics(prometheus.DefaultRegisterer)
