// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine runs selected detectors concurrently over a document set
// and collects one outcome per detector.
//
// Guarantees:
//
//   - Output is in registry order, independent of completion order.
//   - Concurrency is bounded by a fixed worker count; detectors queue
//     when the pool is saturated.
//   - A detector's failure (error or panic) is captured at its own task
//     boundary as a failed outcome and never affects siblings.
//   - Cache hits bypass the backend and the retry policy entirely.
//   - Cancellation stops dispatch of queued detectors and aborts in-flight
//     backend calls; outcomes already completed are still returned.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/fathomresearch/shortscan/services/scanner/cache"
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
	"github.com/fathomresearch/shortscan/services/scanner/observability"
	"github.com/fathomresearch/shortscan/services/scanner/retry"
)

var tracer = otel.Tracer("scanner.engine")

// DefaultWorkers bounds concurrent backend calls when no worker count is
// configured. Deliberately small: upstream rate limits are per key, and
// the key ring only stretches so far.
const DefaultWorkers = 3

// Config assembles an Orchestrator.
type Config struct {
	Registry *detectors.Registry
	Cache    cache.Cache
	Retry    *retry.Policy

	// Workers is the bounded pool size, independent of detector count.
	Workers int

	// CacheTTL bounds how long successful outcomes are memoized.
	CacheTTL time.Duration

	// Metrics defaults to observability.Default.
	Metrics *observability.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Orchestrator fans detector work out to a bounded pool and reassembles
// results deterministically. Stateless across runs apart from the cache;
// safe for concurrent use.
type Orchestrator struct {
	registry *detectors.Registry
	cache    cache.Cache
	retry    *retry.Policy
	workers  int
	ttl      time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New validates config and builds an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.Retry == nil {
		return nil, fmt.Errorf("retry policy is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.Default
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: cfg.Registry,
		cache:    cfg.Cache,
		retry:    cfg.Retry,
		workers:  workers,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Run executes the selected detectors against the documents and returns
// one outcome per executed detector, in registry order.
//
// Unknown names in selected are skipped; an empty selection runs nothing
// and returns an empty sequence. A run where every detector fails still
// returns the full outcome sequence so the aggregator can report
// NO_SIGNAL.
func (o *Orchestrator) Run(ctx context.Context, docs []datatypes.Document, selected []string, model string) []datatypes.DetectionOutcome {
	ctx, span := tracer.Start(ctx, "engine.Run")
	defer span.End()

	chosen := o.registry.Select(selected)
	span.SetAttributes(
		attribute.Int("detectors", len(chosen)),
		attribute.Int("documents", len(docs)),
		attribute.String("model", model),
	)
	o.logger.Info("scan run started",
		"detectors", len(chosen), "documents", len(docs), "model", model)

	results := make([]datatypes.DetectionOutcome, len(chosen))
	sem := semaphore.NewWeighted(int64(o.workers))
	done := make(chan int, len(chosen))
	dispatched := 0

	for i, det := range chosen {
		key := cache.ComputeKey(docs, det.Name(), model)
		if out, ok := o.cache.Get(ctx, key); ok {
			o.metrics.CacheHitsTotal.Inc()
			o.metrics.DetectorOutcomesTotal.WithLabelValues(det.Name(), "cache_hit").Inc()
			o.logger.Debug("cache hit", "detector", det.Name())
			results[i] = out
			continue
		}
		o.metrics.CacheMissesTotal.Inc()

		dispatched++
		go func(i int, det detectors.Detector, key string) {
			defer func() { done <- i }()
			// Acquire blocks while the pool is saturated and fails fast
			// once the run is cancelled, so queued detectors never start
			// after cancellation.
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = datatypes.FailedOutcome(det.Name(), 0,
					fmt.Errorf("detector not started: %w", err))
				return
			}
			defer sem.Release(1)
			results[i] = o.runDetector(ctx, det, docs, model, key)
		}(i, det, key)
	}

	for n := 0; n < dispatched; n++ {
		<-done
	}

	status := "completed"
	if ctx.Err() != nil {
		status = "cancelled"
	}
	o.metrics.RunsTotal.WithLabelValues(status).Inc()
	o.logger.Info("scan run finished", "status", status, "outcomes", len(results))
	return results
}

// runDetector executes one detector through the retry policy, records its
// outcome, and memoizes success. Panics are converted into failed outcomes
// at this boundary so a buggy detector cannot take down the run.
func (o *Orchestrator) runDetector(ctx context.Context, det detectors.Detector, docs []datatypes.Document, model, key string) (outcome datatypes.DetectionOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("detector panicked", "detector", det.Name(), "panic", r)
			outcome = datatypes.FailedOutcome(det.Name(), time.Since(start),
				fmt.Errorf("detector panic: %v", r))
			o.metrics.DetectorOutcomesTotal.WithLabelValues(det.Name(), "failure").Inc()
		}
	}()

	attempt := 0
	var out datatypes.DetectionOutcome
	err := o.retry.Execute(ctx, func(ctx context.Context) error {
		if attempt > 0 {
			o.metrics.BackendRetriesTotal.WithLabelValues(det.Name()).Inc()
		}
		attempt++
		var derr error
		out, derr = det.Detect(ctx, docs, model)
		return derr
	})
	if err != nil {
		o.metrics.DetectorOutcomesTotal.WithLabelValues(det.Name(), "failure").Inc()
		o.logger.Warn("detector failed", "detector", det.Name(), "error", err)
		return datatypes.FailedOutcome(det.Name(), time.Since(start), err)
	}

	o.metrics.DetectorOutcomesTotal.WithLabelValues(det.Name(), "success").Inc()
	o.metrics.DetectorDurationSeconds.WithLabelValues(det.Name()).Observe(out.ProcessingTime.Seconds())
	if putErr := o.cache.Put(ctx, key, out, o.ttl); putErr != nil {
		o.logger.Warn("failed to cache outcome", "detector", det.Name(), "error", putErr)
	}
	return out
}
