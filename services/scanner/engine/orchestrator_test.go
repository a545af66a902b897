// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomresearch/shortscan/services/scanner/aggregate"
	"github.com/fathomresearch/shortscan/services/scanner/cache"
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
	"github.com/fathomresearch/shortscan/services/scanner/observability"
	"github.com/fathomresearch/shortscan/services/scanner/retry"
)

// fakeDetector scripts per-run behavior for orchestrator tests.
type fakeDetector struct {
	name     string
	priority int
	calls    atomic.Int64

	// failFor makes the first N Detect calls return err.
	failFor int64
	err     error

	// panics makes Detect panic.
	panics bool

	// delay stalls Detect, respecting ctx.
	delay time.Duration
}

func (d *fakeDetector) Name() string                            { return d.name }
func (d *fakeDetector) Description() string                     { return "fake" }
func (d *fakeDetector) Priority() int                           { return d.priority }
func (d *fakeDetector) BuildPrompt([]datatypes.Document) string { return "prompt" }

func (d *fakeDetector) Detect(ctx context.Context, docs []datatypes.Document, model string) (datatypes.DetectionOutcome, error) {
	call := d.calls.Add(1)
	if d.panics {
		panic("detector bug")
	}
	if d.delay > 0 {
		select {
		case <-ctx.Done():
			return datatypes.DetectionOutcome{}, ctx.Err()
		case <-time.After(d.delay):
		}
	}
	if call <= d.failFor {
		return datatypes.DetectionOutcome{}, d.err
	}
	return datatypes.DetectionOutcome{
		DetectorName:   d.name,
		Signals:        []datatypes.Signal{{SignalType: "T", Severity: datatypes.SeverityHigh, Confidence: 0.9, Title: d.name}},
		ProcessingTime: time.Millisecond,
		Success:        true,
	}, nil
}

// transientErr satisfies the retry policy's transient check.
type transientErr struct{ msg string }

func (e *transientErr) Error() string   { return e.msg }
func (e *transientErr) Transient() bool { return true }

func newTestOrchestrator(t *testing.T, store cache.Cache, ds ...detectors.Detector) *Orchestrator {
	t.Helper()
	if store == nil {
		store = cache.NewMemory()
	}
	o, err := New(Config{
		Registry: detectors.NewRegistry(nil, ds...),
		Cache:    store,
		Retry:    retry.New(3, time.Millisecond),
		Workers:  2,
		CacheTTL: time.Hour,
		Metrics:  observability.NewMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return o
}

func outcomeNames(outcomes []datatypes.DetectionOutcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.DetectorName
	}
	return out
}

func TestNewValidatesConfig(t *testing.T) {
	registry := detectors.NewRegistry(nil)
	store := cache.NewMemory()
	policy := retry.New(1, 0)

	_, err := New(Config{Cache: store, Retry: policy})
	assert.Error(t, err)
	_, err = New(Config{Registry: registry, Retry: policy})
	assert.Error(t, err)
	_, err = New(Config{Registry: registry, Cache: store})
	assert.Error(t, err)
}

func TestRunRegistryOrder(t *testing.T) {
	// Staggered delays so completion order inverts registry order.
	a := &fakeDetector{name: "a", priority: 10, delay: 30 * time.Millisecond}
	b := &fakeDetector{name: "b", priority: 20, delay: 15 * time.Millisecond}
	c := &fakeDetector{name: "c", priority: 30}
	o := newTestOrchestrator(t, nil, a, b, c)

	outcomes := o.Run(context.Background(), nil, []string{"a", "b", "c"}, "m")
	assert.Equal(t, []string{"a", "b", "c"}, outcomeNames(outcomes))
}

func TestRunDetectorIsolation(t *testing.T) {
	good := &fakeDetector{name: "good", priority: 10}
	bad := &fakeDetector{name: "bad", priority: 20, failFor: 1 << 30, err: errors.New("broken")}
	alsoGood := &fakeDetector{name: "tail", priority: 30}
	o := newTestOrchestrator(t, nil, good, bad, alsoGood)

	outcomes := o.Run(context.Background(), nil, []string{"good", "bad", "tail"}, "m")
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Success)
	assert.False(t, outcomes[1].Success)
	assert.Contains(t, outcomes[1].ErrorMessage, "broken")
	assert.True(t, outcomes[2].Success)
}

func TestRunPanicIsolation(t *testing.T) {
	panicky := &fakeDetector{name: "panicky", priority: 10, panics: true}
	good := &fakeDetector{name: "good", priority: 20}
	o := newTestOrchestrator(t, nil, panicky, good)

	outcomes := o.Run(context.Background(), nil, []string{"panicky", "good"}, "m")
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].ErrorMessage, "panic")
	assert.True(t, outcomes[1].Success)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	flaky := &fakeDetector{name: "flaky", priority: 10, failFor: 2, err: &transientErr{msg: "quota"}}
	o := newTestOrchestrator(t, nil, flaky)

	outcomes := o.Run(context.Background(), nil, []string{"flaky"}, "m")
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, int64(3), flaky.calls.Load())
}

func TestRunPermanentFailureNotRetried(t *testing.T) {
	broken := &fakeDetector{name: "broken", priority: 10, failFor: 1 << 30, err: errors.New("bad prompt")}
	o := newTestOrchestrator(t, nil, broken)

	outcomes := o.Run(context.Background(), nil, []string{"broken"}, "m")
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, int64(1), broken.calls.Load())
}

func TestRunCacheHitSkipsDetector(t *testing.T) {
	store := cache.NewMemory()
	det := &fakeDetector{name: "cached", priority: 10}
	o := newTestOrchestrator(t, store, det)
	docs := []datatypes.Document{{ID: "d1", Period: "2024", Text: "body"}}

	first := o.Run(context.Background(), docs, []string{"cached"}, "m")
	require.True(t, first[0].Success)
	require.Equal(t, int64(1), det.calls.Load())

	second := o.Run(context.Background(), docs, []string{"cached"}, "m")
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), det.calls.Load(), "second run must be served from cache")
}

func TestRunFailedOutcomeNotCached(t *testing.T) {
	store := cache.NewMemory()
	det := &fakeDetector{name: "flaky", priority: 10, failFor: 1, err: errors.New("down")}
	o := newTestOrchestrator(t, store, det)
	docs := []datatypes.Document{{ID: "d1", Period: "2024", Text: "body"}}

	first := o.Run(context.Background(), docs, []string{"flaky"}, "m")
	require.False(t, first[0].Success)

	// The failure was not memoized, so the next run tries again and the
	// detector has recovered by then.
	second := o.Run(context.Background(), docs, []string{"flaky"}, "m")
	assert.True(t, second[0].Success)
}

func TestRunSelection(t *testing.T) {
	a := &fakeDetector{name: "a", priority: 10}
	b := &fakeDetector{name: "b", priority: 20}
	o := newTestOrchestrator(t, nil, a, b)

	outcomes := o.Run(context.Background(), nil, []string{"b", "unknown"}, "m")
	assert.Equal(t, []string{"b"}, outcomeNames(outcomes))

	outcomes = o.Run(context.Background(), nil, []string{"unknown"}, "m")
	assert.Empty(t, outcomes)
}

func TestRunEmptySelection(t *testing.T) {
	a := &fakeDetector{name: "a", priority: 10}
	b := &fakeDetector{name: "b", priority: 20}
	o := newTestOrchestrator(t, nil, a, b)

	// Selecting zero detectors is a valid request: nothing runs and the
	// aggregate over the empty sequence is NO_SIGNAL.
	outcomes := o.Run(context.Background(), nil, []string{}, "m")
	assert.Empty(t, outcomes)
	assert.Equal(t, int64(0), a.calls.Load())
	assert.Equal(t, int64(0), b.calls.Load())
	assert.Equal(t, datatypes.RatingNoSignal, aggregate.Score(outcomes).RiskRating)
}

func TestRunCancellation(t *testing.T) {
	fast := &fakeDetector{name: "fast", priority: 10}
	slow := &fakeDetector{name: "slow", priority: 20, delay: 5 * time.Second}
	alsoSlow := &fakeDetector{name: "tail", priority: 30, delay: 5 * time.Second}
	o := newTestOrchestrator(t, nil, fast, slow, alsoSlow)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcomes := o.Run(ctx, nil, []string{"fast", "slow", "tail"}, "m")
	assert.Less(t, time.Since(start), 2*time.Second, "cancellation must cut the run short")

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Success, "a finished outcome survives cancellation")
	assert.False(t, outcomes[1].Success)
	assert.False(t, outcomes[2].Success)
}

func TestRunEmptyRegistry(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	outcomes := o.Run(context.Background(), nil, nil, "m")
	assert.Empty(t, outcomes)
}
