// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cache memoizes successful detection outcomes.
//
// A cache entry is keyed by (document-set identity, detector name, backend
// model identifier) so that rerunning an identical scan within the TTL
// costs zero backend calls. Failed outcomes are never stored: a failure
// must always be retried, not memoized.
//
// Two implementations exist:
//
//   - Memory: map-backed, per-process, for tests and one-shot CLI runs.
//   - Badger: BadgerDB-backed, the only scanner state that survives a
//     process restart.
//
// Both check expiry logically at read time, so a Get after TTL reports a
// miss even if the entry has not been physically purged yet.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// ErrFailedOutcome is returned by Put when the caller tries to memoize an
// unsuccessful outcome.
var ErrFailedOutcome = errors.New("cache: refusing to store failed outcome")

// Cache is the shared-state contract between concurrent detector tasks.
//
// Implementations must be safe for concurrent use; reads are linearizable
// with respect to puts made before them by the same caller, and distinct
// keys never interfere.
type Cache interface {
	// Get returns the cached outcome for key, or ok=false on a miss or
	// after logical expiry.
	Get(ctx context.Context, key string) (datatypes.DetectionOutcome, bool)

	// Put stores a successful outcome under key for ttl. Storing a failed
	// outcome returns ErrFailedOutcome.
	Put(ctx context.Context, key string, outcome datatypes.DetectionOutcome, ttl time.Duration) error

	// Clear drops every entry.
	Clear(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
