// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package detectors defines the detector capability contract, the registry
// the orchestrator selects from, and the built-in short-signal detectors.
//
// A detector is stateless: it holds configuration and collaborators fixed
// at construction, never mutable cross-call state, so one instance can
// serve concurrent runs.
package detectors

import (
	"context"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// Detector is the two-operation capability every detector provides.
// New detectors register by implementing this interface; there is no
// inheritance hierarchy.
type Detector interface {
	// Name uniquely identifies the detector within a registry.
	Name() string

	// Description is a one-line human-readable summary.
	Description() string

	// Priority orders detectors deterministically; lower ranks first.
	// It is a tie-breaking rank, not a scheduling preference.
	Priority() int

	// BuildPrompt renders the analysis prompt for the given documents.
	BuildPrompt(docs []datatypes.Document) string

	// Detect runs one analysis pass over the documents using the given
	// backend model. On success the returned outcome carries the parsed
	// signals; on failure the error is typed (transient/permanent) so
	// the retry policy can classify it.
	Detect(ctx context.Context, docs []datatypes.Document, model string) (datatypes.DetectionOutcome, error)
}
