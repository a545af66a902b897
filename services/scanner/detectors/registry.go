// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package detectors

import (
	"log/slog"
	"sort"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// Registry is an ordered, immutable collection of detectors.
//
// Ordering is priority ascending with name as the tie-breaker, fixed at
// construction. The registry is the single source of output ordering for
// the orchestrator: results always come back in registry order no matter
// which detector finishes first.
type Registry struct {
	ordered []Detector
	byName  map[string]Detector
	logger  *slog.Logger
}

// NewRegistry builds a registry from the given detectors. Duplicate names
// keep the first registration; later duplicates are logged and dropped.
func NewRegistry(logger *slog.Logger, ds ...Detector) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		byName: make(map[string]Detector, len(ds)),
		logger: logger,
	}
	for _, d := range ds {
		if _, exists := r.byName[d.Name()]; exists {
			logger.Warn("duplicate detector name, keeping first registration", "name", d.Name())
			continue
		}
		r.byName[d.Name()] = d
		r.ordered = append(r.ordered, d)
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		if r.ordered[i].Priority() != r.ordered[j].Priority() {
			return r.ordered[i].Priority() < r.ordered[j].Priority()
		}
		return r.ordered[i].Name() < r.ordered[j].Name()
	})
	return r
}

// All returns every detector in registry order.
func (r *Registry) All() []Detector {
	out := make([]Detector, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Lookup finds a detector by name.
func (r *Registry) Lookup(name string) (Detector, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns every detector name in registry order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.ordered))
	for _, d := range r.ordered {
		out = append(out, d.Name())
	}
	return out
}

// Select filters the registry to the named detectors, preserving registry
// order. Unknown names are skipped with a log line, never an error: the
// caller observes the skip as a missing outcome. An empty selection
// selects nothing; callers that want every detector pass Names().
func (r *Registry) Select(names []string) []Detector {
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			r.logger.Warn("unknown detector requested, skipping", "name", name)
			continue
		}
		wanted[name] = true
	}
	var out []Detector
	for _, d := range r.ordered {
		if wanted[d.Name()] {
			out = append(out, d)
		}
	}
	return out
}

// Info lists registry entries for presentation layers.
func (r *Registry) Info() []datatypes.DetectorInfo {
	out := make([]datatypes.DetectorInfo, 0, len(r.ordered))
	for _, d := range r.ordered {
		out = append(out, datatypes.DetectorInfo{
			Name:        d.Name(),
			Description: d.Description(),
			Priority:    d.Priority(),
		})
	}
	return out
}
