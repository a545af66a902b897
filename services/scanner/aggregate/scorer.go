// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package aggregate reduces detection outcomes into a single risk verdict.
package aggregate

import (
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// Maximum per-signal weight: a High-severity signal at full confidence.
const maxSignalWeight = 3.0

// Rating thresholds, evaluated strongest first. A single input matching
// multiple bands classifies at its highest band; evaluation order never
// downgrades it. A lone cluster of high-severity signals can override a
// low aggregate strength, which preserves deliberate sensitivity to one
// strong finding.
const (
	strongStrength   = 0.8
	moderateStrength = 0.6
	weakStrength     = 0.4

	strongHighCount   = 3
	moderateHighCount = 2
	weakHighCount     = 1
)

// Score reduces outcomes into an AggregateReport.
//
// Only successful outcomes contribute. Each signal weighs severity weight
// (High 3, Medium 2, Low 1) times confidence; signal strength is the sum
// normalized by the maximum possible weight, so it always lands in [0,1].
// Zero signals yield strength exactly 0 and NO_SIGNAL, never an error,
// so a run where every detector failed still scores.
//
// Score is a pure function: identical inputs give identical reports, and
// it never mutates its argument.
func Score(outcomes []datatypes.DetectionOutcome) datatypes.AggregateReport {
	counts := map[datatypes.Severity]int{
		datatypes.SeverityHigh:   0,
		datatypes.SeverityMedium: 0,
		datatypes.SeverityLow:    0,
	}

	total := 0
	weightSum := 0.0
	for _, outcome := range outcomes {
		if !outcome.Success {
			continue
		}
		for _, sig := range outcome.Signals {
			total++
			counts[sig.Severity]++
			weightSum += sig.Severity.Weight() * sig.Confidence
		}
	}

	strength := 0.0
	if total > 0 {
		strength = weightSum / (maxSignalWeight * float64(total))
	}

	return datatypes.AggregateReport{
		TotalSignals:   total,
		SeverityCounts: counts,
		SignalStrength: strength,
		RiskRating:     rate(strength, counts[datatypes.SeverityHigh]),
	}
}

// rate applies the first-match-wins rating ladder.
func rate(strength float64, highCount int) datatypes.RiskRating {
	switch {
	case strength >= strongStrength || highCount >= strongHighCount:
		return datatypes.RatingStrongShort
	case strength >= moderateStrength || highCount >= moderateHighCount:
		return datatypes.RatingModerateShort
	case strength >= weakStrength || highCount >= weakHighCount:
		return datatypes.RatingWeakShort
	default:
		return datatypes.RatingNoSignal
	}
}
