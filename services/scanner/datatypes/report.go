// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// RiskRating is the discrete verdict derived from aggregated signals.
type RiskRating string

const (
	RatingStrongShort   RiskRating = "STRONG_SHORT"
	RatingModerateShort RiskRating = "MODERATE_SHORT"
	RatingWeakShort     RiskRating = "WEAK_SHORT"
	RatingNoSignal      RiskRating = "NO_SIGNAL"
)

// AggregateReport is a pure function of a set of detection outcomes.
//
// It is recomputed on demand and never persisted as authoritative state.
// SignalStrength is a scalar in [0,1]; zero signals yield exactly 0 and
// a NO_SIGNAL rating, never an error.
type AggregateReport struct {
	TotalSignals   int              `json:"total_signals"`
	SeverityCounts map[Severity]int `json:"severity_counts"`
	SignalStrength float64          `json:"signal_strength"`
	RiskRating     RiskRating       `json:"risk_rating"`
}
