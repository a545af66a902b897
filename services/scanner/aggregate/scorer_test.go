// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

func outcomeWith(signals ...datatypes.Signal) datatypes.DetectionOutcome {
	return datatypes.DetectionOutcome{
		DetectorName:   "test",
		Signals:        signals,
		ProcessingTime: time.Second,
		Success:        true,
	}
}

func sig(sev datatypes.Severity, confidence float64) datatypes.Signal {
	return datatypes.Signal{
		SignalType: "T",
		Severity:   sev,
		Confidence: confidence,
		Title:      "t",
	}
}

func TestScoreThreeHighSignals(t *testing.T) {
	report := Score([]datatypes.DetectionOutcome{
		outcomeWith(
			sig(datatypes.SeverityHigh, 0.9),
			sig(datatypes.SeverityHigh, 0.9),
			sig(datatypes.SeverityHigh, 0.9),
		),
	})
	assert.Equal(t, 3, report.TotalSignals)
	assert.Equal(t, 3, report.SeverityCounts[datatypes.SeverityHigh])
	assert.InDelta(t, 0.9, report.SignalStrength, 1e-9)
	assert.Equal(t, datatypes.RatingStrongShort, report.RiskRating)
}

func TestScoreSingleMediumSignal(t *testing.T) {
	report := Score([]datatypes.DetectionOutcome{
		outcomeWith(sig(datatypes.SeverityMedium, 0.5)),
	})
	assert.Equal(t, 1, report.TotalSignals)
	// 2 * 0.5 / (3 * 1)
	assert.InDelta(t, 1.0/3.0, report.SignalStrength, 1e-9)
	assert.Equal(t, datatypes.RatingNoSignal, report.RiskRating)
}

func TestScoreHighCountOverridesLowStrength(t *testing.T) {
	// Three High signals at low confidence: weak strength, but the count
	// rule still promotes to STRONG_SHORT.
	report := Score([]datatypes.DetectionOutcome{
		outcomeWith(
			sig(datatypes.SeverityHigh, 0.1),
			sig(datatypes.SeverityHigh, 0.1),
			sig(datatypes.SeverityHigh, 0.1),
		),
	})
	assert.Less(t, report.SignalStrength, 0.4)
	assert.Equal(t, datatypes.RatingStrongShort, report.RiskRating)
}

func TestScoreRatingLadder(t *testing.T) {
	tests := []struct {
		name     string
		signals  []datatypes.Signal
		expected datatypes.RiskRating
	}{
		{
			"strength 0.8 boundary",
			[]datatypes.Signal{sig(datatypes.SeverityMedium, 1), sig(datatypes.SeverityHigh, 1)},
			// (2 + 3) / 6 = 0.833
			datatypes.RatingStrongShort,
		},
		{
			"two high signals moderate",
			[]datatypes.Signal{sig(datatypes.SeverityHigh, 0.3), sig(datatypes.SeverityHigh, 0.3)},
			datatypes.RatingModerateShort,
		},
		{
			"one high signal weak",
			[]datatypes.Signal{sig(datatypes.SeverityHigh, 0.2)},
			datatypes.RatingWeakShort,
		},
		{
			"medium strength moderate without highs",
			[]datatypes.Signal{sig(datatypes.SeverityMedium, 1), sig(datatypes.SeverityMedium, 1)},
			// 4 / 6 = 0.667
			datatypes.RatingModerateShort,
		},
		{
			"weak strength without highs",
			[]datatypes.Signal{sig(datatypes.SeverityMedium, 0.75), sig(datatypes.SeverityMedium, 0.75)},
			// 3 / 6 = 0.5
			datatypes.RatingWeakShort,
		},
		{
			"low signals only no rating",
			[]datatypes.Signal{sig(datatypes.SeverityLow, 0.9), sig(datatypes.SeverityLow, 0.9)},
			datatypes.RatingNoSignal,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report := Score([]datatypes.DetectionOutcome{outcomeWith(tc.signals...)})
			assert.Equal(t, tc.expected, report.RiskRating)
		})
	}
}

func TestScoreIgnoresFailedOutcomes(t *testing.T) {
	failed := datatypes.FailedOutcome("broken", time.Second, assert.AnError)
	report := Score([]datatypes.DetectionOutcome{
		failed,
		outcomeWith(sig(datatypes.SeverityHigh, 0.9)),
	})
	assert.Equal(t, 1, report.TotalSignals)
	assert.Equal(t, datatypes.RatingWeakShort, report.RiskRating)
}

func TestScoreEmptyInput(t *testing.T) {
	for _, outcomes := range [][]datatypes.DetectionOutcome{
		nil,
		{},
		{datatypes.FailedOutcome("a", 0, assert.AnError)},
	} {
		report := Score(outcomes)
		assert.Equal(t, 0, report.TotalSignals)
		assert.Equal(t, 0.0, report.SignalStrength)
		assert.Equal(t, datatypes.RatingNoSignal, report.RiskRating)
		// Severity counts are always fully populated.
		require.Len(t, report.SeverityCounts, 3)
	}
}

func TestScoreIdempotent(t *testing.T) {
	outcomes := []datatypes.DetectionOutcome{
		outcomeWith(sig(datatypes.SeverityHigh, 0.7), sig(datatypes.SeverityLow, 0.2)),
		outcomeWith(sig(datatypes.SeverityMedium, 0.6)),
	}
	first := Score(outcomes)
	second := Score(outcomes)
	assert.Equal(t, first, second)
}

func TestScoreStrengthBounded(t *testing.T) {
	report := Score([]datatypes.DetectionOutcome{
		outcomeWith(sig(datatypes.SeverityHigh, 1), sig(datatypes.SeverityHigh, 1)),
	})
	assert.Equal(t, 1.0, report.SignalStrength)
	assert.Equal(t, datatypes.RatingStrongShort, report.RiskRating)
}
