// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"time"
)

// Severity grades how serious a detected signal is.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// ParseSeverity validates a raw severity string against the three accepted
// literals. Anything else is a parse error; the response parser drops the
// offending signal entry rather than guessing a default.
func ParseSeverity(raw string) (Severity, error) {
	switch Severity(raw) {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(raw), nil
	default:
		return "", fmt.Errorf("invalid severity %q (want High, Medium, or Low)", raw)
	}
}

// Weight returns the scoring weight used by the aggregator: High 3,
// Medium 2, Low 1. Unknown severities weigh 0 but cannot be constructed
// through ParseSeverity.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Signal is one short-sale finding extracted from a backend response.
//
// Signals are created by the response parser and immutable afterwards.
// The JSON field names mirror the response contract the analysis backend
// is prompted to produce.
type Signal struct {
	SignalType        string    `json:"signal_type"`
	Severity          Severity  `json:"severity"`
	Confidence        float64   `json:"confidence"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Evidence          string    `json:"evidence"`
	Recommendation    string    `json:"recommendation"`
	SourceDocumentIDs []string  `json:"source_documents"`
	DetectedAt        time.Time `json:"detected_at"`
}

// Validate checks the invariants the parser must enforce: severity is one
// of the enumerated literals and confidence lies in [0,1].
func (s Signal) Validate() error {
	if _, err := ParseSeverity(string(s.Severity)); err != nil {
		return err
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", s.Confidence)
	}
	if s.SignalType == "" {
		return fmt.Errorf("missing signal_type")
	}
	if s.Title == "" {
		return fmt.Errorf("missing title")
	}
	return nil
}
