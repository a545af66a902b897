// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// ScanRequest is the body of POST /api/v1/scan.
type ScanRequest struct {
	// Subject is the ticker or company identifier handed to the corpus
	// accessor.
	Subject string `json:"subject" binding:"required" validate:"required,min=1,max=32"`

	// Years is the lookback window for corpus retrieval.
	Years int `json:"years" validate:"min=1,max=10"`

	// Detectors selects registry entries by name. Empty means all.
	// Unknown names are skipped, not rejected.
	Detectors []string `json:"detectors"`

	// Model is the backend model identifier. Empty falls back to the
	// configured default.
	Model string `json:"model"`

	// Report asks the service to also generate the narrative markdown
	// report via the analysis backend.
	Report bool `json:"report"`
}

// ScanResponse is the body returned by POST /api/v1/scan.
type ScanResponse struct {
	RunID     string             `json:"run_id"`
	Subject   string             `json:"subject"`
	Model     string             `json:"model"`
	Documents int                `json:"documents"`
	Outcomes  []DetectionOutcome `json:"outcomes"`
	Report    AggregateReport    `json:"report"`
	Narrative string             `json:"narrative,omitempty"`
}

// ScoreRequest is the body of POST /api/v1/score: re-score a set of
// previously obtained outcomes without touching the backend.
type ScoreRequest struct {
	Outcomes []DetectionOutcome `json:"outcomes" binding:"required"`
}

// DetectorInfo describes one registry entry for GET /api/v1/detectors.
type DetectorInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}
