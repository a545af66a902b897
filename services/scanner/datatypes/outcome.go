// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// DetectionOutcome is the result of running one detector once.
//
// Exactly one outcome exists per selected detector per run. It is created
// once by the orchestrator (or fetched from cache) and never mutated.
// Signals is empty when Success is false; ErrorMessage is set iff the run
// failed.
type DetectionOutcome struct {
	DetectorName   string        `json:"detector_name"`
	Signals        []Signal      `json:"signals"`
	ProcessingTime time.Duration `json:"processing_time"`
	Success        bool          `json:"success"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// FailedOutcome builds the outcome recorded when a detector could not
// complete. Failed outcomes are returned to the caller but never cached.
func FailedOutcome(detector string, elapsed time.Duration, err error) DetectionOutcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return DetectionOutcome{
		DetectorName:   detector,
		Signals:        nil,
		ProcessingTime: elapsed,
		Success:        false,
		ErrorMessage:   msg,
	}
}
