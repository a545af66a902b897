// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the wire and domain types shared by the scanner
// service: documents, detection signals, per-detector outcomes, and the
// aggregate risk report.
package datatypes

// DocumentSource classifies where a document came from.
type DocumentSource string

const (
	// SourceFiling is a regulatory filing (10-K, 10-Q, 20-F, 6-K, ...).
	SourceFiling DocumentSource = "filing"

	// SourceTranscript is an earnings call transcript.
	SourceTranscript DocumentSource = "transcript"
)

// Document is one unit of disclosure text under analysis.
//
// Documents are owned by the corpus accessor. The scanner core only reads
// them; no detector may mutate a document.
type Document struct {
	// ID uniquely identifies the document within a run. Signals reference
	// documents by this ID rather than embedding them.
	ID string `json:"id"`

	// Source says whether this is a filing or a transcript.
	Source DocumentSource `json:"source"`

	// Period is the reporting period the document covers, either an ISO
	// date or a fiscal label such as "FY2024 Q3".
	Period string `json:"period"`

	// Title is a human-readable document title, e.g. "10-K (2024-02-21)".
	Title string `json:"title"`

	// Text is the extracted body text.
	Text string `json:"text"`
}
