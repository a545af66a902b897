// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package parser converts raw analysis-backend text into validated signals.
//
// The backend is prompted to answer with a JSON object inside a fenced
// ```json block, but models drift: the parser accepts a bare JSON body,
// strips control characters, and normalizes the full-width dollar sign the
// prompt asks for. Validation is strict per entry and lenient per batch:
// a malformed entry is dropped with a logged reason, valid siblings are
// kept, and nothing is ever defaulted for a missing required field.
package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// MalformedResponseError reports that backend output failed structural
// validation and no signals could be recovered from it.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed backend response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed backend response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// fencedJSONPattern extracts the first ```json fenced block. Dotall so the
// object may span lines.
var fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// controlCharPattern matches control characters that some models leak into
// string literals and that encoding/json rejects. Newline stays: stripping
// it would merge lines, and it only appears between tokens anyway.
var controlCharPattern = regexp.MustCompile(`[\x00-\x09\x0b-\x1f\x7f]`)

// Parser validates backend responses into Signal values.
//
// The zero value is not usable; construct with New. Safe for concurrent use.
type Parser struct {
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Parser logging drop reasons to the given logger.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, now: time.Now}
}

// envelope is the top-level response contract.
type envelope struct {
	Signals []json.RawMessage `json:"signals"`
}

// rawSignal mirrors the per-entry contract before validation. Confidence is
// a json.Number so a non-numeric value fails this entry, not the batch.
type rawSignal struct {
	SignalType      string      `json:"signal_type"`
	Severity        string      `json:"severity"`
	Confidence      json.Number `json:"confidence"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Evidence        string      `json:"evidence"`
	Recommendation  string      `json:"recommendation"`
	SourceDocuments []string    `json:"source_documents"`
}

// Parse extracts the ordered signal list from raw backend output.
//
// Returns a *MalformedResponseError when the top-level structure cannot be
// parsed at all. When the envelope parses but individual entries are bad,
// the bad entries are dropped with a warning and the rest are returned.
func (p *Parser) Parse(raw string) ([]datatypes.Signal, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, &MalformedResponseError{Reason: "no JSON object found in response"}
	}

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON envelope", Err: err}
	}

	signals := make([]datatypes.Signal, 0, len(env.Signals))
	for i, entry := range env.Signals {
		sig, err := p.parseEntry(entry)
		if err != nil {
			p.logger.Warn("dropping malformed signal entry", "index", i, "reason", err)
			continue
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

func (p *Parser) parseEntry(entry json.RawMessage) (datatypes.Signal, error) {
	var rs rawSignal
	if err := json.Unmarshal(entry, &rs); err != nil {
		return datatypes.Signal{}, fmt.Errorf("invalid entry JSON: %w", err)
	}

	severity, err := datatypes.ParseSeverity(rs.Severity)
	if err != nil {
		return datatypes.Signal{}, err
	}
	if rs.Confidence == "" {
		return datatypes.Signal{}, fmt.Errorf("missing confidence")
	}
	confidence, err := rs.Confidence.Float64()
	if err != nil {
		return datatypes.Signal{}, fmt.Errorf("non-numeric confidence %q", rs.Confidence)
	}

	sig := datatypes.Signal{
		SignalType:        rs.SignalType,
		Severity:          severity,
		Confidence:        confidence,
		Title:             rs.Title,
		Description:       rs.Description,
		Evidence:          rs.Evidence,
		Recommendation:    rs.Recommendation,
		SourceDocumentIDs: rs.SourceDocuments,
		DetectedAt:        p.now().UTC(),
	}
	if err := sig.Validate(); err != nil {
		return datatypes.Signal{}, err
	}
	return sig, nil
}

// extractJSON pulls the JSON object out of the response: fenced block if
// present, otherwise the trimmed body. Returns "" when neither looks like
// an object.
func extractJSON(raw string) string {
	if m := fencedJSONPattern.FindStringSubmatch(raw); len(m) > 1 {
		return cleanJSON(m[1])
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		return cleanJSON(trimmed)
	}
	return ""
}

// cleanJSON undoes the damage models routinely inflict on the contract:
// the full-width dollar sign the prompt mandates for markdown safety, and
// stray control characters inside string literals.
func cleanJSON(s string) string {
	s = strings.ReplaceAll(s, "＄", "$")
	return controlCharPattern.ReplaceAllString(s, "")
}
