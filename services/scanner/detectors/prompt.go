// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package detectors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fathomresearch/shortscan/services/scanner/backend"
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
	"github.com/fathomresearch/shortscan/services/scanner/parser"
)

// responseContract is appended to every prompt so the backend answers in
// the format the response parser expects. Dollar signs are escaped to the
// full-width variant so downstream markdown renderers don't treat amounts
// as math.
const responseContract = `Return detection results in JSON format:
` + "```json" + `
{
    "signals": [
        {
            "signal_type": "%s",
            "severity": "High/Medium/Low",
            "confidence": 0.85,
            "title": "Signal Title",
            "description": "Detailed description of the finding",
            "evidence": "Specific evidence and data",
            "recommendation": "Recommended action",
            "source_documents": ["document-id-1", "document-id-2"]
        }
    ]
}
` + "```" + `
Reference documents by the id shown in brackets in the document headers.
Escape all dollar signs $ for currency as ＄ to prevent markdown from rendering them as math.`

// promptDetector is the shared implementation behind every built-in
// detector: render a prompt, call the backend once, parse the response.
// The per-detector variation lives entirely in the prompt fields.
type promptDetector struct {
	name        string
	description string
	priority    int

	// persona is the role-setting first line of the prompt.
	persona string

	// subject completes "analyze the following documents for <subject>".
	subject string

	// focus is the numbered Detection Focus list.
	focus []string

	// signalType is the category tag the backend is asked to emit.
	signalType string

	backend backend.Backend
	parser  *parser.Parser
	logger  *slog.Logger
}

func (d *promptDetector) Name() string        { return d.name }
func (d *promptDetector) Description() string { return d.description }
func (d *promptDetector) Priority() int       { return d.priority }

// BuildPrompt implements Detector.
func (d *promptDetector) BuildPrompt(docs []datatypes.Document) string {
	var b strings.Builder
	b.WriteString(d.persona)
	b.WriteString("\n\nDetection Focus:\n")
	for i, f := range d.focus {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	fmt.Fprintf(&b, "\nPlease analyze the following documents for %s:\n\nDocument Content:\n", d.subject)
	for _, doc := range docs {
		fmt.Fprintf(&b, "\n=== %s (%s) [%s] ===\n%s\n", doc.Title, doc.Period, doc.ID, doc.Text)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, responseContract, d.signalType)
	return b.String()
}

// Detect implements Detector.
func (d *promptDetector) Detect(ctx context.Context, docs []datatypes.Document, model string) (datatypes.DetectionOutcome, error) {
	start := time.Now()
	d.logger.Info("detector started", "detector", d.name, "documents", len(docs), "model", model)

	prompt := d.BuildPrompt(docs)
	response, err := d.backend.Generate(ctx, prompt, model)
	if err != nil {
		return datatypes.DetectionOutcome{}, err
	}

	signals, err := d.parser.Parse(response)
	if err != nil {
		// A structurally unusable response is a permanent failure:
		// replaying the identical prompt tends to reproduce it.
		return datatypes.DetectionOutcome{}, &backend.PermanentError{Err: err}
	}

	elapsed := time.Since(start)
	d.logger.Info("detector finished",
		"detector", d.name, "signals", len(signals), "elapsed", elapsed)
	return datatypes.DetectionOutcome{
		DetectorName:   d.name,
		Signals:        signals,
		ProcessingTime: elapsed,
		Success:        true,
	}, nil
}
