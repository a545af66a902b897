// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report turns a finished scan into a narrative markdown report
// by handing the formatted outcomes back to the analysis backend for a
// final synthesis pass.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fathomresearch/shortscan/services/scanner/backend"
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// Generator produces comprehensive short-signal reports.
type Generator struct {
	backend backend.Backend
	logger  *slog.Logger
	now     func() time.Time
}

// New returns a Generator on the given backend.
func New(be backend.Backend, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{backend: be, logger: logger, now: time.Now}
}

// Generate asks the backend for a markdown report over the outcomes.
// The aggregate report is included so the narrative and the deterministic
// verdict cannot drift apart.
func (g *Generator) Generate(ctx context.Context, subject, model string, outcomes []datatypes.DetectionOutcome, agg datatypes.AggregateReport) (string, error) {
	prompt := g.buildPrompt(subject, outcomes, agg)
	g.logger.Info("generating narrative report", "subject", subject, "model", model)
	text, err := g.backend.Generate(ctx, prompt, model)
	if err != nil {
		return "", fmt.Errorf("report generation: %w", err)
	}
	return text, nil
}

func (g *Generator) buildPrompt(subject string, outcomes []datatypes.DetectionOutcome, agg datatypes.AggregateReport) string {
	var b strings.Builder
	b.WriteString("You are a professional short-selling analyst. Generate a comprehensive short signal report based on the following detection results.\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Analysis Date: %s\n", g.now().Format("2006-01-02"))
	fmt.Fprintf(&b, "Computed Risk Rating: %s (signal strength %.2f, %d signals)\n\n",
		agg.RiskRating, agg.SignalStrength, agg.TotalSignals)
	b.WriteString("Detection Results:\n")
	b.WriteString(FormatOutcomes(outcomes))
	b.WriteString(`
Please generate a professional short signal report including:
1. Executive Summary (overall risk assessment)
2. High-Risk Signal Summary
3. Detailed Findings by Detector
4. Short-selling Recommendation and Timing
5. Risk Warnings

Report requirements:
- Use professional financial analysis language
- Highlight key risk signals and base conclusions on evidence
- Use tables and lists for readability
- Escape all dollar signs $ for currency as ＄ to prevent markdown from rendering them as math.
`)
	return b.String()
}

// FormatOutcomes renders outcomes as the plain-text block embedded in the
// report prompt. Dollar signs in model-produced fields are escaped so the
// final markdown never trips math rendering.
func FormatOutcomes(outcomes []datatypes.DetectionOutcome) string {
	var b strings.Builder
	for _, outcome := range outcomes {
		fmt.Fprintf(&b, "\n=== %s ===\n", EscapeDollars(outcome.DetectorName))
		status := "success"
		if !outcome.Success {
			status = "failure"
		}
		fmt.Fprintf(&b, "Status: %s\n", status)
		fmt.Fprintf(&b, "Processing time: %.2fs\n", outcome.ProcessingTime.Seconds())
		fmt.Fprintf(&b, "Signals found: %d\n", len(outcome.Signals))
		if outcome.ErrorMessage != "" {
			fmt.Fprintf(&b, "Error: %s\n", EscapeDollars(outcome.ErrorMessage))
		}
		for _, sig := range outcome.Signals {
			fmt.Fprintf(&b, "\n- Signal type: %s\n", EscapeDollars(sig.SignalType))
			fmt.Fprintf(&b, "  Severity: %s\n", sig.Severity)
			fmt.Fprintf(&b, "  Confidence: %.2f\n", sig.Confidence)
			fmt.Fprintf(&b, "  Title: %s\n", EscapeDollars(sig.Title))
			fmt.Fprintf(&b, "  Description: %s\n", EscapeDollars(sig.Description))
			fmt.Fprintf(&b, "  Evidence: %s\n", EscapeDollars(sig.Evidence))
			fmt.Fprintf(&b, "  Recommendation: %s\n", EscapeDollars(sig.Recommendation))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// EscapeDollars swaps ASCII dollar signs for the full-width variant so
// markdown/KaTeX renderers don't treat currency amounts as formulas.
func EscapeDollars(text string) string {
	return strings.ReplaceAll(text, "$", "＄")
}
