// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fathomresearch/shortscan/pkg/validation"
	"github.com/fathomresearch/shortscan/services/scanner/aggregate"
	"github.com/fathomresearch/shortscan/services/scanner/corpus"
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

var scanFlags struct {
	subject       string
	years         int
	detectors     []string
	model         string
	withNarrative bool
	jsonOutput    bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run detectors over a subject's document corpus",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFlags.subject, "subject", "", "ticker or company identifier (required)")
	scanCmd.Flags().IntVar(&scanFlags.years, "years", 2, "lookback window in years")
	scanCmd.Flags().StringSliceVar(&scanFlags.detectors, "detectors", nil, "detector names to run (default: all)")
	scanCmd.Flags().StringVar(&scanFlags.model, "model", "", "backend model identifier (default: configured)")
	scanCmd.Flags().BoolVar(&scanFlags.withNarrative, "report", false, "also generate the narrative markdown report")
	scanCmd.Flags().BoolVar(&scanFlags.jsonOutput, "json", false, "emit machine-readable JSON")
	_ = scanCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subject, err := validation.SanitizeSubject(scanFlags.subject)
	if err != nil {
		return err
	}

	s, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	model := scanFlags.model
	if model == "" {
		model = cfg.Backend.DefaultModel
	}

	accessor := corpus.NewDir(cfg.Corpus.Dir, slog.Default())
	docs, err := corpus.FetchOrEmpty(ctx, accessor, subject, scanFlags.years, slog.Default())
	if err != nil {
		return fmt.Errorf("corpus fetch: %w", err)
	}

	selected := scanFlags.detectors
	if len(selected) == 0 {
		selected = s.registry.Names()
	}

	outcomes := s.engine.Run(ctx, docs, selected, model)
	agg := aggregate.Score(outcomes)

	narrative := ""
	if scanFlags.withNarrative {
		narrative, err = s.reporter.Generate(ctx, subject, model, outcomes, agg)
		if err != nil {
			slog.Warn("narrative report failed", "error", err)
		}
	}

	if scanFlags.jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(datatypes.ScanResponse{
			RunID:     uuid.NewString(),
			Subject:   subject,
			Model:     model,
			Documents: len(docs),
			Outcomes:  outcomes,
			Report:    agg,
			Narrative: narrative,
		})
	}

	printOutcomes(cmd, outcomes, agg)
	if narrative != "" {
		cmd.Println("\n--- Narrative report ---")
		cmd.Println(narrative)
	}
	return nil
}

func printOutcomes(cmd *cobra.Command, outcomes []datatypes.DetectionOutcome, agg datatypes.AggregateReport) {
	for _, outcome := range outcomes {
		status := "ok"
		if !outcome.Success {
			status = "FAILED: " + outcome.ErrorMessage
		}
		cmd.Printf("%-28s %2d signals  %6.2fs  %s\n",
			outcome.DetectorName, len(outcome.Signals),
			outcome.ProcessingTime.Seconds(), status)
		for _, sig := range outcome.Signals {
			cmd.Printf("    [%s %.2f] %s\n", sig.Severity, sig.Confidence, sig.Title)
		}
	}
	cmd.Printf("\nTotal signals: %d  (High %d / Medium %d / Low %d)\n",
		agg.TotalSignals,
		agg.SeverityCounts[datatypes.SeverityHigh],
		agg.SeverityCounts[datatypes.SeverityMedium],
		agg.SeverityCounts[datatypes.SeverityLow])
	cmd.Printf("Signal strength: %.3f\n", agg.SignalStrength)
	cmd.Printf("Risk rating: %s\n", agg.RiskRating)
}
