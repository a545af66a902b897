// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// shortscan is the command-line front end to the short-signal scanner:
// it runs detector scans, lists the registry, and manages the outcome
// cache without requiring the HTTP service.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fathomresearch/shortscan/pkg/logging"
	"github.com/fathomresearch/shortscan/services/scanner/config"
)

var (
	cfg        config.Config
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "shortscan",
	Short: "Detect short-sale signals in corporate disclosures",
	Long: `shortscan runs a set of independent detectors over a corpus of
corporate disclosures and aggregates their findings into a single
risk verdict.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := logging.LevelFromEnv("SHORTSCAN_LOG_LEVEL")
		if verbose {
			level = logging.LevelDebug
		}
		logger := logging.New(logging.Config{Level: level, Service: "cli"})
		slog.SetDefault(logger.Slog())

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("configuration error: %v", err)
		}
	}
}
