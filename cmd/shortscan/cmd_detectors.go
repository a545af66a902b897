// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List registered detectors in execution order",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, info := range buildRegistry().Info() {
			cmd.Printf("%-28s priority %2d  %s\n", info.Name, info.Priority, info.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(detectorsCmd)
}
