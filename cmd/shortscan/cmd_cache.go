// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the detection outcome cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached detection outcomes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := buildCache(cfg)
		if err != nil {
			return fmt.Errorf("cache init: %w", err)
		}
		defer store.Close()
		if err := store.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
		cmd.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
