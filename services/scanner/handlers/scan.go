// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP surface of the scanner service.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fathomresearch/shortscan/pkg/validation"
	"github.com/fathomresearch/shortscan/services/scanner/aggregate"
	"github.com/fathomresearch/shortscan/services/scanner/corpus"
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
	"github.com/fathomresearch/shortscan/services/scanner/engine"
	"github.com/fathomresearch/shortscan/services/scanner/report"
)

// ScanDeps bundles the collaborators the scan handler needs.
type ScanDeps struct {
	Engine       *engine.Orchestrator
	Registry     *detectors.Registry
	Accessor     corpus.Accessor
	Reporter     *report.Generator
	DefaultModel string
}

// HandleScan runs a full scan: fetch corpus, run detectors, score, and
// optionally generate the narrative report.
//
// Corpus unavailability degrades to zero documents; the response is still
// produced (typically NO_SIGNAL) so the consumer can always render a
// result.
func HandleScan(deps ScanDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		subject, err := validation.SanitizeSubject(req.Subject)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Subject = subject
		if req.Years <= 0 {
			req.Years = 2
		}
		model := req.Model
		if model == "" {
			model = deps.DefaultModel
		}
		runID := uuid.NewString()
		logger := slog.Default().With("run_id", runID, "subject", req.Subject)

		docs, err := corpus.FetchOrEmpty(c.Request.Context(), deps.Accessor, req.Subject, req.Years, logger)
		if err != nil {
			logger.Error("corpus fetch failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "corpus fetch failed: " + err.Error()})
			return
		}

		// "Empty means all" is this surface's convenience, expanded here
		// so the engine itself runs exactly what it is told to.
		selected := req.Detectors
		if len(selected) == 0 {
			selected = deps.Registry.Names()
		}

		outcomes := deps.Engine.Run(c.Request.Context(), docs, selected, model)
		agg := aggregate.Score(outcomes)

		resp := datatypes.ScanResponse{
			RunID:     runID,
			Subject:   req.Subject,
			Model:     model,
			Documents: len(docs),
			Outcomes:  outcomes,
			Report:    agg,
		}
		if req.Report && deps.Reporter != nil {
			narrative, err := deps.Reporter.Generate(c.Request.Context(), req.Subject, model, outcomes, agg)
			if err != nil {
				// The deterministic scan stands on its own; a failed
				// narrative pass is reported but not fatal.
				logger.Warn("narrative report failed", "error", err)
			} else {
				resp.Narrative = narrative
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleScore re-scores previously obtained outcomes. Pure apart from
// reading the request.
func HandleScore() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, aggregate.Score(req.Outcomes))
	}
}
