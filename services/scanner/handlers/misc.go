// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathomresearch/shortscan/services/scanner/cache"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
)

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListDetectors returns the registry contents in registry order.
func ListDetectors(registry *detectors.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"detectors": registry.Info()})
	}
}

// ClearCache drops every memoized outcome.
func ClearCache(store cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Clear(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cleared"})
	}
}
