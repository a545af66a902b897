// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fathomresearch/shortscan/services/scanner/cache"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
	"github.com/fathomresearch/shortscan/services/scanner/handlers"
	"github.com/fathomresearch/shortscan/services/scanner/middleware"
)

// SetupRoutes wires the scanner's HTTP surface onto router.
func SetupRoutes(router *gin.Engine, scan handlers.ScanDeps, registry *detectors.Registry, store cache.Cache) {
	router.Use(middleware.RequestID())

	router.GET("/healthz", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scan", handlers.HandleScan(scan))
		v1.POST("/score", handlers.HandleScore())
		v1.GET("/detectors", handlers.ListDetectors(registry))
		v1.DELETE("/cache", handlers.ClearCache(store))
	}
}
