// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomresearch/shortscan/services/scanner/cache"
	"github.com/fathomresearch/shortscan/services/scanner/corpus"
	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
	"github.com/fathomresearch/shortscan/services/scanner/engine"
	"github.com/fathomresearch/shortscan/services/scanner/observability"
	"github.com/fathomresearch/shortscan/services/scanner/retry"
)

// staticDetector returns a fixed signal for every document set.
type staticDetector struct {
	name     string
	priority int
	severity datatypes.Severity
}

func (d *staticDetector) Name() string                            { return d.name }
func (d *staticDetector) Description() string                     { return "static" }
func (d *staticDetector) Priority() int                           { return d.priority }
func (d *staticDetector) BuildPrompt([]datatypes.Document) string { return "" }

func (d *staticDetector) Detect(context.Context, []datatypes.Document, string) (datatypes.DetectionOutcome, error) {
	return datatypes.DetectionOutcome{
		DetectorName: d.name,
		Signals: []datatypes.Signal{{
			SignalType: "T", Severity: d.severity, Confidence: 0.9, Title: d.name,
		}},
		ProcessingTime: time.Millisecond,
		Success:        true,
	}, nil
}

func newTestRouter(t *testing.T, accessor corpus.Accessor) (*gin.Engine, *detectors.Registry, cache.Cache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := detectors.NewRegistry(nil,
		&staticDetector{name: "alpha", priority: 10, severity: datatypes.SeverityHigh},
		&staticDetector{name: "beta", priority: 20, severity: datatypes.SeverityLow},
	)
	store := cache.NewMemory()
	orch, err := engine.New(engine.Config{
		Registry: registry,
		Cache:    store,
		Retry:    retry.New(1, 0),
		Metrics:  observability.NewMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	router := gin.New()
	router.POST("/api/v1/scan", HandleScan(ScanDeps{
		Engine:       orch,
		Registry:     registry,
		Accessor:     accessor,
		DefaultModel: "test-model",
	}))
	router.POST("/api/v1/score", HandleScore())
	router.GET("/api/v1/detectors", ListDetectors(registry))
	router.DELETE("/api/v1/cache", ClearCache(store))
	router.GET("/healthz", HealthCheck)
	return router, registry, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleScan(t *testing.T) {
	accessor := &corpus.Static{Docs: []datatypes.Document{
		{ID: "10k", Period: "2025-12-31", Text: "body"},
	}}
	router, _, _ := newTestRouter(t, accessor)

	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", datatypes.ScanRequest{Subject: "ACME"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "ACME", resp.Subject)
	assert.Equal(t, "test-model", resp.Model, "empty model falls back to the default")
	assert.Equal(t, 1, resp.Documents)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, "alpha", resp.Outcomes[0].DetectorName)
	assert.Equal(t, "beta", resp.Outcomes[1].DetectorName)
	assert.Equal(t, 2, resp.Report.TotalSignals)
	assert.Empty(t, resp.Narrative)
}

func TestHandleScanSubsetSelection(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", datatypes.ScanRequest{
		Subject:   "ACME",
		Detectors: []string{"beta", "does-not-exist"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Outcomes, 1)
	assert.Equal(t, "beta", resp.Outcomes[0].DetectorName)
}

func TestHandleScanMissingSubject(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{})
	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", map[string]any{"years": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleScanRejectsUnsafeSubject(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{})
	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", map[string]any{"subject": "../../etc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleScanNormalizesSubject(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{})
	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", map[string]any{"subject": "brk.a"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BRK.A", resp.Subject)
}

func TestHandleScanCorpusUnavailable(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{Err: corpus.ErrUnavailable})

	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", datatypes.ScanRequest{Subject: "ACME"})
	require.Equal(t, http.StatusOK, w.Code, "missing corpus degrades to an empty scan")

	var resp datatypes.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Documents)
	require.Len(t, resp.Outcomes, 2)
}

func TestHandleScore(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{})

	outcomes := []datatypes.DetectionOutcome{{
		DetectorName: "x",
		Signals: []datatypes.Signal{
			{SignalType: "T", Severity: datatypes.SeverityHigh, Confidence: 0.9, Title: "a"},
			{SignalType: "T", Severity: datatypes.SeverityHigh, Confidence: 0.9, Title: "b"},
			{SignalType: "T", Severity: datatypes.SeverityHigh, Confidence: 0.9, Title: "c"},
		},
		Success: true,
	}}
	w := doJSON(t, router, http.MethodPost, "/api/v1/score", datatypes.ScoreRequest{Outcomes: outcomes})
	require.Equal(t, http.StatusOK, w.Code)

	var report datatypes.AggregateReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 3, report.TotalSignals)
	assert.Equal(t, datatypes.RatingStrongShort, report.RiskRating)
}

func TestListDetectors(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{})
	w := doJSON(t, router, http.MethodGet, "/api/v1/detectors", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Detectors []datatypes.DetectorInfo `json:"detectors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Detectors, 2)
	assert.Equal(t, "alpha", resp.Detectors[0].Name)
}

func TestClearCache(t *testing.T) {
	accessor := &corpus.Static{Docs: []datatypes.Document{{ID: "d", Period: "2025", Text: "b"}}}
	router, _, store := newTestRouter(t, accessor)

	// Prime the cache with a scan, then clear it.
	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", datatypes.ScanRequest{Subject: "ACME"})
	require.Equal(t, http.StatusOK, w.Code)

	key := cache.ComputeKey(accessor.Docs, "alpha", "test-model")
	_, ok := store.Get(context.Background(), key)
	require.True(t, ok)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok = store.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t, &corpus.Static{})
	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
