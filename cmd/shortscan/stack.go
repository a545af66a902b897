// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log/slog"

	"github.com/fathomresearch/shortscan/services/scanner/backend"
	"github.com/fathomresearch/shortscan/services/scanner/cache"
	"github.com/fathomresearch/shortscan/services/scanner/config"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
	"github.com/fathomresearch/shortscan/services/scanner/engine"
	"github.com/fathomresearch/shortscan/services/scanner/parser"
	"github.com/fathomresearch/shortscan/services/scanner/report"
	"github.com/fathomresearch/shortscan/services/scanner/retry"
)

// stack is the assembled scanner core for one CLI invocation.
type stack struct {
	registry *detectors.Registry
	cache    cache.Cache
	engine   *engine.Orchestrator
	reporter *report.Generator
}

// close releases the cache. The rest of the stack is stateless.
func (s *stack) close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

// buildRegistry assembles the registry without a backend, enough for
// read-only commands like "detectors".
func buildRegistry() *detectors.Registry {
	p := parser.New(slog.Default())
	return detectors.NewRegistry(slog.Default(), detectors.Builtins(nil, p, slog.Default())...)
}

// buildCache opens the cache configured in cfg.
func buildCache(cfg config.Config) (cache.Cache, error) {
	if cfg.Cache.InMemory {
		return cache.NewMemory(), nil
	}
	badgerCfg := cache.DefaultBadgerConfig(cfg.Cache.Dir)
	badgerCfg.Logger = slog.Default()
	return cache.OpenBadger(badgerCfg)
}

// buildStack assembles the full scanning pipeline from configuration.
func buildStack(cfg config.Config) (*stack, error) {
	be, err := backend.NewOpenAI(backend.OpenAIConfig{
		BaseURL:           cfg.Backend.BaseURL,
		APIKeys:           cfg.Backend.APIKeys,
		RequestsPerMinute: cfg.Backend.RequestsPerMinute,
	})
	if err != nil {
		return nil, fmt.Errorf("backend init: %w", err)
	}

	store, err := buildCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("cache init: %w", err)
	}

	p := parser.New(slog.Default())
	registry := detectors.NewRegistry(slog.Default(), detectors.Builtins(be, p, slog.Default())...)
	orchestrator, err := engine.New(engine.Config{
		Registry: registry,
		Cache:    store,
		Retry:    retry.New(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay.Std()),
		Workers:  cfg.Engine.Workers,
		CacheTTL: cfg.Cache.TTL.Std(),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("engine init: %w", err)
	}

	return &stack{
		registry: registry,
		cache:    store,
		engine:   orchestrator,
		reporter: report.New(be, slog.Default()),
	}, nil
}
