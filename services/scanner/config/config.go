// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates scanner configuration from YAML with
// environment overrides for deployment-sensitive values (API keys, ports).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML like "90s" or "1h" parses.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full scanner configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port" validate:"min=1,max=65535"`
	} `yaml:"server"`

	Backend struct {
		// BaseURL points at an OpenAI-compatible endpoint.
		BaseURL string `yaml:"base_url" validate:"omitempty,url"`

		// APIKeys rotate round-robin. Overridable (and usually set) via
		// SHORTSCAN_API_KEYS, comma-separated.
		APIKeys []string `yaml:"api_keys"`

		// DefaultModel is used when a request omits the model.
		DefaultModel string `yaml:"default_model" validate:"required"`

		// RequestsPerMinute caps client-side call rate. Zero disables.
		RequestsPerMinute int `yaml:"requests_per_minute" validate:"min=0"`
	} `yaml:"backend"`

	Cache struct {
		// Dir holds the BadgerDB files. Ignored when InMemory.
		Dir string `yaml:"dir"`

		// InMemory switches to the non-persistent cache.
		InMemory bool `yaml:"in_memory"`

		// TTL bounds outcome memoization.
		TTL Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Retry struct {
		MaxAttempts int      `yaml:"max_attempts" validate:"min=1,max=10"`
		BaseDelay   Duration `yaml:"base_delay"`
	} `yaml:"retry"`

	Engine struct {
		Workers int `yaml:"workers" validate:"min=1,max=64"`
	} `yaml:"engine"`

	Corpus struct {
		// Dir is the root of the pre-extracted document tree.
		Dir string `yaml:"dir" validate:"required"`
	} `yaml:"corpus"`
}

// Default returns the configuration used when fields are absent from the
// YAML file.
func Default() Config {
	var cfg Config
	cfg.Server.Port = 12310
	cfg.Backend.DefaultModel = "gemini-2.5-flash"
	cfg.Backend.RequestsPerMinute = 30
	cfg.Cache.Dir = "./data/cache"
	cfg.Cache.TTL = Duration(time.Hour)
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.BaseDelay = Duration(time.Second)
	cfg.Engine.Workers = 3
	cfg.Corpus.Dir = "./data/corpus"
	return cfg
}

// Load reads path, applies environment overrides, and validates.
// A missing file is not an error; defaults plus env are used.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv maps deployment overrides. Keys in particular should come from
// the environment, never the YAML file checked into a repo.
func applyEnv(cfg *Config) {
	if keys := os.Getenv("SHORTSCAN_API_KEYS"); keys != "" {
		cfg.Backend.APIKeys = cfg.Backend.APIKeys[:0]
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.Backend.APIKeys = append(cfg.Backend.APIKeys, k)
			}
		}
	}
	if url := os.Getenv("SHORTSCAN_BASE_URL"); url != "" {
		cfg.Backend.BaseURL = url
	}
	if model := os.Getenv("SHORTSCAN_MODEL"); model != "" {
		cfg.Backend.DefaultModel = model
	}
	if port := os.Getenv("SHORTSCAN_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = n
		}
	}
	if dir := os.Getenv("SHORTSCAN_CORPUS_DIR"); dir != "" {
		cfg.Corpus.Dir = dir
	}
}
