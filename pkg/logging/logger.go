// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for shortscan components.
//
// The logger is built on the standard library slog package with two
// destinations:
//
//   - stderr, text by default (follows Unix CLI conventions)
//   - an optional log file, always JSON, named "{service}_{date}.log"
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{Service: "scanner"})
//	defer logger.Close()
//	slog.SetDefault(logger.Slog())
//
// # Security Considerations
//
// This package does NOT redact sensitive data. Callers must keep API
// keys and request payloads out of log attributes.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromEnv reads a level name ("debug", "info", "warn", "error") from
// the named environment variable, defaulting to Info when unset or
// unrecognized.
func LevelFromEnv(key string) Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures Logger behavior. The zero value writes Info+ text to
// stderr with no file logging.
type Config struct {
	// Level is the minimum level; messages below it are discarded.
	Level Level

	// LogDir enables file logging to the given directory, created with
	// 0750 permissions if missing. File logs are always JSON.
	LogDir string

	// Service is attached to every entry as the "service" attribute and
	// names the log file.
	Service string

	// JSON switches stderr output to JSON. File output is JSON
	// regardless.
	JSON bool

	// Quiet disables stderr output entirely.
	Quiet bool
}

// =============================================================================
// Logger
// =============================================================================

// Logger wraps slog with multi-destination output. Safe for concurrent
// use; Close flushes and closes the log file if one is open.
type Logger struct {
	slogger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// New builds a Logger from config. File-open failures degrade to
// stderr-only logging with a warning rather than failing startup.
func New(cfg Config) *Logger {
	var writers []io.Writer
	var jsonWriters []io.Writer

	if !cfg.Quiet {
		if cfg.JSON {
			jsonWriters = append(jsonWriters, os.Stderr)
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	l := &Logger{}
	if cfg.LogDir != "" {
		if file, err := openLogFile(cfg.LogDir, cfg.Service); err != nil {
			fmt.Fprintf(os.Stderr, "logging: file logging disabled: %v\n", err)
		} else {
			l.file = file
			jsonWriters = append(jsonWriters, file)
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}
	var handler slog.Handler
	switch {
	case len(writers) > 0 && len(jsonWriters) > 0:
		handler = newTeeHandler(
			slog.NewTextHandler(io.MultiWriter(writers...), opts),
			slog.NewJSONHandler(io.MultiWriter(jsonWriters...), opts),
		)
	case len(jsonWriters) > 0:
		handler = slog.NewJSONHandler(io.MultiWriter(jsonWriters...), opts)
	case len(writers) > 0:
		handler = slog.NewTextHandler(io.MultiWriter(writers...), opts)
	default:
		handler = slog.NewTextHandler(io.Discard, opts)
	}

	slogger := slog.New(handler)
	if cfg.Service != "" {
		slogger = slogger.With("service", cfg.Service)
	}
	l.slogger = slogger
	return l
}

// Default returns a stderr-only Info-level logger.
func Default() *Logger {
	return New(Config{})
}

// Slog exposes the underlying slog.Logger, typically for
// slog.SetDefault.
func (l *Logger) Slog() *slog.Logger { return l.slogger }

// Close flushes and closes the log file, if any. Safe to call more than
// once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func openLogFile(dir, service string) (*os.File, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", dir, err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if service == "" {
		service = "shortscan"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
