// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package corpus defines the document-supply boundary of the scanner.
//
// Acquisition itself (EDGAR crawling, transcript scraping, HTML/PDF
// extraction) lives outside this repository; the scanner consumes any
// Accessor implementation. The bundled Dir accessor reads pre-extracted
// JSON documents from disk so the CLI and service run without an
// acquisition stack.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// ErrUnavailable signals that the corpus source cannot be reached.
// Callers degrade to an empty document set, never a fatal run error.
var ErrUnavailable = errors.New("corpus unavailable")

// Accessor supplies the ordered document collection for one subject and
// lookback window.
type Accessor interface {
	Fetch(ctx context.Context, subject string, years int) ([]datatypes.Document, error)
}

// FetchOrEmpty fetches the corpus and degrades ErrUnavailable to zero
// documents with a warning. Other errors pass through.
func FetchOrEmpty(ctx context.Context, a Accessor, subject string, years int, logger *slog.Logger) ([]datatypes.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	docs, err := a.Fetch(ctx, subject, years)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			logger.Warn("corpus unavailable, continuing with zero documents",
				"subject", subject, "error", err)
			return nil, nil
		}
		return nil, err
	}
	return docs, nil
}

// Dir serves documents from a directory tree: one subdirectory per
// subject, one JSON file per document, each file unmarshaling into a
// datatypes.Document. Files sort lexically, so date-prefixed IDs give a
// stable chronological order.
type Dir struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewDir returns a directory-backed accessor rooted at root.
func NewDir(root string, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{root: root, logger: logger, now: time.Now}
}

// Fetch implements Accessor. A missing subject directory maps to
// ErrUnavailable. Documents whose period starts with a four-digit year
// older than the lookback window are filtered out; unparsable periods
// are kept.
func (d *Dir) Fetch(_ context.Context, subject string, years int) ([]datatypes.Document, error) {
	dir := filepath.Join(d.root, subject)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no corpus directory for %q", ErrUnavailable, subject)
		}
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	cutoff := d.now().Year() - years
	var docs []datatypes.Document
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			d.logger.Warn("skipping unreadable corpus file", "path", path, "error", err)
			continue
		}
		var doc datatypes.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			d.logger.Warn("skipping malformed corpus file", "path", path, "error", err)
			continue
		}
		if doc.ID == "" {
			doc.ID = name[:len(name)-len(".json")]
		}
		if year, ok := leadingYear(doc.Period); ok && year < cutoff {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// leadingYear parses a four-digit year prefix out of a period label such
// as "2024-03-31" or "2024 Q3".
func leadingYear(period string) (int, bool) {
	if len(period) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(period[:4])
	if err != nil || year < 1900 || year > 2200 {
		return 0, false
	}
	return year, true
}

// Static is a fixed in-memory accessor, handy for tests and demos.
type Static struct {
	Docs []datatypes.Document
	Err  error
}

// Fetch implements Accessor.
func (s *Static) Fetch(context.Context, string, int) ([]datatypes.Document, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Docs, nil
}
