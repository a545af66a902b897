// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"context"
	"log/slog"
)

// teeHandler fans records out to two handlers: text for the terminal,
// JSON for the file. A record is emitted when either handler wants it.
type teeHandler struct {
	a, b slog.Handler
}

func newTeeHandler(a, b slog.Handler) *teeHandler {
	return &teeHandler{a: a, b: b}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.a.Enabled(ctx, level) || h.b.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	if h.a.Enabled(ctx, record.Level) {
		firstErr = h.a.Handle(ctx, record.Clone())
	}
	if h.b.Enabled(ctx, record.Level) {
		if err := h.b.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{a: h.a.WithAttrs(attrs), b: h.b.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{a: h.a.WithGroup(name), b: h.b.WithGroup(name)}
}
