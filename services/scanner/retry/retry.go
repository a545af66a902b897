// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retry wraps fallible operations with bounded exponential backoff.
//
// Only transient failures (rate limits, timeouts) are retried. An error is
// transient when something in its chain implements `Transient() bool` and
// reports true; everything else is permanent and returned immediately.
// The policy never panics past its boundary and never retries forever:
// after MaxAttempts the last error comes back to the caller.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// transienter is implemented by errors that may succeed on retry.
// backend.TransientError is the canonical implementation.
type transienter interface {
	Transient() bool
}

// IsTransient reports whether err (or anything it wraps) is retryable.
func IsTransient(err error) bool {
	var t transienter
	return errors.As(err, &t) && t.Transient()
}

// Policy retries an operation with exponential backoff.
//
// The delay before attempt n (zero-based) is BaseDelay * 2^(n-1), i.e.
// BaseDelay after the first failure, doubling each time. Safe for
// concurrent use; a Policy holds no per-call state.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the sleep after the first failed attempt.
	BaseDelay time.Duration

	// Logger records retry attempts at warn level. Nil means slog.Default().
	Logger *slog.Logger
}

// New returns a Policy with the given bounds.
func New(maxAttempts int, baseDelay time.Duration) *Policy {
	return &Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Execute runs op until it succeeds, fails permanently, exhausts
// MaxAttempts, or ctx is cancelled. The backoff sleep itself is
// cancellable; cancellation surfaces as ctx.Err().
func (p *Policy) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt < attempts-1 {
			logger.Warn("transient failure, will retry",
				"attempt", attempt+1, "max_attempts", attempts,
				"next_delay", delay, "error", lastErr)
		}
	}
	logger.Warn("retries exhausted", "attempts", attempts, "error", lastErr)
	return lastErr
}
