// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// memoryEntry pairs an outcome with its absolute expiry instant.
type memoryEntry struct {
	outcome   datatypes.DetectionOutcome
	expiresAt time.Time
}

// Memory is an in-process Cache. Entries expire logically at read time;
// expired entries are deleted lazily on the Get that observes them.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is swappable for tests.
	now func() time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (datatypes.DetectionOutcome, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return datatypes.DetectionOutcome{}, false
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have
		// refreshed the entry between the two lock acquisitions.
		if cur, ok := m.entries[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return datatypes.DetectionOutcome{}, false
	}
	return entry.outcome, true
}

// Put implements Cache.
func (m *Memory) Put(_ context.Context, key string, outcome datatypes.DetectionOutcome, ttl time.Duration) error {
	if !outcome.Success {
		return ErrFailedOutcome
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{outcome: outcome, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Clear implements Cache.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Close implements Cache. No resources to release.
func (m *Memory) Close() error { return nil }
