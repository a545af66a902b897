// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/fathomresearch/shortscan/services/scanner/datatypes"
)

// BadgerConfig holds configuration for the persistent cache.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Required unless InMemory.
	Path string

	// InMemory enables in-memory mode (no disk persistence). For tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Zero disables GC.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns production defaults: durable writes and a
// five-minute GC cycle reclaiming value logs that are half garbage.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns a configuration for tests: no disk I/O,
// no sync, no GC.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger is the persistent Cache. Outcomes are stored as JSON values with
// badger's native entry TTL, which matches the logical-expiry contract:
// a Get past the TTL misses even before the value log is compacted.
//
// This is the only scanner state that survives a process restart.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger

	gcStop chan struct{}
	gcDone chan struct{}
	once   sync.Once
}

// OpenBadger opens (and if necessary creates) the persistent cache.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	b := &Badger{
		db:     db,
		logger: cfg.Logger,
		gcStop: make(chan struct{}),
		gcDone: make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go b.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	} else {
		close(b.gcDone)
	}
	return b, nil
}

// runGC triggers value log garbage collection on a fixed interval.
// badger.ErrNoRewrite just means there was nothing worth reclaiming.
func (b *Badger) runGC(interval time.Duration, ratio float64) {
	defer close(b.gcDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.gcStop:
			return
		case <-ticker.C:
			err := b.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				if b.logger != nil {
					b.logger.Warn("badger value log GC failed", "error", err)
				}
			}
		}
	}
}

// Get implements Cache.
func (b *Badger) Get(_ context.Context, key string) (datatypes.DetectionOutcome, bool) {
	var outcome datatypes.DetectionOutcome
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &outcome)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) && b.logger != nil {
			b.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return datatypes.DetectionOutcome{}, false
	}
	return outcome, true
}

// Put implements Cache.
func (b *Badger) Put(_ context.Context, key string, outcome datatypes.DetectionOutcome, ttl time.Duration) error {
	if !outcome.Success {
		return ErrFailedOutcome
	}
	val, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), val).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// Clear implements Cache by dropping every key.
func (b *Badger) Clear(_ context.Context) error {
	return b.db.DropAll()
}

// Close stops the GC loop and closes the database.
func (b *Badger) Close() error {
	var err error
	b.once.Do(func() {
		close(b.gcStop)
		<-b.gcDone
		err = b.db.Close()
	})
	return err
}
