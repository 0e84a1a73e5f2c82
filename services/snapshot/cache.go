// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// CacheConfig holds configuration for the BadgerDB-backed snapshot cache.
type CacheConfig struct {
	// Path is the directory for the cache files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// TTL is how long a cached snapshot stays readable.
	// 0 keeps entries until evicted manually.
	TTL time.Duration

	// GCInterval is how often to run value log garbage collection.
	// 0 disables GC. Ignored for in-memory caches.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64

	// Logger receives BadgerDB's internal logging. If nil, that logging
	// is disabled.
	Logger *slog.Logger
}

// DefaultCacheConfig returns the production cache configuration: durable
// writes, one-day TTL, five-minute GC cadence.
func DefaultCacheConfig(path string) CacheConfig {
	return CacheConfig{
		Path:           path,
		SyncWrites:     true,
		TTL:            24 * time.Hour,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryCacheConfig returns a configuration for tests: no disk I/O,
// no GC goroutine.
func InMemoryCacheConfig() CacheConfig {
	return CacheConfig{
		InMemory: true,
		TTL:      24 * time.Hour,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Cache stores JSON-serialized snapshots in BadgerDB keyed by
// dataset/date/rowcap.
//
// Thread Safety: safe for concurrent use.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	ratio  float64
	logger *slog.Logger
	stopGC chan struct{}
	doneGC chan struct{}
}

// OpenCache opens the snapshot cache, creating the directory if needed,
// and starts the GC loop when one is configured. Callers must Close.
func OpenCache(cfg CacheConfig) (*Cache, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent cache")
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
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}

	c := &Cache{
		db:     db,
		ttl:    cfg.TTL,
		ratio:  cfg.GCDiscardRatio,
		logger: cfg.Logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.ratio <= 0 || c.ratio > 1 {
		c.ratio = 0.5
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.stopGC = make(chan struct{})
		c.doneGC = make(chan struct{})
		go c.runGC(cfg.GCInterval)
	}

	return c, nil
}

// Get reads a cached snapshot. The second return is false on a miss;
// expired entries count as misses.
func (c *Cache) Get(key string) (*Snapshot, bool, error) {
	var snap Snapshot
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached snapshot %s: %w", key, err)
	}
	return &snap, true, nil
}

// Put stores a snapshot under key, applying the configured TTL.
func (c *Cache) Put(key string, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), payload)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete evicts one snapshot. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close stops the GC loop and closes the database.
func (c *Cache) Close() error {
	if c.stopGC != nil {
		close(c.stopGC)
		<-c.doneGC
	}
	return c.db.Close()
}

func (c *Cache) runGC(interval time.Duration) {
	defer close(c.doneGC)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopGC:
			return
		case <-ticker.C:
			// RunValueLogGC returns ErrNoRewrite when there was nothing
			// worth collecting.
			err := c.db.RunValueLogGC(c.ratio)
			if err == nil {
				c.logger.Debug("snapshot cache value log GC completed")
			} else if !errors.Is(err, badger.ErrNoRewrite) {
				c.logger.Warn("snapshot cache value log GC error", "error", err)
			}
		}
	}
}
