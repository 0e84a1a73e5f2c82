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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/CivicLens/services/dataset"
	"github.com/AleutianAI/CivicLens/services/socrata"
)

const defaultParallelism = 4

// Fetcher is the slice of the socrata client the loader depends on.
// Tests inject a fake; production wires *socrata.Client.
type Fetcher interface {
	FetchRows(ctx context.Context, datasetID string, q socrata.Query) ([]map[string]any, error)
	RowCount(ctx context.Context, datasetID string, where []string) (int, error)
	LatestAsOfDate(ctx context.Context, datasetID string) (string, error)
}

// Progress stages, in the order a load passes through them.
const (
	StageProbe    = "probe"
	StageFetch    = "fetch"
	StageValidate = "validate"
	StageDone     = "done"
)

// Progress reports load progress to interested UIs. Callbacks are invoked
// serially; keep them fast.
type Progress struct {
	Stage        string
	PagesFetched int
	TotalPages   int
	RowsLoaded   int
}

// LoadOptions select what to load and how.
type LoadOptions struct {
	// AsOfDate is the snapshot day (YYYY-MM-DD). Empty means the latest
	// date the dataset reports.
	AsOfDate string

	// MaxRows caps the number of rows loaded. 0 means all rows.
	MaxRows int

	// Refresh bypasses the cache and fetches fresh rows.
	Refresh bool

	// OnProgress, when set, receives progress updates during the load.
	OnProgress func(Progress)
}

// LoaderConfig wires a Loader.
type LoaderConfig struct {
	// Fetcher is required.
	Fetcher Fetcher

	// Cache is optional; nil disables caching.
	Cache *Cache

	// DatasetID defaults to the officer snapshot dataset.
	DatasetID string

	// PageSize defaults to the SODA page size.
	PageSize int

	// Parallelism bounds concurrent page fetches. Default 4.
	Parallelism int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Loader fetches, validates, and caches officer snapshots.
//
// Thread Safety: safe for concurrent use.
type Loader struct {
	fetcher     Fetcher
	cache       *Cache
	datasetID   string
	pageSize    int
	parallelism int
	logger      *slog.Logger
}

// NewLoader builds a Loader, filling unset config fields with defaults.
func NewLoader(cfg LoaderConfig) (*Loader, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if cfg.DatasetID == "" {
		cfg.DatasetID = socrata.OfficerDatasetID
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = socrata.DefaultPageSize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Loader{
		fetcher:     cfg.Fetcher,
		cache:       cfg.Cache,
		datasetID:   cfg.DatasetID,
		pageSize:    cfg.PageSize,
		parallelism: cfg.Parallelism,
		logger:      cfg.Logger,
	}, nil
}

// Load returns the snapshot described by opts, from cache when possible.
//
// Description:
//
//	Resolves the snapshot date (latest when unset), checks the cache,
//	and on a miss probes the row count, fetches pages in parallel,
//	reshapes the raw records, validates the result, and stores it.
//
// Inputs:
//
//	ctx - Bounds every outbound request.
//	opts - Date, row cap, cache bypass, progress callback.
//
// Outputs:
//
//	*Snapshot - The loaded snapshot. Never nil on success.
//	error - Upstream, validation, or context errors.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (*Snapshot, error) {
	ctx, span := startLoadSpan(ctx, l.datasetID)
	defer span.End()
	start := time.Now()

	date := opts.AsOfDate
	if date == "" {
		latest, err := l.fetcher.LatestAsOfDate(ctx, l.datasetID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("resolve latest snapshot date: %w", err)
		}
		date = latest
	}
	span.SetAttributes(attribute.String("snapshot.as_of_date", date))

	key := cacheKey(l.datasetID, date, opts.MaxRows)
	if l.cache != nil && !opts.Refresh {
		snap, ok, err := l.cache.Get(key)
		if err != nil {
			l.logger.Warn("snapshot cache read failed", "key", key, "error", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("snapshot.cache_hit", true))
			recordCacheHit(ctx)
			recordLoad(ctx, time.Since(start), "cache")
			l.logger.Info("snapshot cache hit", "key", key, "rows", snap.Rows)
			return snap, nil
		}
		recordCacheMiss(ctx)
	}

	var where []string
	if date != "" {
		w, err := socrata.SnapshotDayWindow("as_of_date", date)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		where = w
	}

	tracker := newTracker(opts.OnProgress)
	tracker.stage(StageProbe)

	total, err := l.fetcher.RowCount(ctx, l.datasetID, where)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("count snapshot rows: %w", err)
	}
	target := total
	if opts.MaxRows > 0 && opts.MaxRows < target {
		target = opts.MaxRows
	}

	pages := 0
	if target > 0 {
		pages = (target + l.pageSize - 1) / l.pageSize
	}
	tracker.begin(StageFetch, pages)

	selectFields := strings.Join(dataset.APIFieldNames(), ", ")
	batches := make([][]map[string]any, pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for p := 0; p < pages; p++ {
		p := p // Capture loop variable
		g.Go(func() error {
			limit := l.pageSize
			if rem := target - p*l.pageSize; rem < limit {
				limit = rem
			}
			q := socrata.Query{
				Select: selectFields,
				Where:  where,
				Limit:  limit,
				Offset: p * l.pageSize,
			}
			rows, err := l.fetcher.FetchRows(gctx, l.datasetID, q)
			if err != nil {
				return fmt.Errorf("fetch page %d: %w", p, err)
			}
			batches[p] = rows
			tracker.pageDone(len(rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := make([]map[string]any, 0, target)
	for _, batch := range batches {
		records = append(records, batch...)
	}
	if len(records) > target {
		records = records[:target]
	}

	tracker.stage(StageValidate)
	tbl := dataset.ReshapeOfficerSnapshot(records)
	if err := dataset.ValidateOfficerSnapshot(tbl); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("snapshot failed validation: %w", err)
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		AsOfDate:  date,
		FetchedAt: time.Now().UTC(),
		Rows:      tbl.NumRows(),
		Table:     tbl,
	}

	if l.cache != nil {
		if err := l.cache.Put(key, snap); err != nil {
			l.logger.Warn("snapshot cache write failed", "key", key, "error", err)
		}
	}

	span.SetAttributes(
		attribute.Int("snapshot.rows", snap.Rows),
		attribute.Int("snapshot.pages", pages),
	)
	recordPages(ctx, pages)
	recordLoad(ctx, time.Since(start), "api")

	tracker.stage(StageDone)
	l.logger.Info("snapshot loaded",
		"as_of_date", date,
		"rows", snap.Rows,
		"pages", pages,
		"snapshot_id", snap.ID)
	return snap, nil
}

func cacheKey(datasetID, date string, maxRows int) string {
	if date == "" {
		date = "all"
	}
	return fmt.Sprintf("snapshot/%s/%s/%d", datasetID, date, maxRows)
}

// tracker serializes progress updates from concurrent page fetches.
type tracker struct {
	mu      sync.Mutex
	cb      func(Progress)
	current Progress
}

func newTracker(cb func(Progress)) *tracker {
	return &tracker{cb: cb}
}

func (t *tracker) stage(stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.Stage = stage
	t.emit()
}

func (t *tracker) begin(stage string, totalPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.Stage = stage
	t.current.TotalPages = totalPages
	t.emit()
}

func (t *tracker) pageDone(rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.PagesFetched++
	t.current.RowsLoaded += rows
	t.emit()
}

func (t *tracker) emit() {
	if t.cb != nil {
		t.cb(t.current)
	}
}
