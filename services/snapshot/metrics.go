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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for snapshot operations.
var (
	tracer = otel.Tracer("civiclens.snapshot")
	meter  = otel.Meter("civiclens.snapshot")
)

// Metrics for snapshot loads.
var (
	snapshotLoads        metric.Int64Counter
	snapshotLoadLatency  metric.Float64Histogram
	snapshotCacheHits    metric.Int64Counter
	snapshotCacheMisses  metric.Int64Counter
	snapshotPagesFetched metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		snapshotLoads, err = meter.Int64Counter(
			"snapshot_loads_total",
			metric.WithDescription("Total number of snapshot loads"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		snapshotLoadLatency, err = meter.Float64Histogram(
			"snapshot_load_duration_seconds",
			metric.WithDescription("Duration of snapshot loads"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		snapshotCacheHits, err = meter.Int64Counter(
			"snapshot_cache_hits_total",
			metric.WithDescription("Total number of snapshot cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		snapshotCacheMisses, err = meter.Int64Counter(
			"snapshot_cache_misses_total",
			metric.WithDescription("Total number of snapshot cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		snapshotPagesFetched, err = meter.Int64Counter(
			"snapshot_pages_fetched_total",
			metric.WithDescription("Total number of snapshot pages fetched"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordCacheHit records a snapshot cache hit metric.
func recordCacheHit(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	snapshotCacheHits.Add(ctx, 1)
}

// recordCacheMiss records a snapshot cache miss metric.
func recordCacheMiss(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	snapshotCacheMisses.Add(ctx, 1)
}

// recordLoad records a completed load and its duration by source.
func recordLoad(ctx context.Context, duration time.Duration, source string) {
	if err := initMetrics(); err != nil {
		return
	}
	snapshotLoads.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
	snapshotLoadLatency.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// recordPages records the number of pages fetched from the API.
func recordPages(ctx context.Context, pages int) {
	if err := initMetrics(); err != nil {
		return
	}
	snapshotPagesFetched.Add(ctx, int64(pages))
}

// startLoadSpan creates a span for a snapshot load.
func startLoadSpan(ctx context.Context, datasetID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Loader.Load",
		trace.WithAttributes(
			attribute.String("snapshot.dataset_id", datasetID),
		),
	)
}
