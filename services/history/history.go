// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists per-snapshot concentration summaries to
// InfluxDB and reads them back as a trend series. The store is optional:
// when no InfluxDB endpoint is configured the rest of the system runs
// without it.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/CivicLens/pkg/validation"
)

const measurement = "concentration_summary"

// Summary is one snapshot's concentration result, flattened for storage.
type Summary struct {
	Dataset           string    // tag: source dataset id
	AsOfDate          string    // tag: snapshot day
	SnapshotID        string    // field: load provenance
	GiniTotal         float64   // field
	GiniSubstantiated float64   // field
	Top1Share         float64   // field
	Top5Share         float64   // field
	Officers          int       // field
	TotalComplaints   float64   // field
	Time              time.Time // point timestamp; zero means now
}

// TrendPoint is one pivoted row of the stored series.
type TrendPoint struct {
	Time              time.Time `json:"time"`
	GiniTotal         float64   `json:"gini_total"`
	GiniSubstantiated float64   `json:"gini_subst"`
	Top1Share         float64   `json:"top1_share"`
	Top5Share         float64   `json:"top5_share"`
	Officers          int64     `json:"officers"`
	TotalComplaints   float64   `json:"total_complaints"`
}

// Config holds the InfluxDB connection settings.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Logger *slog.Logger
}

// ConfigFromEnv reads INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, and
// INFLUXDB_BUCKET, applying defaults for org and bucket.
func ConfigFromEnv() Config {
	cfg := Config{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
	if cfg.Org == "" {
		cfg.Org = "civiclens"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "civiclens-history"
	}
	return cfg
}

// Enabled reports whether the config carries enough to reach InfluxDB.
// Callers should skip NewStore entirely when this is false.
func (c Config) Enabled() bool {
	return c.URL != "" && c.Token != ""
}

// Store writes and queries the concentration history bucket.
//
// Thread Safety: safe for concurrent use.
type Store struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	query  api.QueryAPI
	bucket string
	logger *slog.Logger
}

// NewStore connects to InfluxDB. The caller owns Close.
func NewStore(cfg Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, errors.New("influxdb url and token are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Store{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		query:  client.QueryAPI(cfg.Org),
		bucket: cfg.Bucket,
		logger: cfg.Logger,
	}, nil
}

// Ready checks the InfluxDB health endpoint.
func (s *Store) Ready(ctx context.Context) error {
	health, err := s.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	if health.Status != "pass" {
		msg := "unknown"
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("influxdb not healthy: %s", msg)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// WriteSummary stores one snapshot summary as a concentration_summary point.
func (s *Store) WriteSummary(ctx context.Context, sum Summary) error {
	if err := validation.ValidateDatasetID(sum.Dataset); err != nil {
		return fmt.Errorf("summary dataset: %w", err)
	}

	ts := sum.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	p := influxdb2.NewPoint(
		measurement,
		map[string]string{
			"dataset":    sum.Dataset,
			"as_of_date": sum.AsOfDate,
		},
		map[string]interface{}{
			"snapshot_id":      sum.SnapshotID,
			"gini_total":       sum.GiniTotal,
			"gini_subst":       sum.GiniSubstantiated,
			"top1_share":       sum.Top1Share,
			"top5_share":       sum.Top5Share,
			"officers":         int64(sum.Officers),
			"total_complaints": sum.TotalComplaints,
		},
		ts,
	)

	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write summary point: %w", err)
	}

	s.logger.Info("stored concentration summary",
		"dataset", sum.Dataset,
		"as_of_date", sum.AsOfDate,
		"gini_total", sum.GiniTotal)
	return nil
}

// Trend returns the last days of stored summaries for a dataset, oldest
// first. days <= 0 defaults to 90.
func (s *Store) Trend(ctx context.Context, dataset string, days int) ([]TrendPoint, error) {
	// The dataset lands inside the Flux filter; validate to prevent
	// Flux injection.
	if err := validation.ValidateDatasetID(dataset); err != nil {
		return nil, fmt.Errorf("trend dataset: %w", err)
	}
	if days <= 0 {
		days = 90
	}

	flux := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -%dd)
		  |> filter(fn: (r) => r._measurement == "%s")
		  |> filter(fn: (r) => r.dataset == "%s")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> sort(columns: ["_time"], desc: false)
	`, s.bucket, days, measurement, dataset)

	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}

	// Guard against nil result (can happen with empty query results)
	if result == nil {
		return []TrendPoint{}, nil
	}

	var points []TrendPoint
	for result.Next() {
		record := result.Record()

		point := TrendPoint{Time: record.Time()}
		if v, ok := record.ValueByKey("gini_total").(float64); ok {
			point.GiniTotal = v
		}
		if v, ok := record.ValueByKey("gini_subst").(float64); ok {
			point.GiniSubstantiated = v
		}
		if v, ok := record.ValueByKey("top1_share").(float64); ok {
			point.Top1Share = v
		}
		if v, ok := record.ValueByKey("top5_share").(float64); ok {
			point.Top5Share = v
		}
		if v, ok := record.ValueByKey("officers").(int64); ok {
			point.Officers = v
		}
		if v, ok := record.ValueByKey("total_complaints").(float64); ok {
			point.TotalComplaints = v
		}

		points = append(points, point)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("trend result error: %w", result.Err())
	}

	return points, nil
}
