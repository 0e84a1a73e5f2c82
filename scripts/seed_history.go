//go:build ignore

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// seed_history backfills the InfluxDB history store from exported officer
// snapshot CSVs, so a fresh deployment gets a trend line from archived
// exports instead of starting empty.
//
// Usage:
//
//	INFLUXDB_URL=http://localhost:8086 INFLUXDB_TOKEN=... \
//	  go run scripts/seed_history.go ~/.civiclens/exports/*.csv
//
// Each file must follow the export naming scheme
// (ccrb_officer_snapshot_<YYYY-MM-DD>.csv); the date in the name becomes
// the point timestamp, so seeded points land on their historical days.
// Files that cannot be parsed or dated are skipped with a note.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/AleutianAI/CivicLens/services/dataset"
	"github.com/AleutianAI/CivicLens/services/history"
	"github.com/AleutianAI/CivicLens/services/socrata"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/seed_history.go <snapshot.csv> [...]")
		os.Exit(1)
	}

	cfg := history.ConfigFromEnv()
	if !cfg.Enabled() {
		fmt.Fprintln(os.Stderr, "INFLUXDB_URL and INFLUXDB_TOKEN must be set")
		os.Exit(1)
	}

	store, err := history.NewStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to the history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ready(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "history store is not ready: %v\n", err)
		os.Exit(1)
	}

	seeded := 0
	for _, path := range os.Args[1:] {
		sum, err := summarize(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		if err := store.WriteSummary(ctx, *sum); err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: write failed: %v\n", path, err)
			continue
		}
		fmt.Printf("seeded %s (as of %s, %d officers)\n", filepath.Base(path), sum.AsOfDate, sum.Officers)
		seeded++
	}
	fmt.Printf("done: %d of %d files seeded\n", seeded, len(os.Args)-1)
}

// summarize replays one exported snapshot through the concentration
// pipeline and shapes the result as a history point dated by the file
// name.
func summarize(path string) (*history.Summary, error) {
	asOf := asOfFromName(path)
	if asOf == "" {
		return nil, fmt.Errorf("cannot derive the as-of date from the file name")
	}
	day, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		return nil, fmt.Errorf("bad date in the file name: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}

	total, err := tbl.NumericColumn(dataset.ColTotalComplaints)
	if err != nil {
		return nil, err
	}
	substantiated, err := tbl.NumericColumn(dataset.ColTotalSubstantiated)
	if err != nil {
		return nil, err
	}

	rep, err := analytics.Concentration(total, substantiated, analytics.DefaultTopFractions)
	if err != nil {
		return nil, err
	}

	var sumTotal float64
	for _, v := range total {
		sumTotal += v
	}
	return &history.Summary{
		Dataset:           socrata.OfficerDatasetID,
		AsOfDate:          asOf,
		SnapshotID:        "seed:" + filepath.Base(path),
		GiniTotal:         rep.GiniTotal,
		GiniSubstantiated: rep.GiniSubstantiated,
		Top1Share:         shareFor(rep, 0.01),
		Top5Share:         shareFor(rep, 0.05),
		Officers:          tbl.NumRows(),
		TotalComplaints:   sumTotal,
		Time:              day.UTC(),
	}, nil
}

// shareFor picks one fraction's share out of the report, 0 when absent.
func shareFor(rep *analytics.ConcentrationReport, fraction float64) float64 {
	for _, entry := range rep.TopShares {
		if entry.Fraction == fraction {
			return entry.Share
		}
	}
	return 0
}

// asOfFromName extracts the snapshot date from an export file name.
// Returns "" for names outside the export scheme, including the "all"
// suffix used for undated exports.
func asOfFromName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	const prefix = "ccrb_officer_snapshot_"
	if !strings.HasPrefix(name, prefix) {
		return ""
	}
	date := strings.TrimPrefix(name, prefix)
	if date == "all" {
		return ""
	}
	return date
}
