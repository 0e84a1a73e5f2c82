// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AleutianAI/CivicLens/cmd/civiclens/config"
	"github.com/AleutianAI/CivicLens/pkg/logging"
	"github.com/AleutianAI/CivicLens/pkg/ux"
	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/AleutianAI/CivicLens/services/history"
	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/AleutianAI/CivicLens/services/snapshot"
	"github.com/AleutianAI/CivicLens/services/socrata"
	"github.com/spf13/cobra"
)

// cliVersion is the version stamp printed by the version command.
const cliVersion = "0.1.0"

// runVersion prints the version line. Plain output in every mode so
// scripts can parse it.
func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("civiclens %s\n", cliVersion)
}

// exitErr reports a fatal CLI failure and exits non-zero.
func exitErr(msg string, err error) {
	ux.Error(fmt.Sprintf("%s: %v", msg, err))
	os.Exit(1)
}

// printJSON writes v as indented JSON on stdout for --json consumers.
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("Failed to encode JSON", err)
	}
	fmt.Println(string(data))
}

// newLogger builds the CLI logger. Warnings and errors go to stderr so
// they never tangle with parseable stdout; machine mode silences stderr
// entirely.
func newLogger() *logging.Logger {
	return logging.New(logging.Config{
		Level:   logging.LevelWarn,
		Service: "cli",
		Quiet:   ux.GetMode() == ux.ModeMachine,
	})
}

// socrataClient builds the NYC Open Data client from the loaded config.
func socrataClient(logger *logging.Logger) *socrata.Client {
	cfg := socrata.Config{
		AppToken: config.Global.Socrata.AppToken,
		Logger:   logger.Slog(),
	}
	if config.Global.Socrata.TimeoutSeconds > 0 {
		cfg.HTTPClient = &http.Client{
			Timeout: time.Duration(config.Global.Socrata.TimeoutSeconds) * time.Second,
		}
	}
	return socrata.NewClient(cfg)
}

// openLoader builds the snapshot loader over the configured cache. The
// returned cleanup closes the cache and must run before exit. A cache
// that fails to open degrades to uncached loads rather than blocking
// the analysis.
func openLoader(logger *logging.Logger) (*snapshot.Loader, func(), error) {
	client := socrataClient(logger)

	cacheCfg := snapshot.DefaultCacheConfig(config.Global.Cache.Dir)
	if config.Global.Cache.TTLHours > 0 {
		cacheCfg.TTL = time.Duration(config.Global.Cache.TTLHours) * time.Hour
	}
	cache, err := snapshot.OpenCache(cacheCfg)
	if err != nil {
		logger.Warn("Snapshot cache unavailable, loading uncached", "error", err)
		cache = nil
	}

	loader, err := snapshot.NewLoader(snapshot.LoaderConfig{
		Fetcher: client,
		Cache:   cache,
		Logger:  logger.Slog(),
	})
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		if cache != nil {
			_ = cache.Close()
		}
	}
	return loader, cleanup, nil
}

// loadInfo describes where a snapshot load got its rows.
type loadInfo struct {
	Source string // "api" or "cache"
	Pages  int    // pages fetched, 0 on a cache hit
}

// loadSnapshot runs the configured load behind a progress spinner.
//
// A cache hit returns before the loader emits any progress event, which
// is how Source tells the two apart.
func loadSnapshot(ctx context.Context, loader *snapshot.Loader) (*snapshot.Snapshot, loadInfo, error) {
	info := loadInfo{Source: "cache"}

	spin := ux.NewSpinner("Loading the officer snapshot")
	spin.Start()
	snap, err := loader.Load(ctx, snapshot.LoadOptions{
		AsOfDate: asOfDate,
		MaxRows:  maxRows,
		Refresh:  refreshSnap,
		OnProgress: func(p snapshot.Progress) {
			info.Source = "api"
			if p.PagesFetched > info.Pages {
				info.Pages = p.PagesFetched
			}
			switch p.Stage {
			case snapshot.StageProbe:
				spin.UpdateMessage("Probing the dataset size")
			case snapshot.StageFetch:
				spin.UpdateMessage(fmt.Sprintf("Fetching pages [%d/%d]", p.PagesFetched, p.TotalPages))
			case snapshot.StageValidate:
				spin.UpdateMessage(fmt.Sprintf("Validating %d rows", p.RowsLoaded))
			}
		},
	})
	if err != nil {
		spin.StopWithError("Snapshot load failed")
		return nil, info, err
	}
	spin.StopWithSuccess(fmt.Sprintf("Loaded %d officers (as of %s, source=%s)",
		snap.Rows, snap.AsOfDate, info.Source))
	return snap, info, nil
}

// parseGroupFieldArg reads the optional positional group field argument,
// defaulting to command, the grouping the published analysis ran on.
func parseGroupFieldArg(args []string) (analytics.GroupField, error) {
	raw := "command"
	if len(args) > 0 {
		raw = args[0]
	}
	return analytics.ParseGroupField(raw)
}

// exportTarget resolves the output path for an export file, creating the
// directory on first use. The flag beats the config; an unconfigured
// setup lands in the working directory.
func exportTarget(name string) (string, error) {
	dir := exportDir
	if dir == "" {
		dir = config.Global.Export.Dir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create the export directory %s: %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}

// historyConfig maps the loaded config onto the history store settings.
func historyConfig(logger *logging.Logger) history.Config {
	return history.Config{
		URL:    config.Global.History.URL,
		Token:  config.Global.History.Token,
		Org:    config.Global.History.Org,
		Bucket: config.Global.History.Bucket,
		Logger: logger.Slog(),
	}
}

// topShareFor picks the share for one fraction out of a report. Returns
// 0 when the fraction was not requested.
func topShareFor(rep *analytics.ConcentrationReport, fraction float64) float64 {
	for _, entry := range rep.TopShares {
		if entry.Fraction == fraction {
			return entry.Share
		}
	}
	return 0
}

// summaryFrom flattens one concentration run into the history point
// schema. Only the 1% and 5% shares persist; other requested fractions
// still print but are not stored.
func summaryFrom(snap *snapshot.Snapshot, rep *analytics.ConcentrationReport, total []float64) history.Summary {
	var sum float64
	for _, v := range total {
		sum += v
	}
	return history.Summary{
		Dataset:           socrata.OfficerDatasetID,
		AsOfDate:          snap.AsOfDate,
		SnapshotID:        snap.ID,
		GiniTotal:         rep.GiniTotal,
		GiniSubstantiated: rep.GiniSubstantiated,
		Top1Share:         topShareFor(rep, 0.01),
		Top5Share:         topShareFor(rep, 0.05),
		Officers:          snap.Rows,
		TotalComplaints:   sum,
	}
}

// recordSummary pushes one concentration run into the history store when
// the config carries one. Failures warn and move on; history is
// best-effort and must not fail the analysis that produced it.
func recordSummary(ctx context.Context, logger *logging.Logger, sum history.Summary) {
	cfg := historyConfig(logger)
	if !cfg.Enabled() {
		return
	}
	store, err := history.NewStore(cfg)
	if err != nil {
		ux.Warning(fmt.Sprintf("History store unavailable: %v", err))
		return
	}
	defer store.Close()

	if err := store.WriteSummary(ctx, sum); err != nil {
		ux.Warning(fmt.Sprintf("Failed to record the summary: %v", err))
		return
	}
	ux.Muted(fmt.Sprintf("Recorded the %s summary in the history store", sum.AsOfDate))
}

// groupTableLines renders a group table for terminal output. Machine
// mode gets tab-separated rows; the styled modes get padded columns
// with measures right-aligned.
func groupTableLines(tbl *report.GroupTable, machine bool) []string {
	lines := make([]string, 0, len(tbl.Rows)+2)
	if machine {
		lines = append(lines, strings.Join(tbl.Columns, "\t"))
		for _, row := range tbl.Rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		return lines
	}

	widths := make([]int, len(tbl.Columns))
	for i, col := range tbl.Columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range tbl.Rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	var sb strings.Builder
	for i, col := range tbl.Columns {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padColumn(col, widths[i], i > 0))
	}
	lines = append(lines, sb.String())

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	lines = append(lines, strings.Join(seps, "  "))

	for _, row := range tbl.Rows {
		sb.Reset()
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			sb.WriteString(padColumn(cell, w, i > 0))
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// padColumn pads s to width runes, right-aligned when rightAlign is set.
func padColumn(s string, width int, rightAlign bool) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if rightAlign {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// printGroupTable writes a group table to stdout in the active mode.
func printGroupTable(tbl *report.GroupTable) {
	for _, line := range groupTableLines(tbl, ux.GetMode() == ux.ModeMachine) {
		fmt.Println(line)
	}
}
