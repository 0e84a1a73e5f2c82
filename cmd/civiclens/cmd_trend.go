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
	"errors"
	"fmt"

	"github.com/AleutianAI/CivicLens/pkg/ux"
	"github.com/AleutianAI/CivicLens/services/history"
	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/AleutianAI/CivicLens/services/socrata"
	"github.com/spf13/cobra"
)

// runTrend queries the history store for stored concentration summaries
// and prints how each statistic moved over the window.
func runTrend(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Close()

	cfg := historyConfig(logger)
	if !cfg.Enabled() {
		exitErr("Trend requires a history store", errors.New(
			"set history.url and history.token in the config, or INFLUXDB_URL and INFLUXDB_TOKEN"))
	}

	store, err := history.NewStore(cfg)
	if err != nil {
		exitErr("Failed to connect to the history store", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ready(ctx); err != nil {
		exitErr("History store is not ready", err)
	}

	points, err := store.Trend(ctx, socrata.OfficerDatasetID, trendDays)
	if err != nil {
		exitErr("Failed to query the trend", err)
	}

	view, err := report.BuildTrendView(points, trendDays)
	if err != nil {
		if errors.Is(err, report.ErrEmpty) {
			ux.Warning(fmt.Sprintf(
				"No stored summaries in the last %d days. Run 'civiclens concentration' with history configured first.",
				trendDays))
			return
		}
		exitErr("Failed to build the trend view", err)
	}

	if jsonOut {
		printJSON(view)
		return
	}

	ux.Title(view.Title)
	ux.Stat("points", fmt.Sprintf("%d", len(points)))
	first := points[0].Time
	last := points[len(points)-1].Time
	ux.Stat("window", fmt.Sprintf("%s to %s",
		first.Format("2006-01-02"), last.Format("2006-01-02")))
	for _, s := range view.Series {
		if len(s.Values) == 0 {
			continue
		}
		start := s.Values[0]
		end := s.Values[len(s.Values)-1]
		ux.Stat(s.Name, fmt.Sprintf("%.4f (started %.4f, change %+.4f)", end, start, end-start))
	}
}
