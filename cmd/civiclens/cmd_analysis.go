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
	"strconv"

	"github.com/AleutianAI/CivicLens/pkg/ux"
	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/AleutianAI/CivicLens/services/dataset"
	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/AleutianAI/CivicLens/services/socrata"
	"github.com/spf13/cobra"
)

// measureColumns pulls the two complaint measures out of a snapshot table.
func measureColumns(tbl *dataset.Table) (total, substantiated []float64, err error) {
	total, err = tbl.NumericColumn(dataset.ColTotalComplaints)
	if err != nil {
		return nil, nil, err
	}
	substantiated, err = tbl.NumericColumn(dataset.ColTotalSubstantiated)
	if err != nil {
		return nil, nil, err
	}
	return total, substantiated, nil
}

// runConcentration computes the Lorenz, Gini, and top-share statistics
// over the officer snapshot and optionally records them in the history
// store.
func runConcentration(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Close()

	loader, cleanup, err := openLoader(logger)
	if err != nil {
		exitErr("Failed to build the snapshot loader", err)
	}
	defer cleanup()

	ctx := context.Background()
	snap, _, err := loadSnapshot(ctx, loader)
	if err != nil {
		exitErr("Failed to load the snapshot", err)
	}

	total, substantiated, err := measureColumns(snap.Table)
	if err != nil {
		exitErr("Failed to read the complaint measures", err)
	}

	rep, err := analytics.Concentration(total, substantiated, topFractions)
	if err != nil {
		exitErr("Failed to compute concentration", err)
	}
	view, err := report.BuildConcentrationView(rep, snap.AsOfDate)
	if err != nil {
		exitErr("Failed to build the concentration view", err)
	}

	if jsonOut {
		printJSON(view)
	} else {
		ux.Title(view.Title)
		ux.Info(view.Caption)
		ux.Stat("officers", strconv.Itoa(snap.Rows))
		ux.Stat("gini_total", fmt.Sprintf("%.4f", rep.GiniTotal))
		ux.Stat("gini_subst", fmt.Sprintf("%.4f", rep.GiniSubstantiated))
		for _, entry := range rep.TopShares {
			label := fmt.Sprintf("top_%g%%_share", entry.Fraction*100)
			ux.Stat(label, fmt.Sprintf("%.4f", entry.Share))
		}
	}

	if recordRun {
		recordSummary(ctx, logger, summaryFrom(snap, rep, total))
	}
}

// runRiskMatrix aggregates the snapshot by a group field and prints the
// per-group burden statistics.
func runRiskMatrix(cmd *cobra.Command, args []string) {
	field, err := parseGroupFieldArg(args)
	if err != nil {
		exitErr("Invalid group field", err)
	}

	logger := newLogger()
	defer logger.Close()

	loader, cleanup, err := openLoader(logger)
	if err != nil {
		exitErr("Failed to build the snapshot loader", err)
	}
	defer cleanup()

	ctx := context.Background()
	snap, _, err := loadSnapshot(ctx, loader)
	if err != nil {
		exitErr("Failed to load the snapshot", err)
	}

	stats, err := analytics.ComputeGroupStats(snap.Table, field, minOfficers)
	if err != nil {
		exitErr("Failed to compute the group statistics", err)
	}

	view, err := report.BuildRiskMatrixView(stats, annotateTop)
	if err != nil {
		if errors.Is(err, report.ErrEmpty) {
			ux.Warning(fmt.Sprintf(
				"No groups met the minimum size filter (min-officers=%d). Try a smaller --min-officers.",
				minOfficers))
			return
		}
		exitErr("Failed to build the risk matrix", err)
	}

	if jsonOut {
		printJSON(view)
		return
	}

	tbl, err := report.BuildGroupTable(stats)
	if err != nil {
		exitErr("Failed to build the group table", err)
	}

	ux.Title(view.Title)
	ux.Muted(view.Subtitle)
	if view.MedianAvgPerOfficer != nil {
		ux.Stat("median_avg_per_officer", fmt.Sprintf("%.4f", *view.MedianAvgPerOfficer))
	}
	if view.MedianSubstPer100 != nil {
		ux.Stat("median_subst_per_100", fmt.Sprintf("%.4f", *view.MedianSubstPer100))
	}
	printGroupTable(tbl)
}

// runPrecinct joins per-precinct complaint counts from the officer
// snapshot with crime counts from the NYPD complaint dataset.
func runPrecinct(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Close()

	loader, cleanup, err := openLoader(logger)
	if err != nil {
		exitErr("Failed to build the snapshot loader", err)
	}
	defer cleanup()

	ctx := context.Background()
	snap, _, err := loadSnapshot(ctx, loader)
	if err != nil {
		exitErr("Failed to load the snapshot", err)
	}

	misconduct, err := analytics.MisconductByPrecinct(snap.Table)
	if err != nil {
		exitErr("Failed to aggregate complaints by precinct", err)
	}

	client := socrataClient(logger)
	spin := ux.NewSpinner("Fetching crime counts by precinct")
	spin.Start()
	counts, err := client.FetchGroupCounts(ctx, socrata.CrimeDatasetID, socrata.GroupCountSpec{
		GroupField:   "addr_pct_cd",
		TopN:         precinctTopN,
		StartDate:    crimeStart,
		EndDate:      crimeEnd,
		Borough:      crimeBorough,
		OffenseLevel: offenseLevel,
	})
	if err != nil {
		spin.StopWithError("Crime count fetch failed")
		exitErr("Failed to fetch crime counts", err)
	}
	spin.StopWithSuccess(fmt.Sprintf("Fetched crime counts for %d precincts", len(counts)))

	merged := analytics.MergeCrime(misconduct, socrata.PrecinctCounts(counts))
	if len(merged) == 0 {
		ux.Warning("No precincts matched in both datasets.")
		return
	}

	if jsonOut {
		printJSON(merged)
		return
	}

	if ux.GetMode() == ux.ModeMachine {
		fmt.Println("precinct\tcomplaints\tcrimes")
		for _, pc := range merged {
			fmt.Printf("%d\t%.0f\t%.0f\n", pc.Precinct, pc.Complaints, pc.Crimes)
		}
		return
	}

	ux.Title("Precinct complaints vs. reported crime")
	fmt.Printf("%-10s  %12s  %12s\n", "precinct", "complaints", "crimes")
	for _, pc := range merged {
		fmt.Printf("%-10d  %12.0f  %12.0f\n", pc.Precinct, pc.Complaints, pc.Crimes)
	}
	ux.Muted(fmt.Sprintf("%d precincts present in both datasets", len(merged)))
}
