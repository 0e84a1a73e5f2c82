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
	"github.com/AleutianAI/CivicLens/cmd/civiclens/config"
	"github.com/AleutianAI/CivicLens/pkg/ux"
	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	outputMode  string // CLI override for the output mode (rich, plain, machine)
	asOfDate    string // snapshot date filter, empty means latest
	maxRows     int    // row cap for quick runs, 0 means all
	refreshSnap bool   // bypass the snapshot cache

	topFractions []float64 // top population fractions for share statistics
	jsonOut      bool      // emit the full view as JSON instead of text
	recordRun    bool      // write the result to the history store when configured

	minOfficers int // minimum group size before a group is reported
	annotateTop int // how many highest-burden groups to call out

	precinctTopN int    // cap on precincts pulled from the crime dataset
	crimeStart   string // crime window start (YYYY-MM-DD)
	crimeEnd     string // crime window end (YYYY-MM-DD)
	crimeBorough string // borough filter for the crime dataset
	offenseLevel string // offense level filter (FELONY, MISDEMEANOR, VIOLATION)

	trendDays int // lookback window for the trend query

	exportDir string // override for the export directory

	uploadProject string // GCP project override
	uploadBucket  string // GCS bucket override
	uploadKeyPath string // service account key override
	uploadPrefix  string // object prefix for uploaded exports

	dashboardField string // group field for the dashboard risk matrix

	rootCmd = &cobra.Command{
		Use:   "civiclens",
		Short: "A cli to measure complaint concentration in NYC police oversight data",
		Long: `CivicLens measures how civilian complaints concentrate among officers
				and officer groups, using the public CCRB officer snapshot on NYC
				Open Data. It fetches and caches the snapshot, computes Lorenz
				curves, Gini coefficients, and per-group risk statistics, and can
				export, upload, and track the results over time.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Output mode first so the config loader's first-run notice
			// renders consistently.
			if outputMode != "" {
				ux.SetMode(ux.ParseMode(outputMode))
			} else {
				ux.InitMode()
			}
			if err := config.Load(); err != nil {
				exitErr("Failed to load the config", err)
			}
		},
	}

	// --- Snapshot Commands ---
	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Fetches the officer snapshot into the local cache",
		Run:   runFetch, // Defined in cmd_fetch.go
	}

	// --- Analysis Commands ---
	concentrationCmd = &cobra.Command{
		Use:   "concentration",
		Short: "Computes Lorenz curves, Gini coefficients, and top-share statistics",
		Run:   runConcentration, // Defined in cmd_analysis.go
	}
	riskMatrixCmd = &cobra.Command{
		Use:   "risk-matrix [field]",
		Short: "Computes per-group complaint burden (field: command or rank)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runRiskMatrix, // Defined in cmd_analysis.go
	}
	precinctCmd = &cobra.Command{
		Use:   "precinct",
		Short: "Joins precinct complaint counts with NYPD crime counts",
		Run:   runPrecinct, // Defined in cmd_analysis.go
	}

	// --- Trend Commands ---
	trendCmd = &cobra.Command{
		Use:   "trend",
		Short: "Shows stored concentration statistics over time",
		Run:   runTrend, // Defined in cmd_trend.go
	}

	// --- Export Commands ---
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Writes analysis artifacts as CSV files",
	}
	exportSnapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Writes the officer snapshot table to CSV",
		Run:   runExportSnapshot, // Defined in cmd_export.go
	}
	exportGroupsCmd = &cobra.Command{
		Use:   "groups [field]",
		Short: "Writes per-group risk statistics to CSV",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExportGroups, // Defined in cmd_export.go
	}

	// --- GCS Commands ---
	uploadCmd = &cobra.Command{
		Use:   "upload",
		Short: "Upload data to Google Cloud Storage (GCS)",
	}
	uploadExportsCmd = &cobra.Command{
		Use:   "exports [local_directory]",
		Short: "Uploads export files from a local directory to GCS",
		Args:  cobra.MaximumNArgs(1),
		Run:   runUploadExports, // Defined in cmd_export.go
	}

	// --- Dashboard Commands ---
	dashboardCmd = &cobra.Command{
		Use:   "dashboard",
		Short: "Opens the interactive terminal dashboard over the current snapshot",
		Run:   runDashboard, // Defined in cmd_dashboard.go
	}

	// --- Utility Commands ---
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Prints the civiclens version",
		Run:   runVersion, // Defined in helpers.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&outputMode, "output", "",
		"Output style: rich, plain, or machine (default: auto-detect)")

	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&asOfDate, "as-of", "", "Snapshot date (YYYY-MM-DD, default: latest)")
	fetchCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on rows loaded, 0 loads everything")
	fetchCmd.Flags().BoolVar(&refreshSnap, "refresh", false, "Bypass the cache and fetch fresh rows")

	rootCmd.AddCommand(concentrationCmd)
	concentrationCmd.Flags().StringVar(&asOfDate, "as-of", "", "Snapshot date (YYYY-MM-DD, default: latest)")
	concentrationCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on rows loaded, 0 loads everything")
	concentrationCmd.Flags().BoolVar(&refreshSnap, "refresh", false, "Bypass the cache and fetch fresh rows")
	concentrationCmd.Flags().Float64SliceVar(&topFractions, "top", analytics.DefaultTopFractions,
		"Top population fractions for share statistics")
	concentrationCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full report as JSON")
	concentrationCmd.Flags().BoolVar(&recordRun, "record", true,
		"Write the summary to the history store when one is configured")

	rootCmd.AddCommand(riskMatrixCmd)
	riskMatrixCmd.Flags().StringVar(&asOfDate, "as-of", "", "Snapshot date (YYYY-MM-DD, default: latest)")
	riskMatrixCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on rows loaded, 0 loads everything")
	riskMatrixCmd.Flags().BoolVar(&refreshSnap, "refresh", false, "Bypass the cache and fetch fresh rows")
	riskMatrixCmd.Flags().IntVar(&minOfficers, "min-officers", analytics.DefaultMinOfficers,
		"Drop groups with fewer officers than this")
	riskMatrixCmd.Flags().IntVar(&annotateTop, "annotate", 10, "Call out this many highest-burden groups")
	riskMatrixCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full matrix as JSON")

	rootCmd.AddCommand(precinctCmd)
	precinctCmd.Flags().StringVar(&asOfDate, "as-of", "", "Snapshot date (YYYY-MM-DD, default: latest)")
	precinctCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on rows loaded, 0 loads everything")
	precinctCmd.Flags().BoolVar(&refreshSnap, "refresh", false, "Bypass the cache and fetch fresh rows")
	precinctCmd.Flags().IntVar(&precinctTopN, "top", 100, "Cap on precincts pulled from the crime dataset")
	precinctCmd.Flags().StringVar(&crimeStart, "start", "", "Crime window start (YYYY-MM-DD)")
	precinctCmd.Flags().StringVar(&crimeEnd, "end", "", "Crime window end (YYYY-MM-DD)")
	precinctCmd.Flags().StringVar(&crimeBorough, "borough", "", "Borough filter, e.g. BROOKLYN")
	precinctCmd.Flags().StringVar(&offenseLevel, "offense-level", "",
		"Offense level filter: FELONY, MISDEMEANOR, or VIOLATION")
	precinctCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the joined counts as JSON")

	rootCmd.AddCommand(trendCmd)
	trendCmd.Flags().IntVar(&trendDays, "days", 90, "Lookback window in days")
	trendCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the trend series as JSON")

	rootCmd.AddCommand(exportCmd)
	exportCmd.PersistentFlags().StringVar(&exportDir, "dir", "",
		"Export directory (default: the configured export dir)")
	exportCmd.AddCommand(exportSnapshotCmd)
	exportSnapshotCmd.Flags().StringVar(&asOfDate, "as-of", "", "Snapshot date (YYYY-MM-DD, default: latest)")
	exportSnapshotCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on rows loaded, 0 loads everything")
	exportSnapshotCmd.Flags().BoolVar(&refreshSnap, "refresh", false, "Bypass the cache and fetch fresh rows")
	exportCmd.AddCommand(exportGroupsCmd)
	exportGroupsCmd.Flags().StringVar(&asOfDate, "as-of", "", "Snapshot date (YYYY-MM-DD, default: latest)")
	exportGroupsCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on rows loaded, 0 loads everything")
	exportGroupsCmd.Flags().BoolVar(&refreshSnap, "refresh", false, "Bypass the cache and fetch fresh rows")
	exportGroupsCmd.Flags().IntVar(&minOfficers, "min-officers", analytics.DefaultMinOfficers,
		"Drop groups with fewer officers than this")

	rootCmd.AddCommand(uploadCmd)
	uploadCmd.AddCommand(uploadExportsCmd)
	uploadExportsCmd.Flags().StringVar(&uploadProject, "project", "", "GCP project (default: from config)")
	uploadExportsCmd.Flags().StringVar(&uploadBucket, "bucket", "", "GCS bucket (default: from config)")
	uploadExportsCmd.Flags().StringVar(&uploadKeyPath, "key", "", "Service account key path (default: from config)")
	uploadExportsCmd.Flags().StringVar(&uploadPrefix, "prefix", "civiclens/exports",
		"Object prefix for uploaded files")

	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&asOfDate, "as-of", "", "Snapshot date (YYYY-MM-DD, default: latest)")
	dashboardCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on rows loaded, 0 loads everything")
	dashboardCmd.Flags().BoolVar(&refreshSnap, "refresh", false, "Bypass the cache and fetch fresh rows")
	dashboardCmd.Flags().StringVar(&dashboardField, "field", "command",
		"Group field for the risk matrix: command or rank")
	dashboardCmd.Flags().IntVar(&minOfficers, "min-officers", analytics.DefaultMinOfficers,
		"Drop groups with fewer officers than this")
	dashboardCmd.Flags().IntVar(&annotateTop, "annotate", 10, "Call out this many highest-burden groups")

	rootCmd.AddCommand(versionCmd)
}
