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
	"os"

	"github.com/AleutianAI/CivicLens/cmd/civiclens/config"
	"github.com/AleutianAI/CivicLens/cmd/civiclens/gcs"
	"github.com/AleutianAI/CivicLens/pkg/ux"
	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/AleutianAI/CivicLens/services/dataset"
	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/spf13/cobra"
)

// runExportSnapshot writes the loaded officer snapshot table to a CSV
// file in the export directory.
func runExportSnapshot(cmd *cobra.Command, args []string) {
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

	path, err := exportTarget(report.SnapshotFileName(snap.AsOfDate))
	if err != nil {
		exitErr("Failed to resolve the export path", err)
	}

	f, err := os.Create(path)
	if err != nil {
		exitErr("Failed to create the export file", err)
	}
	if err := dataset.WriteCSV(f, snap.Table); err != nil {
		_ = f.Close()
		exitErr("Failed to write the snapshot CSV", err)
	}
	if err := f.Close(); err != nil {
		exitErr("Failed to close the export file", err)
	}

	ux.Success(fmt.Sprintf("Wrote %s (%d rows)", path, snap.Rows))
}

// runExportGroups writes the per-group risk statistics for one group
// field to a CSV file in the export directory.
func runExportGroups(cmd *cobra.Command, args []string) {
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

	data, err := report.GroupStatsCSV(stats)
	if err != nil {
		exitErr("Failed to render the group statistics CSV", err)
	}

	path, err := exportTarget(report.GroupStatsFileName(field))
	if err != nil {
		exitErr("Failed to resolve the export path", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		exitErr("Failed to write the export file", err)
	}

	ux.Success(fmt.Sprintf("Wrote %s (%d groups)", path, len(stats.Groups)))
}

// runUploadExports uploads a directory of export files to the configured
// GCS bucket, preserving the local directory layout under the prefix.
func runUploadExports(cmd *cobra.Command, args []string) {
	dir := exportDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = config.Global.Export.Dir
	}
	if dir == "" {
		exitErr("Failed to resolve the export directory", errors.New(
			"no directory given and no export dir configured"))
	}
	if _, err := os.Stat(dir); err != nil {
		exitErr("Failed to read the export directory", err)
	}

	project := uploadProject
	if project == "" {
		project = config.Global.Export.GCS.Project
	}
	bucket := uploadBucket
	if bucket == "" {
		bucket = config.Global.Export.GCS.Bucket
	}
	keyPath := uploadKeyPath
	if keyPath == "" {
		keyPath = config.Global.Export.GCS.KeyPath
	}
	if bucket == "" || keyPath == "" {
		exitErr("GCS upload is not configured", errors.New(
			"set export.gcs.bucket and export.gcs.key_path in the config, or pass --bucket and --key"))
	}

	ctx := context.Background()
	client, err := gcs.NewClient(ctx, project, bucket, keyPath)
	if err != nil {
		exitErr("Failed to create the GCS client", err)
	}

	spin := ux.NewSpinner(fmt.Sprintf("Uploading %s to gs://%s/%s", dir, bucket, uploadPrefix))
	spin.Start()
	if err := client.UploadDir(ctx, dir, uploadPrefix); err != nil {
		spin.StopWithError("Upload failed")
		exitErr("Failed to upload the exports", err)
	}
	spin.StopWithSuccess(fmt.Sprintf("Uploaded exports to gs://%s/%s", bucket, uploadPrefix))
}
