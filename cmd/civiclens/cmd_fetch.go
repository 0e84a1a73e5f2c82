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
	"fmt"
	"time"

	"github.com/AleutianAI/CivicLens/pkg/ux"
	"github.com/spf13/cobra"
)

// runFetch loads the officer snapshot into the local cache and prints
// the load provenance. Later analysis commands on the same snapshot day
// then run off the cache.
func runFetch(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Close()

	loader, cleanup, err := openLoader(logger)
	if err != nil {
		exitErr("Failed to build the snapshot loader", err)
	}
	defer cleanup()

	ctx := context.Background()
	snap, info, err := loadSnapshot(ctx, loader)
	if err != nil {
		exitErr("Failed to load the snapshot", err)
	}

	ux.FetchSummary(snap.Rows, info.Pages, info.Source)
	ux.Stat("snapshot_id", snap.ID)
	ux.Stat("as_of_date", snap.AsOfDate)
	ux.Stat("fetched_at", snap.FetchedAt.Format(time.RFC3339))

	if snap.Table.IsEmpty() {
		ux.DatasetStatus("officer_snapshot", ux.IconWarning, "no rows for the requested filters")
	} else {
		ux.DatasetStatus("officer_snapshot", ux.IconSuccess,
			fmt.Sprintf("%d columns", len(snap.Table.Labels())))
	}
}
