// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"errors"
	"math"
	"testing"

	"github.com/AleutianAI/CivicLens/services/analytics"
)

func TestGroupStatsFileName(t *testing.T) {
	if got := GroupStatsFileName(analytics.GroupByCommand); got != "rq2_group_stats_current_command.csv" {
		t.Errorf("Expected rq2_group_stats_current_command.csv, got %q", got)
	}
	if got := GroupStatsFileName(analytics.GroupByRank); got != "rq2_group_stats_current_rank.csv" {
		t.Errorf("Expected rq2_group_stats_current_rank.csv, got %q", got)
	}
}

func TestSnapshotFileName(t *testing.T) {
	if got := SnapshotFileName("2023-05-01"); got != "ccrb_officer_snapshot_2023-05-01.csv" {
		t.Errorf("Expected dated file name, got %q", got)
	}
	if got := SnapshotFileName(""); got != "ccrb_officer_snapshot_all.csv" {
		t.Errorf("Expected the all suffix for an unfiltered snapshot, got %q", got)
	}
}

func TestGroupStatsCSV(t *testing.T) {
	stats := &analytics.GroupStats{
		Field: analytics.GroupByCommand,
		Groups: []analytics.GroupRecord{
			{Key: "EMPTY CMD", Officers: 250, TotalComplaints: 0, TotalSubstantiated: 0, AvgPerOfficer: 0, SubstPer100: math.NaN()},
			{Key: "HIGH CMD", Officers: 300, TotalComplaints: 450, TotalSubstantiated: 90, AvgPerOfficer: 1.5, SubstPer100: 20},
		},
	}

	raw, err := GroupStatsCSV(stats)
	if err != nil {
		t.Fatalf("GroupStatsCSV returned error: %v", err)
	}

	want := "Current Command,officers,total_complaints,total_substantiated,avg_complaints_per_officer,substantiated_per_100_complaints\n" +
		"EMPTY CMD,250,0,0,0,\n" +
		"HIGH CMD,300,450,90,1.5,20\n"
	if string(raw) != want {
		t.Errorf("Expected CSV:\n%s\ngot:\n%s", want, raw)
	}
}

func TestGroupStatsCSV_NilStats(t *testing.T) {
	if _, err := GroupStatsCSV(nil); !errors.Is(err, analytics.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
