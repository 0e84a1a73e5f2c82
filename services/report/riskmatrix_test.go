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
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/AleutianAI/CivicLens/services/analytics"
)

func sampleGroupStats() *analytics.GroupStats {
	return &analytics.GroupStats{
		Field:       analytics.GroupByCommand,
		MinOfficers: 200,
		Groups: []analytics.GroupRecord{
			{Key: "QUIET CMD", Officers: 200, TotalComplaints: 100, TotalSubstantiated: 10, AvgPerOfficer: 0.5, SubstPer100: 10},
			{Key: "MID CMD", Officers: 400, TotalComplaints: 600, TotalSubstantiated: 150, AvgPerOfficer: 1.5, SubstPer100: 25},
			{Key: "BUSY CMD", Officers: 300, TotalComplaints: 900, TotalSubstantiated: 300, AvgPerOfficer: 3.0, SubstPer100: 33.3},
		},
		MedianAvgPerOfficer: 1.5,
		MedianSubstPer100:   25,
	}
}

func TestBuildRiskMatrixView_Layout(t *testing.T) {
	view, err := BuildRiskMatrixView(sampleGroupStats(), 0)
	if err != nil {
		t.Fatalf("BuildRiskMatrixView returned error: %v", err)
	}

	if want := "Risk Matrix (Grouped by Current Command) — Snapshot"; view.Title != want {
		t.Errorf("Expected title %q, got %q", want, view.Title)
	}
	if want := "Avg complaints per officer (Total complaints / #officers)"; view.XLabel != want {
		t.Errorf("Expected x label %q, got %q", want, view.XLabel)
	}
	if want := "Substantiated per 100 complaints (Total substantiated / Total * 100)"; view.YLabel != want {
		t.Errorf("Expected y label %q, got %q", want, view.YLabel)
	}
	wantSubtitle := "Each dot = Current Command (filtered). Vertical line = median avg complaints (1.50); Horizontal line = median substantiated per 100 (25.00)."
	if view.Subtitle != wantSubtitle {
		t.Errorf("Expected subtitle %q, got %q", wantSubtitle, view.Subtitle)
	}

	if view.MedianAvgPerOfficer == nil || *view.MedianAvgPerOfficer != 1.5 {
		t.Errorf("Expected median avg 1.5, got %v", view.MedianAvgPerOfficer)
	}
	if view.MedianSubstPer100 == nil || *view.MedianSubstPer100 != 25 {
		t.Errorf("Expected median subst 25, got %v", view.MedianSubstPer100)
	}
}

func TestBuildRiskMatrixView_BubbleSizes(t *testing.T) {
	view, err := BuildRiskMatrixView(sampleGroupStats(), 0)
	if err != nil {
		t.Fatalf("BuildRiskMatrixView returned error: %v", err)
	}

	// Officer counts 200, 400, 300 against a max of 400.
	want := []float64{920, 1820, 1370}
	for i, size := range want {
		if view.Points[i].BubbleSize != size {
			t.Errorf("Expected point %d bubble size %v, got %v", i, size, view.Points[i].BubbleSize)
		}
	}
}

func TestBuildRiskMatrixView_Annotations(t *testing.T) {
	view, err := BuildRiskMatrixView(sampleGroupStats(), 2)
	if err != nil {
		t.Fatalf("BuildRiskMatrixView returned error: %v", err)
	}

	annotated := make([]string, 0, 2)
	for _, p := range view.Points {
		if p.Annotated {
			annotated = append(annotated, p.Key)
		}
	}
	if len(annotated) != 2 {
		t.Fatalf("Expected 2 annotated points, got %d: %v", len(annotated), annotated)
	}
	if annotated[0] != "MID CMD" || annotated[1] != "BUSY CMD" {
		t.Errorf("Expected the two highest-burden groups annotated, got %v", annotated)
	}
}

func TestBuildRiskMatrixView_SkipsUndefinedBurden(t *testing.T) {
	stats := sampleGroupStats()
	stats.Groups = append(stats.Groups, analytics.GroupRecord{
		Key:           "GHOST CMD",
		Officers:      0,
		AvgPerOfficer: math.NaN(),
		SubstPer100:   math.NaN(),
	})

	view, err := BuildRiskMatrixView(stats, 1)
	if err != nil {
		t.Fatalf("BuildRiskMatrixView returned error: %v", err)
	}

	for _, p := range view.Points {
		if p.Key == "GHOST CMD" && p.Annotated {
			t.Error("Expected undefined-burden group to stay unannotated")
		}
		if p.Key == "BUSY CMD" && !p.Annotated {
			t.Error("Expected the highest defined-burden group to be annotated")
		}
	}
}

func TestBuildRiskMatrixView_NaNBecomesNull(t *testing.T) {
	stats := &analytics.GroupStats{
		Field:       analytics.GroupByRank,
		MinOfficers: 0,
		Groups: []analytics.GroupRecord{
			{Key: "Police Officer", Officers: 50, TotalComplaints: 0, TotalSubstantiated: 0, AvgPerOfficer: 0, SubstPer100: math.NaN()},
		},
		MedianAvgPerOfficer: 0,
		MedianSubstPer100:   math.NaN(),
	}

	view, err := BuildRiskMatrixView(stats, 0)
	if err != nil {
		t.Fatalf("BuildRiskMatrixView returned error: %v", err)
	}
	if view.Points[0].SubstPer100 != nil {
		t.Errorf("Expected nil intensity, got %v", *view.Points[0].SubstPer100)
	}
	if view.MedianSubstPer100 != nil {
		t.Errorf("Expected nil median intensity, got %v", *view.MedianSubstPer100)
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Expected the view to survive JSON encoding, got %v", err)
	}
	if !strings.Contains(string(raw), `"substantiated_per_100_complaints":null`) {
		t.Errorf("Expected null intensity on the wire, got %s", raw)
	}
}

func TestBuildRiskMatrixView_Empty(t *testing.T) {
	cases := []struct {
		name  string
		stats *analytics.GroupStats
	}{
		{"nil stats", nil},
		{"no groups", &analytics.GroupStats{Field: analytics.GroupByCommand}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildRiskMatrixView(tc.stats, 0)
			if !errors.Is(err, ErrEmpty) {
				t.Errorf("Expected ErrEmpty, got %v", err)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Group Table Tests
// -----------------------------------------------------------------------------

func TestBuildGroupTable(t *testing.T) {
	tbl, err := BuildGroupTable(sampleGroupStats())
	if err != nil {
		t.Fatalf("BuildGroupTable returned error: %v", err)
	}

	if tbl.Title != "Group table (filtered)" {
		t.Errorf("Unexpected title %q", tbl.Title)
	}
	wantColumns := []string{
		"Current Command",
		"officers",
		"total_complaints",
		"total_substantiated",
		"avg_complaints_per_officer",
		"substantiated_per_100_complaints",
	}
	if len(tbl.Columns) != len(wantColumns) {
		t.Fatalf("Expected %d columns, got %d", len(wantColumns), len(tbl.Columns))
	}
	for i, col := range wantColumns {
		if tbl.Columns[i] != col {
			t.Errorf("Expected column %d %q, got %q", i, col, tbl.Columns[i])
		}
	}

	if len(tbl.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(tbl.Rows))
	}
	// Highest burden first.
	if tbl.Rows[0][0] != "BUSY CMD" || tbl.Rows[2][0] != "QUIET CMD" {
		t.Errorf("Expected descending burden order, got %v then %v", tbl.Rows[0][0], tbl.Rows[2][0])
	}
	wantRow := []string{"BUSY CMD", "300", "900", "300", "3.00", "33.30"}
	for i, cell := range wantRow {
		if tbl.Rows[0][i] != cell {
			t.Errorf("Expected row cell %d %q, got %q", i, cell, tbl.Rows[0][i])
		}
	}
}

func TestBuildGroupTable_UndefinedRatio(t *testing.T) {
	stats := sampleGroupStats()
	stats.Groups[0].SubstPer100 = math.NaN()

	tbl, err := BuildGroupTable(stats)
	if err != nil {
		t.Fatalf("BuildGroupTable returned error: %v", err)
	}
	// QUIET CMD sorts last in the descending table.
	if got := tbl.Rows[2][5]; got != "n/a" {
		t.Errorf("Expected n/a for undefined ratio, got %q", got)
	}
}

func TestBuildGroupTable_Empty(t *testing.T) {
	tbl, err := BuildGroupTable(&analytics.GroupStats{Field: analytics.GroupByRank})
	if err != nil {
		t.Fatalf("BuildGroupTable returned error: %v", err)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(tbl.Rows))
	}
	if tbl.Columns[0] != "Current Rank" {
		t.Errorf("Expected Current Rank column, got %q", tbl.Columns[0])
	}

	if _, err := BuildGroupTable(nil); !errors.Is(err, analytics.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil stats, got %v", err)
	}
}
