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
	"testing"
	"time"

	"github.com/AleutianAI/CivicLens/services/history"
)

func TestBuildTrendView(t *testing.T) {
	t0 := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	points := []history.TrendPoint{
		{Time: t0, GiniTotal: 0.60, GiniSubstantiated: 0.70, Top1Share: 0.07, Top5Share: 0.22},
		{Time: t0.Add(24 * time.Hour), GiniTotal: 0.62, GiniSubstantiated: 0.71, Top1Share: 0.08, Top5Share: 0.24},
	}

	view, err := BuildTrendView(points, 30)
	if err != nil {
		t.Fatalf("BuildTrendView returned error: %v", err)
	}

	if want := "Concentration Trend (last 30 days)"; view.Title != want {
		t.Errorf("Expected title %q, got %q", want, view.Title)
	}
	if view.Days != 30 {
		t.Errorf("Expected days 30, got %d", view.Days)
	}

	wantNames := []string{"Gini (Total)", "Gini (Substantiated)", "Top 1% share", "Top 5% share"}
	if len(view.Series) != len(wantNames) {
		t.Fatalf("Expected %d series, got %d", len(wantNames), len(view.Series))
	}
	for i, name := range wantNames {
		if view.Series[i].Name != name {
			t.Errorf("Expected series %d name %q, got %q", i, name, view.Series[i].Name)
		}
		if len(view.Series[i].Times) != 2 || len(view.Series[i].Values) != 2 {
			t.Errorf("Expected series %q to carry both points", name)
		}
	}

	if view.Series[0].Values[1] != 0.62 {
		t.Errorf("Expected Gini (Total) value 0.62, got %v", view.Series[0].Values[1])
	}
	if view.Series[3].Values[0] != 0.22 {
		t.Errorf("Expected Top 5%% share value 0.22, got %v", view.Series[3].Values[0])
	}
	if !view.Series[1].Times[0].Equal(t0) {
		t.Errorf("Expected series times to keep point order, got %v", view.Series[1].Times[0])
	}
}

func TestBuildTrendView_Empty(t *testing.T) {
	if _, err := BuildTrendView(nil, 90); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}
