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

	"github.com/AleutianAI/CivicLens/services/analytics"
)

func sampleReport() *analytics.ConcentrationReport {
	return &analytics.ConcentrationReport{
		Total:             &analytics.Curve{X: []float64{0, 0.5, 1}, Y: []float64{0, 0.25, 1}},
		Substantiated:     &analytics.Curve{X: []float64{0, 0.5, 1}, Y: []float64{0, 0.1, 1}},
		GiniTotal:         0.62,
		GiniSubstantiated: 0.71,
		TopShares: []analytics.TopShareEntry{
			{Fraction: 0.01, Share: 0.08},
			{Fraction: 0.05, Share: 0.24},
		},
	}
}

func TestBuildConcentrationView_Caption(t *testing.T) {
	view, err := BuildConcentrationView(sampleReport(), "")
	if err != nil {
		t.Fatalf("BuildConcentrationView returned error: %v", err)
	}

	want := "Gini(Total)=0.620   Gini(Subst)=0.710   Top 1% share=8.0%   Top 5% share=24.0%"
	if view.Caption != want {
		t.Errorf("Expected caption %q, got %q", want, view.Caption)
	}
}

func TestBuildConcentrationView_CaptionWithDate(t *testing.T) {
	view, err := BuildConcentrationView(sampleReport(), "2023-05-01")
	if err != nil {
		t.Fatalf("BuildConcentrationView returned error: %v", err)
	}

	want := "As Of Date: 2023-05-01   Gini(Total)=0.620   Gini(Subst)=0.710   Top 1% share=8.0%   Top 5% share=24.0%"
	if view.Caption != want {
		t.Errorf("Expected caption %q, got %q", want, view.Caption)
	}
}

func TestBuildConcentrationView_Summary(t *testing.T) {
	view, err := BuildConcentrationView(sampleReport(), "")
	if err != nil {
		t.Fatalf("BuildConcentrationView returned error: %v", err)
	}

	want := map[string]float64{
		"gini_total":           0.62,
		"gini_subst":           0.71,
		"top_1pct_share_total": 0.08,
		"top_5pct_share_total": 0.24,
	}
	if len(view.Summary) != len(want) {
		t.Fatalf("Expected %d summary keys, got %d: %v", len(want), len(view.Summary), view.Summary)
	}
	for key, value := range want {
		got, ok := view.Summary[key]
		if !ok {
			t.Errorf("Expected summary key %q, missing", key)
			continue
		}
		if got != value {
			t.Errorf("Expected summary[%q] = %v, got %v", key, value, got)
		}
	}
}

func TestBuildConcentrationView_Series(t *testing.T) {
	view, err := BuildConcentrationView(sampleReport(), "")
	if err != nil {
		t.Fatalf("BuildConcentrationView returned error: %v", err)
	}

	if len(view.Series) != 3 {
		t.Fatalf("Expected 3 series, got %d", len(view.Series))
	}

	names := []string{"Total Complaints", "Total Substantiated Complaints", "Equality line"}
	for i, name := range names {
		if view.Series[i].Name != name {
			t.Errorf("Expected series %d name %q, got %q", i, name, view.Series[i].Name)
		}
	}

	equality := view.Series[2]
	if !equality.Dashed {
		t.Error("Expected the equality line to be dashed")
	}
	if len(equality.X) != 2 || equality.X[0] != 0 || equality.X[1] != 1 {
		t.Errorf("Expected equality X [0 1], got %v", equality.X)
	}
	if view.Series[0].Y[1] != 0.25 {
		t.Errorf("Expected total curve Y[1] = 0.25, got %v", view.Series[0].Y[1])
	}
	if view.Series[1].Y[1] != 0.1 {
		t.Errorf("Expected substantiated curve Y[1] = 0.1, got %v", view.Series[1].Y[1])
	}
}

func TestBuildConcentrationView_Labels(t *testing.T) {
	view, err := BuildConcentrationView(sampleReport(), "")
	if err != nil {
		t.Fatalf("BuildConcentrationView returned error: %v", err)
	}

	if view.Title != "Lorenz Curves for CCRB Complaints (Officer Snapshot)" {
		t.Errorf("Unexpected title %q", view.Title)
	}
	if view.XLabel != "Cumulative share of officers (sorted low → high)" {
		t.Errorf("Unexpected x label %q", view.XLabel)
	}
	if view.YLabel != "Cumulative share of complaints" {
		t.Errorf("Unexpected y label %q", view.YLabel)
	}
}

func TestBuildConcentrationView_CustomFraction(t *testing.T) {
	rep := sampleReport()
	rep.TopShares = []analytics.TopShareEntry{{Fraction: 0.1, Share: 0.4}}

	view, err := BuildConcentrationView(rep, "")
	if err != nil {
		t.Fatalf("BuildConcentrationView returned error: %v", err)
	}

	want := "Gini(Total)=0.620   Gini(Subst)=0.710   Top 10% share=40.0%"
	if view.Caption != want {
		t.Errorf("Expected caption %q, got %q", want, view.Caption)
	}
	if _, ok := view.Summary["top_10pct_share_total"]; !ok {
		t.Errorf("Expected summary key top_10pct_share_total, got %v", view.Summary)
	}
}

func TestBuildConcentrationView_IncompleteReport(t *testing.T) {
	cases := []struct {
		name string
		rep  *analytics.ConcentrationReport
	}{
		{"nil report", nil},
		{"missing total curve", &analytics.ConcentrationReport{Substantiated: &analytics.Curve{}}},
		{"missing substantiated curve", &analytics.ConcentrationReport{Total: &analytics.Curve{}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildConcentrationView(tc.rep, "")
			if !errors.Is(err, analytics.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
