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
	"fmt"
	"strings"

	"github.com/AleutianAI/CivicLens/services/analytics"
)

const (
	concentrationTitle  = "Lorenz Curves for CCRB Complaints (Officer Snapshot)"
	concentrationXLabel = "Cumulative share of officers (sorted low → high)"
	concentrationYLabel = "Cumulative share of complaints"

	seriesTotal         = "Total Complaints"
	seriesSubstantiated = "Total Substantiated Complaints"
	seriesEquality      = "Equality line"
)

// CurveSeries is one named line of the Lorenz panel.
type CurveSeries struct {
	// Name is the legend label.
	Name string `json:"name"`

	// X is the cumulative population share axis.
	X []float64 `json:"x"`

	// Y is the cumulative value share axis.
	Y []float64 `json:"y"`

	// Dashed marks reference lines drawn dashed, like the equality
	// diagonal.
	Dashed bool `json:"dashed,omitempty"`
}

// ConcentrationView is the render-ready Lorenz panel: both measure curves,
// the equality diagonal, axis labels, and the caption line.
type ConcentrationView struct {
	Title  string        `json:"title"`
	XLabel string        `json:"x_label"`
	YLabel string        `json:"y_label"`
	Series []CurveSeries `json:"series"`

	// Caption is the stat line rendered under the chart, for example
	// "Gini(Total)=0.620   Gini(Subst)=0.710   Top 1% share=8.0%   ...".
	Caption string `json:"caption"`

	// Summary holds the headline statistics keyed for machine consumers:
	// gini_total, gini_subst, and top_<pct>pct_share_total per requested
	// fraction.
	Summary map[string]float64 `json:"summary"`
}

// BuildConcentrationView shapes a concentration report into its render
// view.
//
// The caption follows the analyst-facing format: Gini values to three
// decimals, top shares as percentages to one decimal, terms separated by
// three spaces. A non-empty asOfDate prepends "As Of Date: <date>" to the
// caption. Returns ErrInvalidInput when the report or either curve is
// missing.
func BuildConcentrationView(rep *analytics.ConcentrationReport, asOfDate string) (*ConcentrationView, error) {
	if rep == nil || rep.Total == nil || rep.Substantiated == nil {
		return nil, fmt.Errorf("%w: concentration report is incomplete", analytics.ErrInvalidInput)
	}

	terms := make([]string, 0, 2+len(rep.TopShares))
	terms = append(terms,
		fmt.Sprintf("Gini(Total)=%.3f", rep.GiniTotal),
		fmt.Sprintf("Gini(Subst)=%.3f", rep.GiniSubstantiated),
	)
	summary := map[string]float64{
		"gini_total": rep.GiniTotal,
		"gini_subst": rep.GiniSubstantiated,
	}
	for _, ts := range rep.TopShares {
		pct := percentLabel(ts.Fraction)
		terms = append(terms, fmt.Sprintf("Top %s%% share=%.1f%%", pct, ts.Share*100))
		summary["top_"+pct+"pct_share_total"] = ts.Share
	}
	caption := strings.Join(terms, "   ")
	if asOfDate != "" {
		caption = fmt.Sprintf("As Of Date: %s   ", asOfDate) + caption
	}

	return &ConcentrationView{
		Title:  concentrationTitle,
		XLabel: concentrationXLabel,
		YLabel: concentrationYLabel,
		Series: []CurveSeries{
			{Name: seriesTotal, X: rep.Total.X, Y: rep.Total.Y},
			{Name: seriesSubstantiated, X: rep.Substantiated.X, Y: rep.Substantiated.Y},
			{Name: seriesEquality, X: []float64{0, 1}, Y: []float64{0, 1}, Dashed: true},
		},
		Caption: caption,
		Summary: summary,
	}, nil
}
