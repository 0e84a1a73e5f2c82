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
	"time"

	"github.com/AleutianAI/CivicLens/services/history"
)

// TrendSeries is one statistic's path through time.
type TrendSeries struct {
	Name   string      `json:"name"`
	Times  []time.Time `json:"times"`
	Values []float64   `json:"values"`
}

// TrendView is the render-ready history panel: one named series per
// tracked concentration statistic over the query window.
type TrendView struct {
	Title  string        `json:"title"`
	Days   int           `json:"days"`
	Series []TrendSeries `json:"series"`
}

// BuildTrendView pivots stored trend points into per-statistic series.
// Points arrive in ascending time order from the history store and keep
// that order. Returns ErrEmpty when the window holds no points.
func BuildTrendView(points []history.TrendPoint, days int) (*TrendView, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no history in the last %d days", ErrEmpty, days)
	}

	times := make([]time.Time, len(points))
	giniTotal := make([]float64, len(points))
	giniSubst := make([]float64, len(points))
	top1 := make([]float64, len(points))
	top5 := make([]float64, len(points))
	for i, p := range points {
		times[i] = p.Time
		giniTotal[i] = p.GiniTotal
		giniSubst[i] = p.GiniSubstantiated
		top1[i] = p.Top1Share
		top5[i] = p.Top5Share
	}

	return &TrendView{
		Title: fmt.Sprintf("Concentration Trend (last %d days)", days),
		Days:  days,
		Series: []TrendSeries{
			{Name: "Gini (Total)", Times: times, Values: giniTotal},
			{Name: "Gini (Substantiated)", Times: times, Values: giniSubst},
			{Name: "Top 1% share", Times: times, Values: top1},
			{Name: "Top 5% share", Times: times, Values: top5},
		},
	}, nil
}
