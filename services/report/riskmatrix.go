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
	"math"
	"strconv"

	"github.com/AleutianAI/CivicLens/services/analytics"
)

const (
	riskXLabel = "Avg complaints per officer (Total complaints / #officers)"
	riskYLabel = "Substantiated per 100 complaints (Total substantiated / Total * 100)"
)

// RiskPoint is one bubble of the risk matrix.
//
// The ratio fields are pointers because the analytics layer carries
// undefined ratios as NaN. A nil here renders as null on the wire and as
// "n/a" in text output.
type RiskPoint struct {
	// Key is the group value, e.g. a command or rank name. May be empty
	// when the snapshot has rows with a missing group cell.
	Key string `json:"key"`

	Officers           int     `json:"officers"`
	TotalComplaints    float64 `json:"total_complaints"`
	TotalSubstantiated float64 `json:"total_substantiated"`

	// AvgPerOfficer is the burden axis value.
	AvgPerOfficer *float64 `json:"avg_complaints_per_officer"`

	// SubstPer100 is the intensity axis value.
	SubstPer100 *float64 `json:"substantiated_per_100_complaints"`

	// BubbleSize is the plot area for this group, scaled against the
	// largest retained group.
	BubbleSize float64 `json:"bubble_size"`

	// Annotated marks the highest-burden groups selected for labeling.
	Annotated bool `json:"annotated,omitempty"`
}

// RiskMatrixView is the render-ready bubble chart: points in ascending
// burden order, median reference lines, axis labels, and the subtitle
// describing the lines.
type RiskMatrixView struct {
	Title    string      `json:"title"`
	XLabel   string      `json:"x_label"`
	YLabel   string      `json:"y_label"`
	Subtitle string      `json:"subtitle"`
	Points   []RiskPoint `json:"points"`

	// MedianAvgPerOfficer is the vertical reference line, computed over
	// retained groups only. Nil when undefined.
	MedianAvgPerOfficer *float64 `json:"median_avg_complaints_per_officer"`

	// MedianSubstPer100 is the horizontal reference line. Nil when
	// undefined.
	MedianSubstPer100 *float64 `json:"median_substantiated_per_100"`
}

// BuildRiskMatrixView shapes group stats into the bubble chart view.
//
// Bubbles keep the ascending burden order of the input. The annotateTopN
// highest-burden groups are flagged for labels; groups with an undefined
// burden are never flagged. Returns ErrEmpty when no groups survived the
// size filter, since a risk matrix with no bubbles answers nothing.
func BuildRiskMatrixView(stats *analytics.GroupStats, annotateTopN int) (*RiskMatrixView, error) {
	if stats == nil || len(stats.Groups) == 0 {
		return nil, fmt.Errorf("%w: group stats table is empty (min_officers too high or no data)", ErrEmpty)
	}

	counts := make([]int, len(stats.Groups))
	for i, g := range stats.Groups {
		counts[i] = g.Officers
	}
	sizes := analytics.BubbleSizes(counts)

	points := make([]RiskPoint, len(stats.Groups))
	for i, g := range stats.Groups {
		points[i] = RiskPoint{
			Key:                g.Key,
			Officers:           g.Officers,
			TotalComplaints:    g.TotalComplaints,
			TotalSubstantiated: g.TotalSubstantiated,
			AvgPerOfficer:      nullable(g.AvgPerOfficer),
			SubstPer100:        nullable(g.SubstPer100),
			BubbleSize:         sizes[i],
		}
	}
	markTopBurden(points, annotateTopN)

	return &RiskMatrixView{
		Title:  fmt.Sprintf("Risk Matrix (Grouped by %s) — Snapshot", stats.Field),
		XLabel: riskXLabel,
		YLabel: riskYLabel,
		Subtitle: fmt.Sprintf(
			"Each dot = %s (filtered). Vertical line = median avg complaints (%.2f); Horizontal line = median substantiated per 100 (%.2f).",
			stats.Field, stats.MedianAvgPerOfficer, stats.MedianSubstPer100,
		),
		Points:              points,
		MedianAvgPerOfficer: nullable(stats.MedianAvgPerOfficer),
		MedianSubstPer100:   nullable(stats.MedianSubstPer100),
	}, nil
}

// markTopBurden flags the n highest-burden points for labeling. Points
// arrive sorted ascending by burden, so the walk runs from the tail.
func markTopBurden(points []RiskPoint, n int) {
	for i := len(points) - 1; i >= 0 && n > 0; i-- {
		if points[i].AvgPerOfficer == nil {
			continue
		}
		points[i].Annotated = true
		n--
	}
}

// GroupTable is the text rendering of the retained groups, highest burden
// first, the way the dashboard's table panel orders it.
type GroupTable struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// BuildGroupTable renders group stats as a text table. Ratio cells use
// two decimals and undefined ratios render as "n/a". An empty stats table
// yields a table with headers and no rows.
func BuildGroupTable(stats *analytics.GroupStats) (*GroupTable, error) {
	if stats == nil {
		return nil, fmt.Errorf("%w: group stats are nil", analytics.ErrInvalidInput)
	}

	tbl := &GroupTable{
		Title: "Group table (filtered)",
		Columns: []string{
			stats.Field.String(),
			"officers",
			"total_complaints",
			"total_substantiated",
			"avg_complaints_per_officer",
			"substantiated_per_100_complaints",
		},
		Rows: make([][]string, 0, len(stats.Groups)),
	}
	for i := len(stats.Groups) - 1; i >= 0; i-- {
		g := stats.Groups[i]
		tbl.Rows = append(tbl.Rows, []string{
			g.Key,
			strconv.Itoa(g.Officers),
			formatMeasure(g.TotalComplaints),
			formatMeasure(g.TotalSubstantiated),
			ratioCell(g.AvgPerOfficer),
			ratioCell(g.SubstPer100),
		})
	}
	return tbl, nil
}

// ratioCell renders a ratio for table display.
func ratioCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
