// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/CivicLens/services/dataset"
)

// DefaultMinOfficers is the minimum-group-size gate applied when a caller
// has no opinion. Groups below it produce ratios too noisy to chart.
const DefaultMinOfficers = 200

// -----------------------------------------------------------------------------
// Group Field Allow-List
// -----------------------------------------------------------------------------

// GroupField selects the categorical dimension for group aggregation.
//
// The allow-list is a hardcoded business rule, not a generic groupby:
// exactly two dimensions produce meaningful risk-matrix bubbles. Requests
// for any other field fail with ErrConfiguration even when the column
// exists in the table, which keeps free-text and high-cardinality fields
// out of the chart.
type GroupField int

const (
	// GroupByCommand groups officers by their current command.
	GroupByCommand GroupField = iota
	// GroupByRank groups officers by their current rank.
	GroupByRank
)

// Column returns the table column label for the grouping dimension, or ""
// for a value outside the allow-list.
func (f GroupField) Column() string {
	switch f {
	case GroupByCommand:
		return dataset.ColCommand
	case GroupByRank:
		return dataset.ColRank
	default:
		return ""
	}
}

// String returns the column label, or "invalid" for an unrecognized value.
func (f GroupField) String() string {
	if col := f.Column(); col != "" {
		return col
	}
	return "invalid"
}

// ParseGroupField resolves a user-supplied grouping name.
//
// Accepts the column label or a short form, case-insensitively: "Current
// Command"/"command" and "Current Rank"/"rank". Anything else fails with
// ErrConfiguration.
func ParseGroupField(s string) (GroupField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "command", "current command":
		return GroupByCommand, nil
	case "rank", "current rank":
		return GroupByRank, nil
	}
	return 0, fmt.Errorf("%w: %q (choose %q or %q)",
		ErrConfiguration, s, dataset.ColCommand, dataset.ColRank)
}

// -----------------------------------------------------------------------------
// Group Aggregation
// -----------------------------------------------------------------------------

// GroupRecord is one aggregated row of the risk-matrix table.
//
// The ratio fields use NaN as their undefined sentinel, which does not
// survive encoding/json; the report layer owns the nullable wire view.
type GroupRecord struct {
	// Key is the raw group value. An empty key is a valid, reportable
	// group; rows with a missing group value are never dropped.
	Key string

	// Officers is the number of rows with a non-empty identity cell.
	Officers int

	// TotalComplaints is the group sum of the volume measure.
	TotalComplaints float64

	// TotalSubstantiated is the group sum of the sub-event measure.
	TotalSubstantiated float64

	// AvgPerOfficer is TotalComplaints / Officers: the group's burden.
	AvgPerOfficer float64

	// SubstPer100 is substantiated per 100 complaints: the group's
	// intensity. NaN when the group has zero complaints, because zero
	// would falsely imply zero intensity rather than no base rate.
	SubstPer100 float64
}

// GroupStats is the filtered group table with its median reference lines.
type GroupStats struct {
	// Groups holds the retained groups sorted ascending by AvgPerOfficer.
	Groups []GroupRecord

	// Field is the grouping dimension that produced the table.
	Field GroupField

	// MinOfficers is the size gate that was applied.
	MinOfficers int

	// MedianAvgPerOfficer is the median burden across the retained groups
	// only. NaN when no groups survive the filter.
	MedianAvgPerOfficer float64

	// MedianSubstPer100 is the median intensity across the retained groups
	// only, ignoring NaN entries. NaN when no groups survive the filter.
	MedianSubstPer100 float64
}

// ComputeGroupStats aggregates the officer table into per-group risk rows.
//
// Description:
//
//	Rows are grouped by the allowed categorical field; each group gets an
//	officer count, both measure sums, and the two derived ratios. Groups
//	below minOfficers are excluded from the result, and the medians are
//	computed across the retained groups only, since they serve as
//	risk-quadrant reference lines for exactly those bubbles. The call is a
//	pure function of its inputs; the table is never mutated.
//
// Inputs:
//   - tbl: Officer table. Must contain the identity column, the grouping
//     column, and both measure columns.
//   - field: Grouping dimension from the allow-list.
//   - minOfficers: Minimum officers per retained group. Callers with no
//     opinion pass DefaultMinOfficers.
//
// Outputs:
//   - *GroupStats: Retained groups sorted ascending by burden, plus the
//     median reference lines.
//   - error: ErrConfiguration for a field outside the allow-list,
//     ErrSchema for a missing column, ErrDataQuality when a measure cell
//     is non-numeric or negative. No partial result accompanies an error.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func ComputeGroupStats(tbl *dataset.Table, field GroupField, minOfficers int) (*GroupStats, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidInput)
	}

	groupCol := field.Column()
	if groupCol == "" {
		return nil, fmt.Errorf("%w: unrecognized group field %d", ErrConfiguration, int(field))
	}

	for _, label := range []string{groupCol, dataset.ColTaxID, dataset.ColTotalComplaints, dataset.ColTotalSubstantiated} {
		if !tbl.HasColumn(label) {
			return nil, fmt.Errorf("%w: %q", ErrSchema, label)
		}
	}

	totals, err := coerceMeasure(tbl, dataset.ColTotalComplaints)
	if err != nil {
		return nil, err
	}
	substantiated, err := coerceMeasure(tbl, dataset.ColTotalSubstantiated)
	if err != nil {
		return nil, err
	}

	keyIdx := tbl.ColumnIndex(groupCol)
	idIdx := tbl.ColumnIndex(dataset.ColTaxID)

	type aggregate struct {
		officers int
		total    float64
		subst    float64
	}
	byKey := make(map[string]*aggregate)
	var order []string

	for i := 0; i < tbl.NumRows(); i++ {
		key := tbl.At(i, keyIdx)
		agg, ok := byKey[key]
		if !ok {
			agg = &aggregate{}
			byKey[key] = agg
			order = append(order, key)
		}
		if strings.TrimSpace(tbl.At(i, idIdx)) != "" {
			agg.officers++
		}
		agg.total += totals[i]
		agg.subst += substantiated[i]
	}

	// Filtering builds a fresh slice; the raw aggregation above is left
	// untouched.
	groups := make([]GroupRecord, 0, len(order))
	for _, key := range order {
		agg := byKey[key]
		if agg.officers < minOfficers {
			continue
		}
		rec := GroupRecord{
			Key:                key,
			Officers:           agg.officers,
			TotalComplaints:    agg.total,
			TotalSubstantiated: agg.subst,
			AvgPerOfficer:      agg.total / float64(agg.officers),
		}
		if agg.total > 0 {
			rec.SubstPer100 = agg.subst / agg.total * 100
		} else {
			rec.SubstPer100 = math.NaN()
		}
		groups = append(groups, rec)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].AvgPerOfficer != groups[j].AvgPerOfficer {
			return groups[i].AvgPerOfficer < groups[j].AvgPerOfficer
		}
		return groups[i].Key < groups[j].Key
	})

	burdens := make([]float64, len(groups))
	intensities := make([]float64, len(groups))
	for i, g := range groups {
		burdens[i] = g.AvgPerOfficer
		intensities[i] = g.SubstPer100
	}

	return &GroupStats{
		Groups:              groups,
		Field:               field,
		MinOfficers:         minOfficers,
		MedianAvgPerOfficer: nanMedian(burdens),
		MedianSubstPer100:   nanMedian(intensities),
	}, nil
}

// coerceMeasure parses a measure column under the quality contract: every
// cell must be a finite, non-negative number. The first violation fails the
// whole call.
func coerceMeasure(tbl *dataset.Table, label string) ([]float64, error) {
	col := tbl.ColumnIndex(label)
	values := make([]float64, tbl.NumRows())
	for i := range values {
		cell := strings.TrimSpace(tbl.At(i, col))
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %q row %d holds non-numeric value %q",
				ErrDataQuality, label, i, cell)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: column %q row %d holds negative value %g",
				ErrDataQuality, label, i, v)
		}
		values[i] = v
	}
	return values, nil
}

// -----------------------------------------------------------------------------
// Bubble Sizing
// -----------------------------------------------------------------------------

// Bubble geometry for the risk-matrix scatter.
const (
	bubbleFloor = 20.0
	bubbleScale = 1800.0
)

// BubbleSizes maps group officer counts to plot bubble areas.
//
// The largest group maps to the maximum size and every group keeps a
// visible floor, so zero and near-zero groups remain on the chart. Sizing
// is monotone: more officers never yields a smaller bubble. When every
// count is zero all bubbles get the floor size.
func BubbleSizes(counts []int) []float64 {
	sizes := make([]float64, len(counts))
	var max int
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	if max == 0 {
		for i := range sizes {
			sizes[i] = bubbleFloor
		}
		return sizes
	}
	for i, c := range counts {
		sizes[i] = bubbleFloor + bubbleScale*float64(c)/float64(max)
	}
	return sizes
}
