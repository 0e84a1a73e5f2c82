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
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/CivicLens/services/dataset"
)

// precinctPattern matches command strings like "113 PCT" or "010 PCT".
var precinctPattern = regexp.MustCompile(`(\d+)\s*PCT`)

// PrecinctCount is the volume measure summed over one precinct.
type PrecinctCount struct {
	Precinct   int     `json:"precinct"`
	Complaints float64 `json:"allegation_count"`
}

// PrecinctCrime joins a precinct's complaint total with its crime count.
type PrecinctCrime struct {
	Precinct   int     `json:"precinct"`
	Complaints float64 `json:"allegation_count"`
	Crimes     float64 `json:"crime_count"`
}

// ExtractPrecinct parses the precinct number out of a command string.
// Returns false when the string carries no precinct.
func ExtractPrecinct(command string) (int, bool) {
	m := precinctPattern.FindStringSubmatch(strings.TrimSpace(command))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MisconductByPrecinct sums total complaints per precinct extracted from
// the command column, sorted ascending by precinct.
//
// Rows whose command carries no precinct are dropped, and complaint cells
// that fail to parse count as zero. This helper feeds the cross-dataset
// precinct comparison, where precinct commands are a subset of all commands
// and the strict quality contract of ComputeGroupStats does not apply.
func MisconductByPrecinct(tbl *dataset.Table) ([]PrecinctCount, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidInput)
	}
	for _, label := range []string{dataset.ColCommand, dataset.ColTotalComplaints} {
		if !tbl.HasColumn(label) {
			return nil, fmt.Errorf("%w: %q", ErrSchema, label)
		}
	}

	cmdIdx := tbl.ColumnIndex(dataset.ColCommand)
	totalIdx := tbl.ColumnIndex(dataset.ColTotalComplaints)

	sums := make(map[int]float64)
	for i := 0; i < tbl.NumRows(); i++ {
		pct, ok := ExtractPrecinct(tbl.At(i, cmdIdx))
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(tbl.At(i, totalIdx)), 64)
		if err != nil {
			v = 0
		}
		sums[pct] += v
	}

	out := make([]PrecinctCount, 0, len(sums))
	for pct, total := range sums {
		out = append(out, PrecinctCount{Precinct: pct, Complaints: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Precinct < out[j].Precinct })
	return out, nil
}

// MergeCrime inner-joins misconduct totals with crime counts keyed by
// precinct, sorted ascending by precinct. Precincts present on only one
// side are dropped.
func MergeCrime(misconduct []PrecinctCount, crimes map[int]float64) []PrecinctCrime {
	out := make([]PrecinctCrime, 0, len(misconduct))
	for _, m := range misconduct {
		c, ok := crimes[m.Precinct]
		if !ok {
			continue
		}
		out = append(out, PrecinctCrime{
			Precinct:   m.Precinct,
			Complaints: m.Complaints,
			Crimes:     c,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Precinct < out[j].Precinct })
	return out
}
