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
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AleutianAI/CivicLens/services/analytics"
)

// GroupStatsFileName returns the download file name for a group stats
// CSV, e.g. "rq2_group_stats_current_command.csv".
func GroupStatsFileName(field analytics.GroupField) string {
	col := strings.ToLower(strings.ReplaceAll(field.String(), " ", "_"))
	return fmt.Sprintf("rq2_group_stats_%s.csv", col)
}

// SnapshotFileName returns the download file name for a raw officer
// snapshot CSV. An empty date means the snapshot was not day-filtered.
func SnapshotFileName(asOfDate string) string {
	if asOfDate == "" {
		asOfDate = "all"
	}
	return fmt.Sprintf("ccrb_officer_snapshot_%s.csv", asOfDate)
}

// GroupStatsCSV encodes the retained groups as CSV bytes in ascending
// burden order, matching the table the view was built from. Undefined
// ratios encode as empty cells, the convention spreadsheet tools read as
// missing.
func GroupStatsCSV(stats *analytics.GroupStats) ([]byte, error) {
	if stats == nil {
		return nil, fmt.Errorf("%w: group stats are nil", analytics.ErrInvalidInput)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		stats.Field.String(),
		"officers",
		"total_complaints",
		"total_substantiated",
		"avg_complaints_per_officer",
		"substantiated_per_100_complaints",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, g := range stats.Groups {
		rec := []string{
			g.Key,
			strconv.Itoa(g.Officers),
			formatMeasure(g.TotalComplaints),
			formatMeasure(g.TotalSubstantiated),
			csvRatio(g.AvgPerOfficer),
			csvRatio(g.SubstPer100),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// csvRatio renders a ratio for CSV export, empty when undefined.
func csvRatio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
