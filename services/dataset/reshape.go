// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// asOfDateLayouts are the timestamp shapes the open-data API returns for
// floating timestamps, most specific first.
var asOfDateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReshapeOfficerSnapshot converts raw Socrata records into the canonical
// officer table.
//
// This is the ingest cleaning pass, applied once per fetch:
//   - As Of Date is truncated to YYYY-MM-DD; unparseable dates become "".
//   - The complaint count columns are coerced to integer strings; missing
//     or unparseable cells become "0".
//   - Missing command, rank, race, and gender cells are filled with
//     "Unknown". Present-but-empty strings are kept as-is.
//   - Every other column keeps its raw value, with missing cells as "".
//
// The analytics engines still re-coerce the measure columns themselves;
// this pass exists so a freshly fetched snapshot is immediately usable, not
// to relax the engines' quality contract.
func ReshapeOfficerSnapshot(records []map[string]any) *Table {
	numeric := make(map[string]bool, len(NumericColumns))
	for _, label := range NumericColumns {
		numeric[label] = true
	}
	categorical := make(map[string]bool, len(CategoricalFillColumns))
	for _, label := range CategoricalFillColumns {
		categorical[label] = true
	}

	tbl := NewTable(OfficerSnapshotColumns)
	for _, rec := range records {
		cells := make([]string, len(OfficerSnapshotColumns))
		for i, col := range OfficerSnapshotColumns {
			v, present := rec[col.APIName]
			switch {
			case col.Label == ColAsOfDate:
				cells[i] = truncateDate(cellString(v))
			case numeric[col.Label]:
				cells[i] = coerceCount(v)
			case categorical[col.Label] && (!present || v == nil):
				cells[i] = "Unknown"
			default:
				cells[i] = cellString(v)
			}
		}
		// Width always matches the layout built above.
		_ = tbl.AppendRow(cells)
	}
	return tbl
}

// truncateDate reduces a timestamp string to YYYY-MM-DD. Unparseable input
// yields "".
func truncateDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range asOfDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// coerceCount renders a raw count cell as an integer string, defaulting to
// "0" for anything that does not parse as a finite number.
func coerceCount(v any) string {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return "0"
		}
		f = parsed
	default:
		return "0"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatInt(int64(f), 10)
}

// cellString renders a decoded JSON value as a cell.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
