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

import "testing"

// officerRecord returns a complete raw API record for reshape tests.
func officerRecord() map[string]any {
	return map[string]any{
		"as_of_date":                      "2023-05-01T00:00:00.000",
		"tax_id":                          "900001",
		"active_per_last_reported_status": "Active",
		"last_reported_active_date":       "2023-04-30T00:00:00.000",
		"officer_first_name":              "JANE",
		"officer_last_name":               "DOE",
		"officer_race":                    "Asian",
		"officer_gender":                  "Female",
		"current_rank_abbreviation":       "POM",
		"current_rank":                    "Police Officer",
		"current_command":                 "113 PCT",
		"shield_no":                       "12345",
		"total_complaints":                "5",
		"total_substantiated_complaints":  "2",
	}
}

func TestReshapeOfficerSnapshot_Basic(t *testing.T) {
	tbl := ReshapeOfficerSnapshot([]map[string]any{officerRecord()})

	if tbl.NumRows() != 1 || tbl.NumCols() != len(OfficerSnapshotColumns) {
		t.Fatalf("expected 1x%d table, got %dx%d",
			len(OfficerSnapshotColumns), tbl.NumRows(), tbl.NumCols())
	}

	if got := tbl.Cell(0, ColAsOfDate); got != "2023-05-01" {
		t.Errorf("expected truncated date 2023-05-01, got %q", got)
	}
	if got := tbl.Cell(0, ColTaxID); got != "900001" {
		t.Errorf("expected tax id 900001, got %q", got)
	}
	if got := tbl.Cell(0, ColTotalComplaints); got != "5" {
		t.Errorf("expected 5 complaints, got %q", got)
	}
	if got := tbl.Cell(0, ColCommand); got != "113 PCT" {
		t.Errorf("expected command 113 PCT, got %q", got)
	}
}

func TestReshapeOfficerSnapshot_NumericCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want string
	}{
		{"integer string", "7", "7"},
		{"decimal string", "7.0", "7"},
		{"json number", float64(7), "7"},
		{"missing", nil, "0"},
		{"unparseable", "n/a", "0"},
		{"whitespace", "  ", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := officerRecord()
			if tc.raw == nil {
				delete(rec, "total_complaints")
			} else {
				rec["total_complaints"] = tc.raw
			}
			tbl := ReshapeOfficerSnapshot([]map[string]any{rec})
			if got := tbl.Cell(0, ColTotalComplaints); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestReshapeOfficerSnapshot_CategoricalFill(t *testing.T) {
	rec := officerRecord()
	delete(rec, "current_command")
	rec["officer_race"] = nil
	rec["officer_gender"] = ""

	tbl := ReshapeOfficerSnapshot([]map[string]any{rec})

	if got := tbl.Cell(0, ColCommand); got != "Unknown" {
		t.Errorf("expected missing command filled with Unknown, got %q", got)
	}
	if got := tbl.Cell(0, ColRace); got != "Unknown" {
		t.Errorf("expected null race filled with Unknown, got %q", got)
	}
	// A present empty string is not a null; it stays empty.
	if got := tbl.Cell(0, ColGender); got != "" {
		t.Errorf("expected empty gender kept, got %q", got)
	}
}

func TestReshapeOfficerSnapshot_BadDate(t *testing.T) {
	rec := officerRecord()
	rec["as_of_date"] = "sometime in May"

	tbl := ReshapeOfficerSnapshot([]map[string]any{rec})
	if got := tbl.Cell(0, ColAsOfDate); got != "" {
		t.Errorf("expected unparseable date to become empty, got %q", got)
	}
}

func TestReshapeOfficerSnapshot_MissingOtherColumns(t *testing.T) {
	rec := officerRecord()
	delete(rec, "shield_no")

	tbl := ReshapeOfficerSnapshot([]map[string]any{rec})
	if got := tbl.Cell(0, ColShieldNo); got != "" {
		t.Errorf("expected missing shield number to become empty, got %q", got)
	}
}

func TestReshapeOfficerSnapshot_NoRecords(t *testing.T) {
	tbl := ReshapeOfficerSnapshot(nil)
	if !tbl.IsEmpty() {
		t.Errorf("expected empty table")
	}
	if tbl.NumCols() != len(OfficerSnapshotColumns) {
		t.Errorf("expected full column layout on empty table, got %d columns", tbl.NumCols())
	}
}
