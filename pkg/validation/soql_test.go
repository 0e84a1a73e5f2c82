// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"testing"
)

func TestValidateFieldName(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		wantErr bool
	}{
		// Valid field names
		{"simple", "boro_nm", false},
		{"single char", "x", false},
		{"with digit", "addr_pct_cd", false},
		{"long field", "total_substantiated_complaints", false},

		// Invalid field names - injection attempts
		{"empty", "", true},
		{"soql injection", "boro_nm) OR (1=1", true},
		{"sql injection", "boro_nm'; DROP TABLE--", true},
		{"newline injection", "boro_nm\n$where=1=1", true},
		{"uppercase", "BORO_NM", true},
		{"starts with digit", "1boro", true},
		{"starts with underscore", "_boro", true},
		{"spaces", "boro nm", true},
		{"dollar sign", "$select", true},
		{"too long", "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijabcdefghijabcde", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldName(tt.field)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFieldName(%q) error = %v, wantErr %v", tt.field, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFieldNames(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		wantErr bool
	}{
		{"all valid", []string{"boro_nm", "law_cat_cd", "rpt_dt"}, false},
		{"one invalid", []string{"boro_nm", "BAD!", "rpt_dt"}, true},
		{"all invalid", []string{"BORO", "$where"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldNames(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFieldNames(%v) error = %v, wantErr %v", tt.fields, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{"valid date", "2023-05-01", false},
		{"leap day", "2020-02-29", false},
		{"empty", "", true},
		{"not a leap year", "2021-02-29", true},
		{"month out of range", "2023-13-01", true},
		{"wrong format", "05/01/2023", true},
		{"injection attempt", "2023-05-01' OR '1'='1", true},
		{"timestamp not date", "2023-05-01T00:00:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDatasetID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"officer dataset", "2fir-qns4", false},
		{"crime dataset", "qgea-i56i", false},
		{"empty", "", true},
		{"missing hyphen", "2firqns4", true},
		{"uppercase", "2FIR-QNS4", true},
		{"too long", "2fir-qns42", true},
		{"path traversal", "../admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatasetID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDatasetID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilterValue(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"uppercase passthrough", "BRONX", "BRONX", false},
		{"lowercase normalized", "bronx", "BRONX", false},
		{"two words", "staten island", "STATEN ISLAND", false},
		{"with spaces trimmed", "  FELONY  ", "FELONY", false},
		{"empty rejected", "", "", true},
		{"quote rejected", "BRONX' OR '1'='1", "", true},
		{"semicolon rejected", "BRONX;", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilterValue(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeFilterValue(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SanitizeFilterValue(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
