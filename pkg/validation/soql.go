// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are
// interpolated into SoQL queries against the open-data API. Using these
// validators prevents injection through field names, date literals, and
// filter values.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// fieldPattern matches valid Socrata API field names.
// Allows: lowercase letters, digits, underscores; must start with a letter.
// Max length: 64 characters.
var fieldPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// datasetIDPattern matches Socrata "4x4" dataset identifiers like 2fir-qns4.
var datasetIDPattern = regexp.MustCompile(`^[a-z0-9]{4}-[a-z0-9]{4}$`)

// filterValuePattern matches categorical filter literals like BRONX or
// STATEN ISLAND. Allows: uppercase letters, digits, spaces, hyphens.
// Max length: 40 characters. Quotes are excluded so a literal can never
// terminate the surrounding SoQL string.
var filterValuePattern = regexp.MustCompile(`^[A-Z][A-Z0-9 \-]{0,39}$`)

// ValidateFieldName validates an API field name before it is interpolated
// into a $select, $where, or $group clause.
//
// Valid field names:
//   - 1-64 characters
//   - Lowercase letters a-z and digits 0-9
//   - Underscores for word separation
//   - Must start with a letter
//
// Returns an error if the field name is invalid.
//
// Example:
//
//	if err := validation.ValidateFieldName(col); err != nil {
//	    return nil, fmt.Errorf("invalid field: %w", err)
//	}
//	// Safe to use in a SoQL clause
func ValidateFieldName(field string) error {
	if field == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("invalid field name: %q (must be 1-64 lowercase alphanumeric chars or underscores, starting with a letter)", field)
	}

	return nil
}

// ValidateFieldNames validates multiple API field names.
// Returns an error listing all invalid names if any fail validation.
func ValidateFieldNames(fields []string) error {
	var invalid []string
	for _, f := range fields {
		if err := ValidateFieldName(f); err != nil {
			invalid = append(invalid, f)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid field names: %v", invalid)
	}
	return nil
}

// ValidateDate validates a YYYY-MM-DD date literal before it is embedded
// in a $where clause. The string must be a real calendar date, which rules
// out both malformed input and quote-smuggling.
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date cannot be empty")
	}

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date: %q (must be YYYY-MM-DD)", date)
	}

	return nil
}

// ValidateDatasetID validates a Socrata dataset identifier (the "4x4",
// e.g. 2fir-qns4) before it is used to build a resource URL.
func ValidateDatasetID(id string) error {
	if id == "" {
		return fmt.Errorf("dataset id cannot be empty")
	}

	if !datasetIDPattern.MatchString(id) {
		return fmt.Errorf("invalid dataset id: %q (must match xxxx-xxxx)", id)
	}

	return nil
}

// SanitizeFilterValue normalizes and validates a categorical filter literal
// such as a borough or offense level. Returns the uppercase value if valid,
// or an error if invalid.
//
// Use this when a user-chosen value lands inside single quotes in a $where
// clause:
//
//	safe, err := validation.SanitizeFilterValue(boro)
//	if err != nil {
//	    return err
//	}
//	// safe is uppercase, quote-free, and validated
func SanitizeFilterValue(value string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return "", fmt.Errorf("filter value cannot be empty")
	}

	if !filterValuePattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid filter value: %q (must be 1-40 uppercase alphanumeric chars, spaces, or hyphens)", value)
	}

	return normalized, nil
}
