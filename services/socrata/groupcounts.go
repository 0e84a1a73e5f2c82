// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package socrata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/CivicLens/pkg/validation"
)

// GroupCount is one row of a server-side grouped count.
type GroupCount struct {
	Key   string  `json:"key"`
	Count float64 `json:"count"`
}

// GroupCountSpec describes a grouped count over the crime dataset:
//
//	SELECT group_field, count(*) AS crime_count
//	WHERE group_field IS NOT NULL (+ optional filters)
//	GROUP BY group_field
//	ORDER BY crime_count DESC
//	LIMIT top_n
type GroupCountSpec struct {
	// GroupField is the aggregation key, e.g. "addr_pct_cd" or "boro_nm".
	GroupField string

	// TopN caps the number of groups returned.
	TopN int

	// StartDate, when set, bounds rpt_dt from below (inclusive, YYYY-MM-DD).
	StartDate string

	// EndDate, when set, bounds rpt_dt from above (exclusive, YYYY-MM-DD).
	EndDate string

	// Borough filters on boro_nm. Empty or "All" disables the filter.
	Borough string

	// OffenseLevel filters on law_cat_cd. Empty or "All" disables the filter.
	OffenseLevel string
}

// FetchGroupCounts runs the aggregation described by spec against a dataset.
// Every user-supplied fragment is validated before it reaches a SoQL clause.
func (c *Client) FetchGroupCounts(ctx context.Context, datasetID string, spec GroupCountSpec) ([]GroupCount, error) {
	if err := validation.ValidateFieldName(spec.GroupField); err != nil {
		return nil, fmt.Errorf("group field: %w", err)
	}
	if spec.TopN <= 0 {
		return nil, fmt.Errorf("top n must be positive, got %d", spec.TopN)
	}

	where := []string{fmt.Sprintf("%s IS NOT NULL", spec.GroupField)}

	if spec.StartDate != "" {
		if err := validation.ValidateDate(spec.StartDate); err != nil {
			return nil, fmt.Errorf("start date: %w", err)
		}
		where = append(where, fmt.Sprintf("rpt_dt >= '%sT00:00:00.000'", spec.StartDate))
	}
	if spec.EndDate != "" {
		if err := validation.ValidateDate(spec.EndDate); err != nil {
			return nil, fmt.Errorf("end date: %w", err)
		}
		where = append(where, fmt.Sprintf("rpt_dt < '%sT00:00:00.000'", spec.EndDate))
	}

	if spec.Borough != "" && spec.Borough != "All" {
		boro, err := validation.SanitizeFilterValue(spec.Borough)
		if err != nil {
			return nil, fmt.Errorf("borough: %w", err)
		}
		where = append(where, fmt.Sprintf("boro_nm = '%s'", boro))
	}
	if spec.OffenseLevel != "" && spec.OffenseLevel != "All" {
		level, err := validation.SanitizeFilterValue(spec.OffenseLevel)
		if err != nil {
			return nil, fmt.Errorf("offense level: %w", err)
		}
		where = append(where, fmt.Sprintf("law_cat_cd = '%s'", level))
	}

	q := Query{
		Select: fmt.Sprintf("%s, count(*) as crime_count", spec.GroupField),
		Where:  where,
		Group:  spec.GroupField,
		Order:  "crime_count DESC",
		Limit:  spec.TopN,
	}

	rows, err := c.FetchRows(ctx, datasetID, q)
	if err != nil {
		return nil, err
	}

	counts := make([]GroupCount, 0, len(rows))
	for _, row := range rows {
		key := stringField(row, spec.GroupField)
		if key == "" {
			continue
		}
		n, err := numericField(row, "crime_count")
		if err != nil {
			return nil, err
		}
		counts = append(counts, GroupCount{Key: key, Count: n})
	}
	return counts, nil
}

// PrecinctCounts converts grouped counts keyed by precinct code into the
// numeric map the precinct analysis consumes. Keys that do not parse as
// precinct numbers are dropped.
func PrecinctCounts(counts []GroupCount) map[int]float64 {
	out := make(map[int]float64, len(counts))
	for _, gc := range counts {
		f, err := strconv.ParseFloat(strings.TrimSpace(gc.Key), 64)
		if err != nil {
			continue
		}
		out[int(f)] = gc.Count
	}
	return out
}

// stringField reads a response cell as a string. SODA serializes most cells
// as JSON strings but number columns can arrive as JSON numbers.
func stringField(row map[string]any, field string) string {
	switch v := row[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func numericField(row map[string]any, field string) (float64, error) {
	switch v := row[field].(type) {
	case float64:
		return v, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s value %q: %w", field, v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("response row is missing %s", field)
	}
}
