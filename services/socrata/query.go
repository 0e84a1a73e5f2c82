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
	"net/url"
	"strconv"
	"strings"
)

// Query assembles the SoQL parameters for one resource request. Zero-valued
// fields are omitted from the encoded form, so the zero Query fetches the
// resource defaults.
//
// Callers are responsible for validating anything interpolated into Select,
// Where, Group, or Order; see pkg/validation.
type Query struct {
	Select string   // $select projection, e.g. "tax_id, total_complaints"
	Where  []string // $where conjuncts, joined with AND
	Group  string   // $group field
	Order  string   // $order clause
	Limit  int      // $limit row cap
	Offset int      // $offset for pagination
}

// Values encodes the query as SODA request parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Select != "" {
		v.Set("$select", q.Select)
	}
	if len(q.Where) > 0 {
		v.Set("$where", strings.Join(q.Where, " AND "))
	}
	if q.Group != "" {
		v.Set("$group", q.Group)
	}
	if q.Order != "" {
		v.Set("$order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("$limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("$offset", strconv.Itoa(q.Offset))
	}
	return v
}
