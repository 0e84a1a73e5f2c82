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

// Column describes one table column: the upstream Socrata field name and
// the display label used everywhere inside CivicLens.
type Column struct {
	// APIName is the field name on the open-data API, e.g. "tax_id".
	APIName string `json:"api_name"`

	// Label is the display label, e.g. "Tax ID". Labels are the lookup key
	// for every Table accessor.
	Label string `json:"label"`
}

// Display labels of the officer-snapshot columns.
const (
	ColAsOfDate           = "As Of Date"
	ColTaxID              = "Tax ID"
	ColActiveStatus       = "Active Per Last Reported Status"
	ColLastActiveDate     = "Last Reported Active Date"
	ColFirstName          = "Officer First Name"
	ColLastName           = "Officer Last Name"
	ColRace               = "Officer Race"
	ColGender             = "Officer Gender"
	ColRankAbbrev         = "Current Rank Abbreviation"
	ColRank               = "Current Rank"
	ColCommand            = "Current Command"
	ColShieldNo           = "Shield No"
	ColTotalComplaints    = "Total Complaints"
	ColTotalSubstantiated = "Total Substantiated Complaints"
)

// OfficerSnapshotColumns is the full column layout of the CCRB officer
// snapshot (dataset 2fir-qns4), in ingest order.
var OfficerSnapshotColumns = []Column{
	{APIName: "as_of_date", Label: ColAsOfDate},
	{APIName: "tax_id", Label: ColTaxID},
	{APIName: "active_per_last_reported_status", Label: ColActiveStatus},
	{APIName: "last_reported_active_date", Label: ColLastActiveDate},
	{APIName: "officer_first_name", Label: ColFirstName},
	{APIName: "officer_last_name", Label: ColLastName},
	{APIName: "officer_race", Label: ColRace},
	{APIName: "officer_gender", Label: ColGender},
	{APIName: "current_rank_abbreviation", Label: ColRankAbbrev},
	{APIName: "current_rank", Label: ColRank},
	{APIName: "current_command", Label: ColCommand},
	{APIName: "shield_no", Label: ColShieldNo},
	{APIName: "total_complaints", Label: ColTotalComplaints},
	{APIName: "total_substantiated_complaints", Label: ColTotalSubstantiated},
}

// NumericColumns lists the labels reshaped to integer strings at ingest.
var NumericColumns = []string{ColTotalComplaints, ColTotalSubstantiated}

// CategoricalFillColumns lists the labels whose empty cells are filled with
// "Unknown" at ingest.
var CategoricalFillColumns = []string{ColCommand, ColRank, ColRace, ColGender}

// APIFieldNames returns the Socrata field names of the officer snapshot in
// ingest order, for use in a $select clause.
func APIFieldNames() []string {
	names := make([]string, len(OfficerSnapshotColumns))
	for i, c := range OfficerSnapshotColumns {
		names[i] = c.APIName
	}
	return names
}
