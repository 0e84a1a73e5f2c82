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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrSchemaViolation is returned when a snapshot row fails validation.
var ErrSchemaViolation = errors.New("snapshot failed schema validation")

// MaxComplaintCount caps the plausible per-officer complaint totals. Values
// above it indicate a broken upstream export rather than a busy officer.
const MaxComplaintCount = 1000

// snapshotValidate is the validator instance for snapshot rows.
// Initialized in init() with custom validators.
var snapshotValidate *validator.Validate

func init() {
	snapshotValidate = validator.New()
	_ = snapshotValidate.RegisterValidation("notfuture", validateNotFuture)
}

// validateNotFuture rejects snapshot dates after today. The field must
// already be a YYYY-MM-DD string.
func validateNotFuture(fl validator.FieldLevel) bool {
	t, err := time.Parse("2006-01-02", fl.Field().String())
	if err != nil {
		return false
	}
	return !t.After(time.Now())
}

// officerRow is the per-row validation view of the officer snapshot.
type officerRow struct {
	AsOfDate           string `validate:"required,datetime=2006-01-02,notfuture"`
	FirstName          string `validate:"max=100"`
	LastName           string `validate:"max=100"`
	Race               string `validate:"required"`
	Gender             string `validate:"required"`
	Rank               string `validate:"required"`
	Command            string `validate:"required"`
	TotalComplaints    int    `validate:"gte=0,lte=1000"`
	TotalSubstantiated int    `validate:"gte=0,lte=1000,ltefield=TotalComplaints"`
}

// ValidateOfficerSnapshot checks a reshaped snapshot table row by row.
//
// This is the collaborator-level gate applied after ingest: dates must be
// real calendar days no later than today, the identity categoricals must be
// non-empty, complaint totals must be integers within plausible bounds, and
// substantiated totals can never exceed totals. The first failing row stops
// the scan. The analytics engines apply their own numeric contract on top
// of this; passing here does not exempt a table from re-coercion there.
func ValidateOfficerSnapshot(tbl *Table) error {
	if tbl == nil {
		return fmt.Errorf("%w: nil table", ErrSchemaViolation)
	}
	for _, col := range OfficerSnapshotColumns {
		if !tbl.HasColumn(col.Label) {
			return fmt.Errorf("%w: %q", ErrNoColumn, col.Label)
		}
	}

	for i := 0; i < tbl.NumRows(); i++ {
		row, err := snapshotRow(tbl, i)
		if err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrSchemaViolation, i, err)
		}
		if err := snapshotValidate.Struct(row); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrSchemaViolation, i, err)
		}
	}
	return nil
}

// snapshotRow extracts the validated fields of one table row.
func snapshotRow(tbl *Table, i int) (*officerRow, error) {
	total, err := strconv.Atoi(tbl.Cell(i, ColTotalComplaints))
	if err != nil {
		return nil, fmt.Errorf("%s is not an integer: %q", ColTotalComplaints, tbl.Cell(i, ColTotalComplaints))
	}
	subst, err := strconv.Atoi(tbl.Cell(i, ColTotalSubstantiated))
	if err != nil {
		return nil, fmt.Errorf("%s is not an integer: %q", ColTotalSubstantiated, tbl.Cell(i, ColTotalSubstantiated))
	}

	return &officerRow{
		AsOfDate:           tbl.Cell(i, ColAsOfDate),
		FirstName:          tbl.Cell(i, ColFirstName),
		LastName:           tbl.Cell(i, ColLastName),
		Race:               tbl.Cell(i, ColRace),
		Gender:             tbl.Cell(i, ColGender),
		Rank:               tbl.Cell(i, ColRank),
		Command:            tbl.Cell(i, ColCommand),
		TotalComplaints:    total,
		TotalSubstantiated: subst,
	}, nil
}

// crimeRow is the validation view of one precinct crime aggregate.
type crimeRow struct {
	Precinct int     `validate:"gte=1,lte=200"`
	Count    float64 `validate:"gte=0"`
}

// ValidateCrimeCounts checks precinct crime aggregates against the safe
// bounds for NYC precinct numbers: precincts run 1 through 200 and counts
// are non-negative.
func ValidateCrimeCounts(counts map[int]float64) error {
	for precinct, count := range counts {
		row := crimeRow{Precinct: precinct, Count: count}
		if err := snapshotValidate.Struct(row); err != nil {
			return fmt.Errorf("%w: precinct %d: %v", ErrSchemaViolation, precinct, err)
		}
	}
	return nil
}
