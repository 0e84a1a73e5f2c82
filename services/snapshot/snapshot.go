// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package snapshot loads officer-misconduct snapshots from the open-data
// API, validates them, and caches the reshaped table locally so repeated
// analyses do not refetch fifty thousand rows per question.
package snapshot

import (
	"time"

	"github.com/AleutianAI/CivicLens/services/dataset"
)

// Snapshot is one loaded day of the officer dataset.
type Snapshot struct {
	// ID uniquely identifies this load. Cached snapshots keep the ID they
	// were stored under.
	ID string `json:"id"`

	// AsOfDate is the snapshot day (YYYY-MM-DD), or "" when the dataset
	// reported no as_of_date and the whole resource was loaded.
	AsOfDate string `json:"as_of_date"`

	// FetchedAt records when the rows were pulled from the API.
	FetchedAt time.Time `json:"fetched_at"`

	// Rows is the loaded row count, after any row cap.
	Rows int `json:"rows"`

	// Table holds the reshaped, validated officer rows.
	Table *dataset.Table `json:"table"`
}
