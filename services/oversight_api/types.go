// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"time"

	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/AleutianAI/CivicLens/services/history"
	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/AleutianAI/CivicLens/services/snapshot"
	"github.com/AleutianAI/CivicLens/services/socrata"
)

// ServiceVersion is reported by /health.
const ServiceVersion = "0.1.0"

// defaultPrecinctTopN bounds the crime-count aggregation when the request
// does not say how many precincts to pull. NYC has 77 precincts, so 100
// covers the full city.
const defaultPrecinctTopN = 100

// defaultTrendDays is the trend window when ?days= is absent.
const defaultTrendDays = 90

// SnapshotLoader loads officer snapshots. Tests inject a fake; production
// wires *snapshot.Loader.
type SnapshotLoader interface {
	Load(ctx context.Context, opts snapshot.LoadOptions) (*snapshot.Snapshot, error)
}

// GroupCounter runs server-side group-count aggregations against the open
// data API. Tests inject a fake; production wires *socrata.Client.
type GroupCounter interface {
	FetchGroupCounts(ctx context.Context, datasetID string, spec socrata.GroupCountSpec) ([]socrata.GroupCount, error)
}

// TrendStore records and queries concentration summaries over time. Nil
// when history is not configured; production wires *history.Store.
type TrendStore interface {
	WriteSummary(ctx context.Context, sum history.Summary) error
	Trend(ctx context.Context, dataset string, days int) ([]history.TrendPoint, error)
}

// ErrorResponse is the uniform error envelope for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ConcentrationRequest asks for Lorenz curves, Gini coefficients, and
// top-percentile shares over an officer snapshot.
type ConcentrationRequest struct {
	// AsOfDate pins the snapshot day (YYYY-MM-DD). Empty means latest.
	AsOfDate string `json:"as_of_date"`

	// TopFractions overrides the default top-share fractions (0.01, 0.05).
	// Each must lie in (0, 1].
	TopFractions []float64 `json:"top_fractions"`

	// MaxRows caps the snapshot rows loaded. 0 means all rows.
	MaxRows int `json:"max_rows"`

	// Refresh bypasses the snapshot cache.
	Refresh bool `json:"refresh"`
}

// ConcentrationResponse carries the render-ready concentration view plus
// the snapshot it was computed from.
type ConcentrationResponse struct {
	SnapshotID string                    `json:"snapshot_id"`
	AsOfDate   string                    `json:"as_of_date"`
	Officers   int                       `json:"officers"`
	View       *report.ConcentrationView `json:"view"`
}

// GroupsRequest asks for the grouped risk-matrix analysis.
type GroupsRequest struct {
	// GroupBy selects the grouping column: "command" or "rank".
	GroupBy string `json:"group_by" binding:"required"`

	// MinOfficers drops groups smaller than this. Nil means the default
	// floor of 200; an explicit 0 disables filtering.
	MinOfficers *int `json:"min_officers"`

	// AnnotateTop flags the N highest-burden groups in the view.
	AnnotateTop int `json:"annotate_top"`

	// AsOfDate pins the snapshot day. Empty means latest.
	AsOfDate string `json:"as_of_date"`

	// MaxRows caps the snapshot rows loaded. 0 means all rows.
	MaxRows int `json:"max_rows"`
}

// GroupsResponse carries the risk-matrix view and the matching table.
type GroupsResponse struct {
	SnapshotID string                 `json:"snapshot_id"`
	AsOfDate   string                 `json:"as_of_date"`
	View       *report.RiskMatrixView `json:"view"`
	Table      *report.GroupTable     `json:"table"`
}

// PrecinctRequest asks for the misconduct/crime join by precinct.
type PrecinctRequest struct {
	// StartDate and EndDate bound the crime complaints (YYYY-MM-DD).
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`

	// Borough filters crime complaints, e.g. "BROOKLYN". Empty or "All"
	// means citywide.
	Borough string `json:"boro"`

	// OffenseLevel filters by law category, e.g. "FELONY". Empty or "All"
	// means every level.
	OffenseLevel string `json:"law_cat"`

	// TopN bounds the precinct aggregation. 0 means 100, which covers
	// all NYC precincts.
	TopN int `json:"top_n"`

	// AsOfDate pins the officer snapshot day. Empty means latest.
	AsOfDate string `json:"as_of_date"`

	// MaxRows caps the snapshot rows loaded. 0 means all rows.
	MaxRows int `json:"max_rows"`
}

// PrecinctResponse lists precincts present in both datasets, ascending by
// precinct number.
type PrecinctResponse struct {
	SnapshotID string                    `json:"snapshot_id"`
	AsOfDate   string                    `json:"as_of_date"`
	StartDate  string                    `json:"start_date"`
	EndDate    string                    `json:"end_date"`
	Precincts  []analytics.PrecinctCrime `json:"precincts"`
}

// RefreshRequest forces a fresh snapshot pull.
type RefreshRequest struct {
	AsOfDate string `json:"as_of_date"`
	MaxRows  int    `json:"max_rows"`
}

// SnapshotSummary describes a loaded snapshot without its rows.
type SnapshotSummary struct {
	SnapshotID string    `json:"snapshot_id"`
	AsOfDate   string    `json:"as_of_date"`
	FetchedAt  time.Time `json:"fetched_at"`
	Rows       int       `json:"rows"`
	Columns    []string  `json:"columns"`
}

// TrendResponse carries the concentration trend view.
type TrendResponse struct {
	Dataset string            `json:"dataset"`
	View    *report.TrendView `json:"view"`
}
