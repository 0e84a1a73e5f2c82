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
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/CivicLens/pkg/validation"
	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/AleutianAI/CivicLens/services/dataset"
	"github.com/AleutianAI/CivicLens/services/history"
	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/AleutianAI/CivicLens/services/snapshot"
	"github.com/AleutianAI/CivicLens/services/socrata"
)

// Server holds the handler dependencies for the oversight API.
type Server struct {
	// Loader is required.
	Loader SnapshotLoader

	// Counts is required for the precinct analysis.
	Counts GroupCounter

	// History is optional; nil disables /v1/trend and summary recording.
	History TrendStore

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

const requestIDKey = "request_id"

// requestIDMiddleware tags every request with an ID for log correlation.
// An incoming X-Request-ID header is honored so callers can stitch their
// own traces together; otherwise a UUID is generated. The ID is echoed
// back in the response headers either way.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// requestIDFrom returns the request ID set by requestIDMiddleware, minting
// one when the middleware did not run (direct handler calls in tests).
func requestIDFrom(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// errorCode classifies a domain error into the wire-contract code: bad
// requests and disallowed groupings are INVALID_REQUEST, schema and
// numeric-coercion failures SCHEMA_VIOLATION and DATA_QUALITY, empty
// results NO_DATA, and open-data transport failures UPSTREAM_ERROR.
func errorCode(err error) string {
	var statusErr *socrata.StatusError
	var urlErr *url.Error
	switch {
	case errors.Is(err, analytics.ErrInvalidInput), errors.Is(err, analytics.ErrConfiguration):
		return "INVALID_REQUEST"
	case errors.Is(err, analytics.ErrSchema), errors.Is(err, dataset.ErrSchemaViolation):
		return "SCHEMA_VIOLATION"
	case errors.Is(err, analytics.ErrDataQuality):
		return "DATA_QUALITY"
	case errors.Is(err, report.ErrEmpty):
		return "NO_DATA"
	case errors.As(err, &statusErr), errors.As(err, &urlErr):
		return "UPSTREAM_ERROR"
	default:
		return "INTERNAL"
	}
}

// writeError maps a domain error onto the HTTP contract: INVALID_REQUEST
// is 400, SCHEMA_VIOLATION and DATA_QUALITY 422, NO_DATA 404,
// UPSTREAM_ERROR 502, and anything else 500.
func (s *Server) writeError(c *gin.Context, logger *slog.Logger, err error) {
	switch code := errorCode(err); code {
	case "INVALID_REQUEST":
		logger.Warn("Rejected invalid analysis request", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
	case "SCHEMA_VIOLATION":
		logger.Error("Snapshot failed schema validation", "error", err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
	case "DATA_QUALITY":
		logger.Error("Snapshot failed numeric coercion", "error", err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
	case "NO_DATA":
		logger.Info("Analysis produced no data", "error", err)
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
	case "UPSTREAM_ERROR":
		logger.Error("Upstream open data request failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Open data request failed",
			Code:    code,
			Details: err.Error(),
		})
	default:
		logger.Error("Analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal error",
			Code:    code,
			Details: err.Error(),
		})
	}
}

// loadSnapshot runs a load and keeps the fetch metrics honest: a load
// that never reaches the probe stage was answered from the cache.
func (s *Server) loadSnapshot(ctx context.Context, opts snapshot.LoadOptions) (*snapshot.Snapshot, error) {
	probed := false
	caller := opts.OnProgress
	opts.OnProgress = func(p snapshot.Progress) {
		if p.Stage == snapshot.StageProbe {
			probed = true
		}
		if caller != nil {
			caller(p)
		}
	}

	snap, err := s.Loader.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	if probed {
		recordFetchRows(snap.Rows)
	} else {
		recordCacheHit()
	}
	return snap, nil
}

// measureColumns extracts the two complaint measures every analysis rests
// on. The loader validates the schema, so a failure here is a data bug.
func measureColumns(tbl *dataset.Table) (total, substantiated []float64, err error) {
	total, err = tbl.NumericColumn(dataset.ColTotalComplaints)
	if err != nil {
		return nil, nil, err
	}
	substantiated, err = tbl.NumericColumn(dataset.ColTotalSubstantiated)
	if err != nil {
		return nil, nil, err
	}
	return total, substantiated, nil
}

// topShareFor picks the share for one fraction out of a report, for the
// history summary. Returns 0 when the fraction was not requested.
func topShareFor(rep *analytics.ConcentrationReport, fraction float64) float64 {
	for _, entry := range rep.TopShares {
		if entry.Fraction == fraction {
			return entry.Share
		}
	}
	return 0
}

// recordSummary pushes one concentration result into the history store.
// Failures are logged and swallowed; history is best-effort and must not
// fail the analysis that produced it.
func (s *Server) recordSummary(ctx context.Context, logger *slog.Logger, snap *snapshot.Snapshot, rep *analytics.ConcentrationReport, total []float64) {
	if s.History == nil {
		return
	}
	var sumComplaints float64
	for _, v := range total {
		sumComplaints += v
	}
	sum := history.Summary{
		Dataset:           socrata.OfficerDatasetID,
		AsOfDate:          snap.AsOfDate,
		SnapshotID:        snap.ID,
		GiniTotal:         rep.GiniTotal,
		GiniSubstantiated: rep.GiniSubstantiated,
		Top1Share:         topShareFor(rep, 0.01),
		Top5Share:         topShareFor(rep, 0.05),
		Officers:          snap.Rows,
		TotalComplaints:   sumComplaints,
	}
	if err := s.History.WriteSummary(ctx, sum); err != nil {
		logger.Warn("Failed to record concentration summary", "error", err)
	}
}

// handleConcentration handles POST /v1/analysis/concentration.
//
// Description:
//
//	Loads the requested officer snapshot, computes Lorenz curves, Gini
//	coefficients, and top-percentile shares for total and substantiated
//	complaints, and returns a render-ready view. When history is
//	configured the summary is also recorded for /v1/trend.
//
// Request Body:
//
//	{"as_of_date": "2023-05-01", "top_fractions": [0.01, 0.05],
//	 "max_rows": 0, "refresh": false}
//
// Response:
//
//	200 with a ConcentrationResponse, 404 when the snapshot has no rows,
//	400/422/502 per the error contract.
func (s *Server) handleConcentration(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger().With("request_id", requestID, "handler", "handleConcentration")

	var req ConcentrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if req.AsOfDate != "" {
		if err := validation.ValidateDate(req.AsOfDate); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid as_of_date",
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}

	start := time.Now()
	snap, err := s.loadSnapshot(c.Request.Context(), snapshot.LoadOptions{
		AsOfDate: req.AsOfDate,
		MaxRows:  req.MaxRows,
		Refresh:  req.Refresh,
	})
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	if snap.Rows == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Officer snapshot has no rows",
			Code:  "SNAPSHOT_EMPTY",
		})
		return
	}

	total, substantiated, err := measureColumns(snap.Table)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	rep, err := analytics.Concentration(total, substantiated, req.TopFractions)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	view, err := report.BuildConcentrationView(rep, snap.AsOfDate)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	recordAnalysisDuration("concentration", time.Since(start).Seconds())

	s.recordSummary(c.Request.Context(), logger, snap, rep, total)

	logger.Info("Concentration analysis complete",
		"snapshot_id", snap.ID,
		"officers", snap.Rows,
		"gini_total", rep.GiniTotal)
	c.JSON(http.StatusOK, ConcentrationResponse{
		SnapshotID: snap.ID,
		AsOfDate:   snap.AsOfDate,
		Officers:   snap.Rows,
		View:       view,
	})
}

// handleGroups handles POST /v1/analysis/groups.
//
// Description:
//
//	Loads the requested officer snapshot, aggregates complaint burden by
//	command or rank, filters out groups below the officer floor, and
//	returns the risk-matrix view plus the matching table.
//
// Request Body:
//
//	{"group_by": "command", "min_officers": 200, "annotate_top": 3,
//	 "as_of_date": "", "max_rows": 0}
//
// Response:
//
//	200 with a GroupsResponse, 404 when no group survives the floor,
//	400/422/502 per the error contract.
func (s *Server) handleGroups(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger().With("request_id", requestID, "handler", "handleGroups")

	var req GroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	field, err := analytics.ParseGroupField(req.GroupBy)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	if req.AsOfDate != "" {
		if err := validation.ValidateDate(req.AsOfDate); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid as_of_date",
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}
	minOfficers := analytics.DefaultMinOfficers
	if req.MinOfficers != nil {
		minOfficers = *req.MinOfficers
	}

	start := time.Now()
	snap, err := s.loadSnapshot(c.Request.Context(), snapshot.LoadOptions{
		AsOfDate: req.AsOfDate,
		MaxRows:  req.MaxRows,
	})
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	if snap.Rows == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Officer snapshot has no rows",
			Code:  "SNAPSHOT_EMPTY",
		})
		return
	}

	stats, err := analytics.ComputeGroupStats(snap.Table, field, minOfficers)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	view, err := report.BuildRiskMatrixView(stats, req.AnnotateTop)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	table, err := report.BuildGroupTable(stats)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	recordAnalysisDuration("groups", time.Since(start).Seconds())

	logger.Info("Group analysis complete",
		"snapshot_id", snap.ID,
		"group_by", field.String(),
		"groups", len(stats.Groups))
	c.JSON(http.StatusOK, GroupsResponse{
		SnapshotID: snap.ID,
		AsOfDate:   snap.AsOfDate,
		View:       view,
		Table:      table,
	})
}

// handlePrecinct handles POST /v1/analysis/precinct.
//
// Description:
//
//	Joins misconduct complaint counts per precinct, derived from the
//	officer snapshot's command assignments, with NYPD crime complaint
//	counts aggregated server-side over the requested date window. Only
//	precincts present in both datasets are returned.
//
// Request Body:
//
//	{"start_date": "2022-01-01", "end_date": "2022-12-31",
//	 "boro": "BROOKLYN", "law_cat": "FELONY", "top_n": 100}
//
// Response:
//
//	200 with a PrecinctResponse, 400 on bad dates or filter values,
//	404/422/502 per the error contract.
func (s *Server) handlePrecinct(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger().With("request_id", requestID, "handler", "handlePrecinct")

	var req PrecinctRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	dateChecks := []struct {
		name  string
		value string
	}{
		{"start_date", req.StartDate},
		{"end_date", req.EndDate},
	}
	for _, check := range dateChecks {
		if err := validation.ValidateDate(check.value); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid " + check.name,
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}
	filterChecks := []struct {
		name  string
		value string
	}{
		{"boro", req.Borough},
		{"law_cat", req.OffenseLevel},
	}
	for _, check := range filterChecks {
		if check.value == "" {
			continue
		}
		if _, err := validation.SanitizeFilterValue(check.value); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid " + check.name,
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}
	if req.AsOfDate != "" {
		if err := validation.ValidateDate(req.AsOfDate); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid as_of_date",
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}
	topN := req.TopN
	if topN <= 0 {
		topN = defaultPrecinctTopN
	}

	start := time.Now()
	snap, err := s.loadSnapshot(c.Request.Context(), snapshot.LoadOptions{
		AsOfDate: req.AsOfDate,
		MaxRows:  req.MaxRows,
	})
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	if snap.Rows == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Officer snapshot has no rows",
			Code:  "SNAPSHOT_EMPTY",
		})
		return
	}

	misconduct, err := analytics.MisconductByPrecinct(snap.Table)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	counts, err := s.Counts.FetchGroupCounts(c.Request.Context(), socrata.CrimeDatasetID, socrata.GroupCountSpec{
		GroupField:   "addr_pct_cd",
		TopN:         topN,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Borough:      req.Borough,
		OffenseLevel: req.OffenseLevel,
	})
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	merged := analytics.MergeCrime(misconduct, socrata.PrecinctCounts(counts))
	if len(merged) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No precincts matched in both datasets",
			Code:  "NO_DATA",
		})
		return
	}
	recordAnalysisDuration("precinct", time.Since(start).Seconds())

	logger.Info("Precinct analysis complete",
		"snapshot_id", snap.ID,
		"precincts", len(merged))
	c.JSON(http.StatusOK, PrecinctResponse{
		SnapshotID: snap.ID,
		AsOfDate:   snap.AsOfDate,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Precincts:  merged,
	})
}

// handleSnapshotLatest handles GET /v1/snapshot/latest.
//
// Description:
//
//	Loads the latest officer snapshot, cache permitting, and returns its
//	metadata without the rows.
//
// Response:
//
//	200 with a SnapshotSummary, 404 when the snapshot has no rows, 502
//	when the open data API is unreachable.
func (s *Server) handleSnapshotLatest(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger().With("request_id", requestID, "handler", "handleSnapshotLatest")

	snap, err := s.loadSnapshot(c.Request.Context(), snapshot.LoadOptions{})
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	if snap.Rows == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Officer snapshot has no rows",
			Code:  "SNAPSHOT_EMPTY",
		})
		return
	}
	c.JSON(http.StatusOK, snapshotSummary(snap))
}

// handleSnapshotRefresh handles POST /v1/snapshot/refresh.
//
// Description:
//
//	Bypasses the cache and pulls a fresh snapshot from the open data
//	API, then returns its metadata. The cache is repopulated as a side
//	effect, so later analysis calls hit the fresh copy.
//
// Request Body:
//
//	{"as_of_date": "", "max_rows": 0}
//
// Response:
//
//	200 with a SnapshotSummary, 400/404/422/502 per the error contract.
func (s *Server) handleSnapshotRefresh(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger().With("request_id", requestID, "handler", "handleSnapshotRefresh")

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if req.AsOfDate != "" {
		if err := validation.ValidateDate(req.AsOfDate); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid as_of_date",
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}

	snap, err := s.loadSnapshot(c.Request.Context(), snapshot.LoadOptions{
		AsOfDate: req.AsOfDate,
		MaxRows:  req.MaxRows,
		Refresh:  true,
	})
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	logger.Info("Snapshot refreshed", "snapshot_id", snap.ID, "rows", snap.Rows)
	c.JSON(http.StatusOK, snapshotSummary(snap))
}

// handleTrend handles GET /v1/trend.
//
// Description:
//
//	Returns the recorded concentration summaries for the officer dataset
//	over the trailing window as a render-ready trend view.
//
// Query Parameters:
//
//	days - Trailing window in days. Default 90.
//
// Response:
//
//	200 with a TrendResponse, 404 when no summaries fall in the window,
//	503 when history is not configured.
func (s *Server) handleTrend(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger().With("request_id", requestID, "handler", "handleTrend")

	if s.History == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Trend history requires InfluxDB configuration",
			Code:  "HISTORY_NOT_CONFIGURED",
		})
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultTrendDays)))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "days must be a positive integer",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	points, err := s.History.Trend(c.Request.Context(), socrata.OfficerDatasetID, days)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	view, err := report.BuildTrendView(points, days)
	if err != nil {
		s.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, TrendResponse{
		Dataset: socrata.OfficerDatasetID,
		View:    view,
	})
}

func snapshotSummary(snap *snapshot.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		SnapshotID: snap.ID,
		AsOfDate:   snap.AsOfDate,
		FetchedAt:  snap.FetchedAt,
		Rows:       snap.Rows,
		Columns:    snap.Table.Labels(),
	}
}
