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
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/CivicLens/services/socrata"
)

// ===== Prometheus Metrics for the Oversight API =====

var (
	// fetchRowsTotal counts officer snapshot rows pulled from the open
	// data API. Cache hits do not count.
	fetchRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Subsystem: "api",
			Name:      "fetch_rows_total",
			Help:      "Total officer snapshot rows fetched from the open data API",
		},
	)

	// cacheHitsTotal counts snapshot loads served from the local cache.
	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Subsystem: "api",
			Name:      "cache_hits_total",
			Help:      "Total snapshot loads served entirely from the local cache",
		},
	)

	// analysisDuration tracks end-to-end analysis latency, including the
	// snapshot load, labeled by analysis kind.
	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "civiclens",
			Subsystem: "api",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"analysis"},
	)

	// socrataRequestsTotal counts upstream SODA requests by HTTP status
	// code. Transport failures without a response use the "error" label.
	socrataRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Subsystem: "api",
			Name:      "socrata_requests_total",
			Help:      "Total requests sent to the Socrata open data API by status code",
		},
		[]string{"code"},
	)
)

// recordFetchRows adds freshly fetched snapshot rows to the counter.
//
// Inputs:
//   - rows: number of rows pulled from the API for this load.
func recordFetchRows(rows int) {
	fetchRowsTotal.Add(float64(rows))
}

// recordCacheHit counts a snapshot load answered from the cache.
func recordCacheHit() {
	cacheHitsTotal.Inc()
}

// recordAnalysisDuration observes one analysis run.
//
// Inputs:
//   - analysis: analysis kind ("concentration", "groups", "precinct").
//   - seconds: wall-clock duration of the run.
func recordAnalysisDuration(analysis string, seconds float64) {
	analysisDuration.WithLabelValues(analysis).Observe(seconds)
}

// countingHTTPClient wraps the socrata HTTP client so every upstream
// request lands in socrataRequestsTotal, retries included.
type countingHTTPClient struct {
	inner socrata.HTTPClient
}

func (c *countingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.inner.Do(req)
	if err != nil {
		socrataRequestsTotal.WithLabelValues("error").Inc()
		return resp, err
	}
	socrataRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}
