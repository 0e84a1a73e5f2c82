// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package socrata is a small SODA 2.1 JSON client for the NYC OpenData
// endpoints this project reads: the CCRB officer snapshot dataset and the
// NYPD complaint data historic dataset.
//
// The client retries transient failures, rate limits itself with a token
// bucket, and binds every request to the caller's context. Field names,
// dates, and filter literals that land inside a SoQL clause must pass
// pkg/validation before interpolation; the helpers in this package do that
// for the caller.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/CivicLens/pkg/validation"
)

const (
	// DefaultBaseURL is the NYC OpenData SODA endpoint root.
	DefaultBaseURL = "https://data.cityofnewyork.us"

	// OfficerDatasetID identifies the CCRB officer snapshot dataset.
	OfficerDatasetID = "2fir-qns4"

	// CrimeDatasetID identifies the NYPD complaint data historic dataset.
	CrimeDatasetID = "qgea-i56i"

	// DefaultPageSize is the row count requested per page when paginating.
	DefaultPageSize = 50000

	// DefaultRequestsPerSecond is the token bucket refill rate applied when
	// the config does not set one. Unauthenticated Socrata access is
	// throttled upstream; staying under it avoids burning retry budget on
	// 429s.
	DefaultRequestsPerSecond = 4

	maxAttempts = 3
	backoffBase = 800 * time.Millisecond
)

// HTTPClient interface allows injecting mock HTTP clients for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx answer from the open-data API. Retryable
// statuses surface as a StatusError only after all attempts are spent.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("open data api returned %s", e.Status)
}

// Config carries the optional knobs for a Client. The zero value is usable:
// every field has a production default.
type Config struct {
	// BaseURL overrides DefaultBaseURL, mainly for tests.
	BaseURL string

	// AppToken, when set, is sent as X-App-Token and raises the upstream
	// throttle ceiling.
	AppToken string

	// HTTPClient overrides the default 90 second timeout client.
	HTTPClient HTTPClient

	// RequestsPerSecond overrides DefaultRequestsPerSecond.
	RequestsPerSecond float64

	// PageSize overrides DefaultPageSize for FetchAllRows.
	PageSize int

	// RetryBackoff overrides the base retry delay. The n-th retry waits
	// RetryBackoff doubled n-1 times.
	RetryBackoff time.Duration

	// Logger overrides slog.Default().
	Logger *slog.Logger
}

// Client talks to one SODA host. Safe for concurrent use.
type Client struct {
	baseURL  string
	appToken string
	http     HTTPClient
	limiter  *rate.Limiter
	pageSize int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewClient builds a Client, filling unset config fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = backoffBase
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		appToken: cfg.AppToken,
		http:     cfg.HTTPClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		pageSize: cfg.PageSize,
		backoff:  cfg.RetryBackoff,
		logger:   cfg.Logger,
	}
}

// FetchRows executes a single query against a dataset and returns the raw
// decoded rows.
func (c *Client) FetchRows(ctx context.Context, datasetID string, q Query) ([]map[string]any, error) {
	var rows []map[string]any
	if err := c.getJSON(ctx, datasetID, q.Values(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchAllRows pulls a dataset page by page until a short batch signals the
// end, or until maxRows rows have accumulated. maxRows <= 0 means no cap.
func (c *Client) FetchAllRows(ctx context.Context, datasetID string, q Query, maxRows int) ([]map[string]any, error) {
	var rows []map[string]any
	offset := q.Offset

	for {
		batchLimit := c.pageSize
		if maxRows > 0 {
			remaining := maxRows - len(rows)
			if remaining <= 0 {
				break
			}
			if remaining < batchLimit {
				batchLimit = remaining
			}
		}

		page := q
		page.Limit = batchLimit
		page.Offset = offset

		batch, err := c.FetchRows(ctx, datasetID, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		rows = append(rows, batch...)
		offset += len(batch)

		if len(batch) < batchLimit {
			break
		}
	}

	return rows, nil
}

// RowCount asks the server how many rows match the given conjuncts.
func (c *Client) RowCount(ctx context.Context, datasetID string, where []string) (int, error) {
	q := Query{Select: "count(*) as total", Where: where, Limit: 1}

	var out []struct {
		Total string `json:"total"`
	}
	if err := c.getJSON(ctx, datasetID, q.Values(), &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}

	n, err := strconv.Atoi(out[0].Total)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count %q: %w", out[0].Total, err)
	}
	return n, nil
}

// LatestAsOfDate returns the most recent as_of_date in a dataset as
// YYYY-MM-DD, or "" when the dataset reports none.
func (c *Client) LatestAsOfDate(ctx context.Context, datasetID string) (string, error) {
	q := Query{Select: "max(as_of_date) as max_date", Limit: 1}

	var out []map[string]any
	if err := c.getJSON(ctx, datasetID, q.Values(), &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", nil
	}

	raw, _ := out[0]["max_date"].(string)
	if raw == "" {
		return "", nil
	}
	if len(raw) > 10 {
		raw = raw[:10]
	}
	return raw, nil
}

// SnapshotDayWindow returns the conjuncts bounding one snapshot day:
// field >= 'dateT00:00:00.000' AND field < 'dateT23:59:59.999'.
// Both inputs are validated before interpolation.
func SnapshotDayWindow(field, date string) ([]string, error) {
	if err := validation.ValidateFieldName(field); err != nil {
		return nil, err
	}
	if err := validation.ValidateDate(date); err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("%s >= '%sT00:00:00.000'", field, date),
		fmt.Sprintf("%s < '%sT23:59:59.999'", field, date),
	}, nil
}

// getJSON performs one logical request with rate limiting and retries, then
// decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, datasetID string, params url.Values, out any) error {
	if err := validation.ValidateDatasetID(datasetID); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/resource/%s.json?%s", c.baseURL, datasetID, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			wait := c.backoff << (attempt - 2)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.appToken != "" {
			req.Header.Set("X-App-Token", c.appToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("failed to call open data api: %w", err)
			c.logger.Warn("open data request failed", "dataset", datasetID, "attempt", attempt, "error", err)
			continue
		}

		if retryableStatus(resp.StatusCode) {
			resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			c.logger.Warn("open data api transient status", "dataset", datasetID, "attempt", attempt, "status", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode open data response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
