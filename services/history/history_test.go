// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// --- Mock InfluxDB WriteAPI ---

type MockWriteAPI struct {
	WrittenPoints []*write.Point
}

func (m *MockWriteAPI) WritePoint(ctx context.Context, point ...*write.Point) error {
	m.WrittenPoints = append(m.WrittenPoints, point...)
	return nil
}

func (m *MockWriteAPI) WriteRecord(ctx context.Context, line ...string) error {
	return nil
}

func (m *MockWriteAPI) EnableBatching()                 {}
func (m *MockWriteAPI) Flush(ctx context.Context) error { return nil }

// --- Mock InfluxDB QueryAPI ---

type MockQueryAPI struct {
	LastQuery string
}

func (m *MockQueryAPI) Query(ctx context.Context, q string) (*api.QueryTableResult, error) {
	m.LastQuery = q
	return nil, nil
}

func (m *MockQueryAPI) QueryRaw(ctx context.Context, query string, dialect *domain.Dialect) (string, error) {
	return "", nil
}

func (m *MockQueryAPI) QueryRawWithParams(ctx context.Context, query string, dialect *domain.Dialect, params interface{}) (string, error) {
	return "", nil
}

func (m *MockQueryAPI) QueryWithParams(ctx context.Context, query string, params interface{}) (*api.QueryTableResult, error) {
	return nil, nil
}

func createTestStore() (*Store, *MockWriteAPI, *MockQueryAPI) {
	mockWrite := &MockWriteAPI{}
	mockQuery := &MockQueryAPI{}

	store := &Store{
		write:  mockWrite,
		query:  mockQuery,
		bucket: "civiclens-history",
		logger: slog.Default(),
	}
	return store, mockWrite, mockQuery
}

// --- Config Tests ---

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"url and token", Config{URL: "http://influxdb:8086", Token: "t"}, true},
		{"missing token", Config{URL: "http://influxdb:8086"}, false},
		{"missing url", Config{Token: "t"}, false},
		{"empty", Config{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewStoreRequiresEndpoint(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Error("Expected error for unconfigured store")
	}
}

// --- WriteSummary Tests ---

func TestWriteSummary_BuildsPoint(t *testing.T) {
	store, mockWrite, _ := createTestStore()

	sum := Summary{
		Dataset:           "2fir-qns4",
		AsOfDate:          "2023-05-01",
		SnapshotID:        "snap-1",
		GiniTotal:         0.62,
		GiniSubstantiated: 0.71,
		Top1Share:         0.08,
		Top5Share:         0.24,
		Officers:          36727,
		TotalComplaints:   112000,
		Time:              time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := store.WriteSummary(context.Background(), sum); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(mockWrite.WrittenPoints) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(mockWrite.WrittenPoints))
	}

	p := mockWrite.WrittenPoints[0]
	if p.Name() != "concentration_summary" {
		t.Errorf("Expected measurement concentration_summary, got %q", p.Name())
	}

	tags := make(map[string]string)
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["dataset"] != "2fir-qns4" {
		t.Errorf("Expected dataset tag 2fir-qns4, got %q", tags["dataset"])
	}
	if tags["as_of_date"] != "2023-05-01" {
		t.Errorf("Expected as_of_date tag, got %q", tags["as_of_date"])
	}

	fields := make(map[string]interface{})
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["gini_total"] != 0.62 {
		t.Errorf("Expected gini_total 0.62, got %v", fields["gini_total"])
	}
	if fields["gini_subst"] != 0.71 {
		t.Errorf("Expected gini_subst 0.71, got %v", fields["gini_subst"])
	}
	if fields["officers"] != int64(36727) {
		t.Errorf("Expected officers 36727, got %v", fields["officers"])
	}
	if fields["snapshot_id"] != "snap-1" {
		t.Errorf("Expected snapshot_id field, got %v", fields["snapshot_id"])
	}

	if !p.Time().Equal(sum.Time) {
		t.Errorf("Expected point time %v, got %v", sum.Time, p.Time())
	}
}

func TestWriteSummary_RejectsBadDataset(t *testing.T) {
	store, mockWrite, _ := createTestStore()

	err := store.WriteSummary(context.Background(), Summary{Dataset: `x"; drop()`})
	if err == nil {
		t.Fatal("Expected error for invalid dataset id")
	}
	if len(mockWrite.WrittenPoints) != 0 {
		t.Errorf("Expected no points written, got %d", len(mockWrite.WrittenPoints))
	}
}

// --- Trend Tests ---

func TestTrend_BuildsFluxQuery(t *testing.T) {
	store, _, mockQuery := createTestStore()

	points, err := store.Trend(context.Background(), "2fir-qns4", 30)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Expected empty series from nil result, got %d points", len(points))
	}

	q := mockQuery.LastQuery
	for _, fragment := range []string{
		`from(bucket: "civiclens-history")`,
		`range(start: -30d)`,
		`r._measurement == "concentration_summary"`,
		`r.dataset == "2fir-qns4"`,
		`pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")`,
		`sort(columns: ["_time"], desc: false)`,
	} {
		if !strings.Contains(q, fragment) {
			t.Errorf("Expected query to contain %q, got:\n%s", fragment, q)
		}
	}
}

func TestTrend_DefaultsDays(t *testing.T) {
	store, _, mockQuery := createTestStore()

	if _, err := store.Trend(context.Background(), "2fir-qns4", 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(mockQuery.LastQuery, "range(start: -90d)") {
		t.Errorf("Expected default 90 day range, got:\n%s", mockQuery.LastQuery)
	}
}

func TestTrend_RejectsBadDataset(t *testing.T) {
	store, _, mockQuery := createTestStore()

	if _, err := store.Trend(context.Background(), `x") |> drop()`, 30); err == nil {
		t.Fatal("Expected error for invalid dataset id")
	}
	if mockQuery.LastQuery != "" {
		t.Errorf("Expected no query issued, got %q", mockQuery.LastQuery)
	}
}
