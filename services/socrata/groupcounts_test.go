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
	"net/http"
	"net/url"
	"testing"
)

func TestFetchGroupCounts_BuildsAggregationQuery(t *testing.T) {
	var got url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`[{"addr_pct_cd":"75","crime_count":"12000"},{"addr_pct_cd":"113","crime_count":"9000"}]`))
	})

	counts, err := client.FetchGroupCounts(context.Background(), CrimeDatasetID, GroupCountSpec{
		GroupField:   "addr_pct_cd",
		TopN:         20,
		StartDate:    "2019-01-01",
		EndDate:      "2020-01-01",
		Borough:      "BRONX",
		OffenseLevel: "FELONY",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if sel := got.Get("$select"); sel != "addr_pct_cd, count(*) as crime_count" {
		t.Errorf("Expected aggregation select, got %q", sel)
	}
	wantWhere := "addr_pct_cd IS NOT NULL" +
		" AND rpt_dt >= '2019-01-01T00:00:00.000'" +
		" AND rpt_dt < '2020-01-01T00:00:00.000'" +
		" AND boro_nm = 'BRONX'" +
		" AND law_cat_cd = 'FELONY'"
	if where := got.Get("$where"); where != wantWhere {
		t.Errorf("Expected where clause %q, got %q", wantWhere, where)
	}
	if group := got.Get("$group"); group != "addr_pct_cd" {
		t.Errorf("Expected group by addr_pct_cd, got %q", group)
	}
	if order := got.Get("$order"); order != "crime_count DESC" {
		t.Errorf("Expected descending count order, got %q", order)
	}
	if limit := got.Get("$limit"); limit != "20" {
		t.Errorf("Expected limit 20, got %q", limit)
	}

	if len(counts) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(counts))
	}
	if counts[0].Key != "75" || counts[0].Count != 12000 {
		t.Errorf("Expected {75 12000}, got %+v", counts[0])
	}
	if counts[1].Key != "113" || counts[1].Count != 9000 {
		t.Errorf("Expected {113 9000}, got %+v", counts[1])
	}
}

func TestFetchGroupCounts_AllDisablesFilters(t *testing.T) {
	var got url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`[]`))
	})

	_, err := client.FetchGroupCounts(context.Background(), CrimeDatasetID, GroupCountSpec{
		GroupField:   "boro_nm",
		TopN:         10,
		Borough:      "All",
		OffenseLevel: "All",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if where := got.Get("$where"); where != "boro_nm IS NOT NULL" {
		t.Errorf("Expected only the null guard, got %q", where)
	}
}

func TestFetchGroupCounts_NormalizesFilterCase(t *testing.T) {
	var got url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`[]`))
	})

	_, err := client.FetchGroupCounts(context.Background(), CrimeDatasetID, GroupCountSpec{
		GroupField: "addr_pct_cd",
		TopN:       5,
		Borough:    "staten island",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	wantWhere := "addr_pct_cd IS NOT NULL AND boro_nm = 'STATEN ISLAND'"
	if where := got.Get("$where"); where != wantWhere {
		t.Errorf("Expected normalized filter, got %q", where)
	}
}

func TestFetchGroupCounts_RejectsUnsafeInput(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[]`))
	})

	tests := []struct {
		name string
		spec GroupCountSpec
	}{
		{"injection in group field", GroupCountSpec{GroupField: "addr_pct_cd; DROP TABLE", TopN: 5}},
		{"uppercase group field", GroupCountSpec{GroupField: "ADDR_PCT_CD", TopN: 5}},
		{"bad start date", GroupCountSpec{GroupField: "addr_pct_cd", TopN: 5, StartDate: "2019-13-01"}},
		{"bad end date", GroupCountSpec{GroupField: "addr_pct_cd", TopN: 5, EndDate: "01/01/2020"}},
		{"quote in borough", GroupCountSpec{GroupField: "addr_pct_cd", TopN: 5, Borough: "BRONX' OR '1'='1"}},
		{"zero top n", GroupCountSpec{GroupField: "addr_pct_cd", TopN: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.FetchGroupCounts(context.Background(), CrimeDatasetID, tt.spec); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if calls != 0 {
		t.Errorf("Expected no requests for rejected specs, got %d", calls)
	}
}

func TestFetchGroupCounts_NumericKeyCell(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"addr_pct_cd":113,"crime_count":9000}]`))
	})

	counts, err := client.FetchGroupCounts(context.Background(), CrimeDatasetID, GroupCountSpec{
		GroupField: "addr_pct_cd",
		TopN:       5,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(counts) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(counts))
	}
	if counts[0].Key != "113" || counts[0].Count != 9000 {
		t.Errorf("Expected {113 9000}, got %+v", counts[0])
	}
}

func TestPrecinctCounts(t *testing.T) {
	counts := []GroupCount{
		{Key: "113", Count: 9000},
		{Key: " 75 ", Count: 12000},
		{Key: "HARBOR", Count: 40},
		{Key: "", Count: 5},
	}

	got := PrecinctCounts(counts)

	if len(got) != 2 {
		t.Fatalf("Expected 2 precinct entries, got %d: %v", len(got), got)
	}
	if got[113] != 9000 {
		t.Errorf("Expected precinct 113 count 9000, got %v", got[113])
	}
	if got[75] != 12000 {
		t.Errorf("Expected precinct 75 count 12000, got %v", got[75])
	}
}
