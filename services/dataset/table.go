// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset holds the in-memory tabular model shared by every
// CivicLens surface: an ordered-column table of raw string cells, the
// officer-snapshot column mapping, the ingest reshape that cleans raw
// Socrata records into that table, row-level schema validation, and CSV
// round-tripping.
//
// Cells stay strings on purpose. The analytics engines re-coerce numeric
// columns themselves and must see the raw cell to report a quality failure;
// a table that eagerly parsed cells would hide exactly the values the
// engines need to reject.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for table operations.
var (
	// ErrColumnMismatch is returned when a row's width does not match the
	// table's column count.
	ErrColumnMismatch = errors.New("row width does not match column count")

	// ErrNoColumn is returned when a requested column label is absent.
	ErrNoColumn = errors.New("no such column")

	// ErrNotNumeric is returned by NumericColumn when a cell cannot be
	// parsed as a number.
	ErrNotNumeric = errors.New("non-numeric cell")
)

// Table is an ordered-column table of raw string cells.
//
// Operations that change shape return a new Table; an existing Table is
// never mutated by package functions after construction, so sharing one
// across goroutines for reads is safe once loading is done.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]string
}

// NewTable creates an empty table with the given column layout.
func NewTable(columns []Column) *Table {
	t := &Table{
		columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.columns {
		t.index[c.Label] = i
	}
	return t
}

// AppendRow adds one row of cells. The row width must match the column
// count exactly.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("%w: got %d cells, want %d", ErrColumnMismatch, len(cells), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), cells...))
	return nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// Columns returns a copy of the column descriptors in table order.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// Labels returns the display labels in table order.
func (t *Table) Labels() []string {
	labels := make([]string, len(t.columns))
	for i, c := range t.columns {
		labels[i] = c.Label
	}
	return labels
}

// HasColumn reports whether a column with the given label exists.
func (t *Table) HasColumn(label string) bool {
	_, ok := t.index[label]
	return ok
}

// ColumnIndex returns the position of the labeled column, or -1 when the
// label is absent.
func (t *Table) ColumnIndex(label string) int {
	i, ok := t.index[label]
	if !ok {
		return -1
	}
	return i
}

// At returns the cell at (row, col). Out-of-range positions return "".
func (t *Table) At(row, col int) string {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.columns) {
		return ""
	}
	return t.rows[row][col]
}

// Cell returns the cell at (row, label). Missing columns and out-of-range
// rows return "".
func (t *Table) Cell(row int, label string) string {
	return t.At(row, t.ColumnIndex(label))
}

// Row returns a copy of row i. Out-of-range rows return nil.
func (t *Table) Row(i int) []string {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return append([]string(nil), t.rows[i]...)
}

// ColumnValues returns a copy of every cell in the labeled column, in row
// order. Returns ErrNoColumn when the label is absent.
func (t *Table) ColumnValues(label string) ([]string, error) {
	col := t.ColumnIndex(label)
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, label)
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[col]
	}
	return values, nil
}

// NumericColumn parses the labeled column as float64 values.
//
// Cells are trimmed before parsing. The first unparseable cell fails the
// whole call with ErrNotNumeric; no partial slice is returned. This is the
// extraction step collaborators use to hand a column to the analytics
// engines, which then apply their own non-negativity contract.
func (t *Table) NumericColumn(label string) ([]float64, error) {
	cells, err := t.ColumnValues(label)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %q", ErrNotNumeric, label, i, cell)
		}
		values[i] = v
	}
	return values, nil
}

// Head returns a new table holding the first n rows (fewer when the table
// is shorter). Used for previews.
func (t *Table) Head(n int) *Table {
	out := NewTable(t.columns)
	for i := 0; i < n && i < len(t.rows); i++ {
		out.rows = append(out.rows, append([]string(nil), t.rows[i]...))
	}
	return out
}

// tableJSON is the serialized form used by the snapshot cache and the API.
type tableJSON struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MarshalJSON implements json.Marshaler.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{Columns: t.columns, Rows: t.rows})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rebuilt := NewTable(raw.Columns)
	for _, row := range raw.Rows {
		if err := rebuilt.AppendRow(row); err != nil {
			return err
		}
	}
	*t = *rebuilt
	return nil
}
