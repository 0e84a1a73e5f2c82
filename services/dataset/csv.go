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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// WriteCSV writes the table to w with display labels as the header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Labels()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV. Header labels matching the
// officer snapshot get their API field names back; unknown labels keep an
// empty API name.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	known := make(map[string]string, len(OfficerSnapshotColumns))
	for _, c := range OfficerSnapshotColumns {
		known[c.Label] = c.APIName
	}
	columns := make([]Column, len(header))
	for i, label := range header {
		columns[i] = Column{APIName: known[label], Label: label}
	}

	tbl := NewTable(columns)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if err := tbl.AppendRow(record); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
