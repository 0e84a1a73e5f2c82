// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report shapes analysis results into render-ready views.
//
// Views are pure data: curve series, bubble configs, captions, tables, and
// CSV bytes. Nothing in this package draws. Consumers are the CLI text
// output, the terminal dashboard, and the JSON API, so every view must
// survive encoding/json: the NaN sentinels the analytics layer uses for
// undefined ratios are converted to nil pointers here and render as null
// on the wire.
package report

import (
	"errors"
	"math"
	"strconv"
)

// ErrEmpty reports that a view has no data to render, typically because
// the size filter removed every group or the history window holds no
// points. API handlers translate it to a not-found response.
var ErrEmpty = errors.New("no data to render")

// nullable converts a possibly-undefined ratio to its wire form. NaN and
// infinities become nil, which encoding/json renders as null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// percentLabel renders a population fraction as a percentage label with
// trailing zeros trimmed: 0.01 -> "1", 0.05 -> "5", 0.025 -> "2.5".
func percentLabel(fraction float64) string {
	return strconv.FormatFloat(fraction*100, 'f', -1, 64)
}

// formatMeasure renders a measure sum in the shortest exact form.
func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
