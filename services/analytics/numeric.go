// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analytics

import (
	"fmt"
	"math"
	"sort"
)

// checkNonNegative validates that values is a non-empty sequence of finite,
// non-negative numbers. It is applied before every concentration statistic;
// violations are reported, never silently repaired.
func checkNonNegative(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: empty sequence", ErrInvalidInput)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidInput, i)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative value %g at index %d", ErrInvalidInput, v, i)
		}
	}
	return nil
}

// sum returns the plain sum of values. Callers validate first.
func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

// nanMedian returns the median of values with NaN entries excluded, using
// the midpoint-average convention for even counts. Returns NaN when no
// finite entries remain.
func nanMedian(values []float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	sort.Float64s(finite)
	mid := len(finite) / 2
	if len(finite)%2 == 1 {
		return finite[mid]
	}
	return (finite[mid-1] + finite[mid]) / 2
}
