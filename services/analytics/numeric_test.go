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
	"math"
	"testing"
)

func TestNanMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd count", []float64{3, 1, 2}, 2},
		{"even count", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
		{"nan excluded", []float64{1, math.NaN(), 3}, 2},
		{"nan excluded even remainder", []float64{math.NaN(), 5, 1, 3}, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nanMedian(tc.values)
			if math.Abs(got-tc.want) > tolerance {
				t.Errorf("nanMedian(%v) = %g, want %g", tc.values, got, tc.want)
			}
		})
	}
}

func TestNanMedian_Undefined(t *testing.T) {
	if got := nanMedian(nil); !math.IsNaN(got) {
		t.Errorf("expected NaN for empty input, got %g", got)
	}
	if got := nanMedian([]float64{math.NaN(), math.NaN()}); !math.IsNaN(got) {
		t.Errorf("expected NaN for all-NaN input, got %g", got)
	}
}
