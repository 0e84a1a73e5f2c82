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

// DefaultTopFractions are the reporting fractions used when a caller does
// not supply its own: top 1% and top 5%.
var DefaultTopFractions = []float64{0.01, 0.05}

// -----------------------------------------------------------------------------
// Lorenz Curve
// -----------------------------------------------------------------------------

// Curve holds the points of a Lorenz curve.
//
// Both sequences have length n+1 for an input of n values and are
// non-decreasing with endpoints 0 and 1.
type Curve struct {
	// X is the cumulative population share: the uniform partition
	// 0, 1/n, ..., 1 regardless of the data.
	X []float64

	// Y is the cumulative value share contributed by the i lowest-valued
	// entities, sorted ascending.
	Y []float64
}

// LorenzCurve computes the Lorenz curve of a non-negative value sequence.
//
// Description:
//
//	Values are sorted ascending, cumulated, and normalized by the total.
//	When the total is exactly zero the curve is the equality line (every
//	entity contributes an equal, zero, share) rather than a division by
//	zero. The final Y element is forced to exactly 1.0 to absorb
//	floating-point drift in the cumulative sum.
//
// Inputs:
//   - values: Per-entity magnitudes. Must be non-empty, finite, and >= 0.
//
// Outputs:
//   - *Curve: Lorenz points of length len(values)+1.
//   - error: ErrInvalidInput on empty, negative, or non-finite input.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func LorenzCurve(values []float64) (*Curve, error) {
	if err := checkNonNegative(values); err != nil {
		return nil, err
	}

	n := len(values)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	x := make([]float64, n+1)
	for i := range x {
		x[i] = float64(i) / float64(n)
	}

	y := make([]float64, n+1)
	total := sum(sorted)
	if total == 0 {
		copy(y, x)
		return &Curve{X: x, Y: y}, nil
	}

	var cum float64
	for i, v := range sorted {
		cum += v
		y[i+1] = cum / total
	}
	y[n] = 1.0

	return &Curve{X: x, Y: y}, nil
}

// -----------------------------------------------------------------------------
// Gini Coefficient
// -----------------------------------------------------------------------------

// GiniCoefficient computes the Gini coefficient of a value sequence.
//
// Description:
//
//	Derived from the Lorenz curve as 1 - 2*(area under the curve), with the
//	area computed by trapezoidal integration over the discrete curve points.
//	This is the discrete convention: for n=4 with a single non-zero value
//	the result is exactly 0.75, not the continuous-population limit. The
//	result is clamped to [0, 1] to guard against integration overshoot by
//	epsilon. A single-element sequence has Gini 0 regardless of its value.
//
// Inputs:
//   - values: Per-entity magnitudes. Must be non-empty, finite, and >= 0.
//
// Outputs:
//   - float64: Concentration in [0, 1]; 0 means perfect equality.
//   - error: ErrInvalidInput on empty, negative, or non-finite input.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func GiniCoefficient(values []float64) (float64, error) {
	c, err := LorenzCurve(values)
	if err != nil {
		return 0, err
	}

	var area float64
	for i := 1; i < len(c.X); i++ {
		area += (c.X[i] - c.X[i-1]) * (c.Y[i] + c.Y[i-1]) / 2
	}

	g := 1 - 2*area
	return math.Min(1, math.Max(0, g)), nil
}

// -----------------------------------------------------------------------------
// Top-Percentile Share
// -----------------------------------------------------------------------------

// TopShare computes the fraction of total magnitude held by the top
// ceil(n*fraction) highest-valued entities.
//
// Inputs:
//   - values: Per-entity magnitudes. Must be non-empty, finite, and >= 0.
//   - fraction: Population fraction in (0, 1], e.g. 0.01 for the top 1%.
//
// Outputs:
//   - float64: Share in [0, 1]. Zero total magnitude yields 0.0, not an
//     error: absence of any magnitude means no concentration to report.
//   - error: ErrInvalidInput on a fraction outside (0, 1] or a malformed
//     sequence.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func TopShare(values []float64, fraction float64) (float64, error) {
	if !(fraction > 0 && fraction <= 1) {
		return 0, fmt.Errorf("%w: fraction %g outside (0, 1]", ErrInvalidInput, fraction)
	}
	if err := checkNonNegative(values); err != nil {
		return 0, err
	}

	total := sum(values)
	if total == 0 {
		return 0, nil
	}

	sorted := append([]float64(nil), values...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	k := int(math.Ceil(float64(len(sorted)) * fraction))
	return sum(sorted[:k]) / total, nil
}

// -----------------------------------------------------------------------------
// Combined Report
// -----------------------------------------------------------------------------

// TopShareEntry pairs a requested fraction with its computed share.
type TopShareEntry struct {
	// Fraction is the population fraction, e.g. 0.01.
	Fraction float64 `json:"fraction"`

	// Share is the fraction of total magnitude held by that population.
	Share float64 `json:"share"`
}

// ConcentrationReport aggregates the concentration statistics for a pair of
// distributions compared side by side, typically total complaints versus
// substantiated complaints over the same officer snapshot.
type ConcentrationReport struct {
	// Total is the Lorenz curve of the volume measure.
	Total *Curve `json:"total"`

	// Substantiated is the Lorenz curve of the sub-event measure.
	Substantiated *Curve `json:"substantiated"`

	// GiniTotal is the Gini coefficient of the volume measure.
	GiniTotal float64 `json:"gini_total"`

	// GiniSubstantiated is the Gini coefficient of the sub-event measure.
	GiniSubstantiated float64 `json:"gini_subst"`

	// TopShares holds the top-percentile shares of the volume measure, one
	// entry per requested fraction, in request order. Only the volume
	// measure gets percentile treatment.
	TopShares []TopShareEntry `json:"top_shares"`
}

// Concentration computes the combined concentration report for two parallel
// magnitude sequences.
//
// Description:
//
//	Pure aggregation of LorenzCurve, GiniCoefficient, and TopShare. The two
//	sequences are independent distributions and need not share a length.
//	Top shares are computed over the total sequence only; the substantiated
//	sequence contributes its curve and Gini. A nil or empty fractions slice
//	selects DefaultTopFractions.
//
// Inputs:
//   - total: Volume measure per entity. Must be non-empty, finite, >= 0.
//   - substantiated: Sub-event measure per entity. Same contract.
//   - fractions: Top-share fractions, each in (0, 1]. Nil for the default.
//
// Outputs:
//   - *ConcentrationReport: Both curves, both Ginis, top shares.
//   - error: ErrInvalidInput from any underlying primitive.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Concentration(total, substantiated, fractions []float64) (*ConcentrationReport, error) {
	if len(fractions) == 0 {
		fractions = DefaultTopFractions
	}

	totalCurve, err := LorenzCurve(total)
	if err != nil {
		return nil, fmt.Errorf("total measure: %w", err)
	}
	substCurve, err := LorenzCurve(substantiated)
	if err != nil {
		return nil, fmt.Errorf("substantiated measure: %w", err)
	}

	giniTotal, err := GiniCoefficient(total)
	if err != nil {
		return nil, fmt.Errorf("total measure: %w", err)
	}
	giniSubst, err := GiniCoefficient(substantiated)
	if err != nil {
		return nil, fmt.Errorf("substantiated measure: %w", err)
	}

	shares := make([]TopShareEntry, 0, len(fractions))
	for _, f := range fractions {
		s, err := TopShare(total, f)
		if err != nil {
			return nil, err
		}
		shares = append(shares, TopShareEntry{Fraction: f, Share: s})
	}

	return &ConcentrationReport{
		Total:             totalCurve,
		Substantiated:     substCurve,
		GiniTotal:         giniTotal,
		GiniSubstantiated: giniSubst,
		TopShares:         shares,
	}, nil
}
