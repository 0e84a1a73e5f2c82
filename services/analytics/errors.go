// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analytics implements the two statistical engines at the heart of
// CivicLens: distributional concentration (Lorenz curve, Gini coefficient,
// top-percentile shares) and grouped risk aggregation (per-group burden and
// intensity with median reference lines).
//
// Every operation is a pure function over its inputs. Nothing in this package
// performs I/O, caches results, or holds state between calls, so all
// functions are safe for concurrent use on independent inputs. Callers that
// want caching layer it outside (see services/snapshot).
//
// # Input Contract
//
// The concentration functions take plain []float64 sequences and reject
// empty, negative, and non-finite inputs with ErrInvalidInput. The group
// engine takes a dataset.Table and re-coerces the measure columns itself; it
// does not trust upstream typing. A single bad cell fails the whole call with
// ErrDataQuality rather than silently dropping rows, because dropped volume
// data would bias every downstream ratio.
package analytics

import "errors"

// Sentinel errors for the analytics engines. Wrapped errors preserve these
// as their base, so callers dispatch with errors.Is.
var (
	// ErrInvalidInput is returned for a malformed numeric sequence (empty,
	// negative, or non-finite elements) or an out-of-range parameter such as
	// a top-share fraction outside (0, 1].
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchema is returned when a required table column is absent.
	ErrSchema = errors.New("required column missing")

	// ErrConfiguration is returned when a caller requests a grouping field
	// outside the recognized allow-list, even if the column exists in the
	// table.
	ErrConfiguration = errors.New("grouping field not allowed")

	// ErrDataQuality is returned when a measure column contains a
	// non-numeric or negative value after coercion. The whole call fails;
	// no partial aggregate is returned.
	ErrDataQuality = errors.New("measure column failed numeric coercion")
)
