// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// The civiclens command analyzes complaint concentration in the NYC CCRB
// officer snapshot: Lorenz curves and Gini coefficients, per-group risk
// matrices, precinct crime joins, stored trend history, CSV exports, and
// an interactive terminal dashboard.
package main

import (
	"os"
)

// main executes the root command. Cobra prints parse errors itself, so
// the only job here is the exit code.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
