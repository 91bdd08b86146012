// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command qini fits and compares multi-armed Qini curves.
//
// A fit run reads a reward matrix, an evaluation score matrix, and a
// cost matrix (one row per unit, one column per treatment arm), solves
// the greedy spend/gain allocation path up to a budget, and writes the
// fitted curve as a versioned JSON document. The summary and diff
// commands read those documents back.
//
// Usage:
//
//	qini fit --reward r.csv --scores s.csv --cost c.csv --budget 2.5 -o curve.json
//	qini summary curve.json --spend 0.5 --spend 1.5
//	qini diff a.json b.json --spend 1.5
//	qini diff a.json b.json --spend 2.0 --integrated
//
// Matrix files are headerless CSV, or JSON arrays of row arrays when
// the filename ends in .json. Defaults for threads, replicates, seed,
// logging, and telemetry come from qini.yaml; flags override the file.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the flag or usage error.
		if exitCode == CLIExitSuccess {
			exitCode = CLIExitUsage
		}
	}
	cleanup()
	os.Exit(exitCode)
}
