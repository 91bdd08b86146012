// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/qini"
	"github.com/AleutianAI/qini/pkg/ux"
	"github.com/spf13/cobra"
)

var errMissingSpend = errors.New("see qini diff --help")

// =============================================================================
// DIFF COMMAND
// =============================================================================

// runDiff is the CLI handler for the "qini diff" command.
//
// Both curves must have been fit with --paired on the same sample,
// replicate count, and seed; the paired standard error then accounts
// for the correlation between the two estimates. With --integrated the
// pointwise difference is integrated from zero spend up to --spend.
//
// # Exit Codes
//
//   - 0: Difference printed
//   - 1: Unreadable curve files, unpaired or mismatched curves, or a
//     spend outside both fitted ranges
func runDiff(cmd *cobra.Command, args []string) {
	start := time.Now()

	if !cmd.Flags().Changed("spend") {
		OutputError(jsonOutput, "diff requires --spend", errMissingSpend)
		exitCode = CLIExitUsage
		return
	}

	a, err := readCurve(args[0])
	if err != nil {
		OutputError(jsonOutput, "loading curve", err)
		exitCode = CLIExitUsage
		return
	}
	b, err := readCurve(args[1])
	if err != nil {
		OutputError(jsonOutput, "loading curve", err)
		exitCode = CLIExitUsage
		return
	}

	var estimate, se float64
	if diffIntegrated {
		estimate, se, err = qini.IntegratedDifference(a, b, diffSpend)
	} else {
		estimate, se, err = qini.DifferenceGain(a, b, diffSpend)
	}
	if err != nil {
		OutputError(jsonOutput, "comparing curves", err)
		exitCode = CLIExitUsage
		return
	}
	logger.Debug("compared curves", "a", args[0], "b", args[1],
		"spend", diffSpend, "integrated", diffIntegrated)

	var z *float64
	if se > 0 {
		v := estimate / se
		z = &v
	}

	if jsonOutput {
		outputEnvelope("diff", start, DiffResult{
			CurveA:     args[0],
			CurveB:     args[1],
			Spend:      diffSpend,
			Integrated: diffIntegrated,
			Estimate:   estimate,
			StdErr:     se,
			Z:          z,
		})
		return
	}

	label := fmt.Sprintf("gain difference at spend %s", formatFloat(diffSpend))
	if diffIntegrated {
		label = fmt.Sprintf("integrated difference over [0, %s]", formatFloat(diffSpend))
	}
	pairs := [][2]string{
		{label, formatFloat(estimate)},
		{"std err", formatFloat(se)},
	}
	if z != nil {
		pairs = append(pairs, [2]string{"z", formatFloat(*z)})
	}
	fmt.Println(ux.KeyValues(pairs...))
}
