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
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AleutianAI/qini"
	"github.com/AleutianAI/qini/pkg/ux"
	"github.com/spf13/cobra"
)

// =============================================================================
// SUMMARY COMMAND
// =============================================================================

// runSummary is the CLI handler for the "qini summary" command.
//
// Without --spend it prints the scalar facts and the full event grid;
// with one or more --spend levels it evaluates the curve at those
// spends instead. Plain mode emits tab-separated rows for piping.
//
// # Exit Codes
//
//   - 0: Summary printed
//   - 1: Unreadable curve file or a spend outside the fitted range
func runSummary(cmd *cobra.Command, args []string) {
	start := time.Now()

	curve, err := readCurve(args[0])
	if err != nil {
		OutputError(jsonOutput, "loading curve", err)
		exitCode = CLIExitUsage
		return
	}
	s := curve.Summary()
	logger.Debug("loaded curve", "path", args[0], "events", s.Events)

	points := make([]SpendPoint, 0, len(summarySpends))
	for _, sp := range summarySpends {
		gain, se, err := curve.AverageGain(sp)
		if err != nil {
			OutputError(jsonOutput, fmt.Sprintf("evaluating spend %g", sp), err)
			exitCode = CLIExitUsage
			return
		}
		p := SpendPoint{Spend: sp, Gain: gain}
		if !math.IsNaN(se) {
			p.StdErr = &se
		}
		points = append(points, p)
	}

	if jsonOutput {
		outputEnvelope("summary", start, SummaryResult{
			Source:     args[0],
			Units:      s.Units,
			Arms:       s.Arms,
			Events:     s.Events,
			Budget:     s.Budget,
			MaxSpend:   s.MaxSpend,
			FinalGain:  s.FinalGain,
			Complete:   s.Complete,
			Targeting:  s.Targeting,
			Replicates: s.Replicates,
			Paired:     s.Paired,
			Points:     points,
		})
		return
	}

	fmt.Println(ux.KeyValues(summaryPairs(s)...))
	fmt.Println()
	if len(points) > 0 {
		fmt.Println(spendTable(points).Render())
		return
	}
	fmt.Println(gridTable(curve).Render())
}

// summaryPairs formats the scalar summary for ux.KeyValues. Shared with
// the fit command's human output.
func summaryPairs(s qini.Summary) [][2]string {
	pairs := [][2]string{
		{"units", strconv.Itoa(s.Units)},
		{"arms", strconv.Itoa(s.Arms)},
		{"events", strconv.Itoa(s.Events)},
		{"budget", formatFloat(s.Budget)},
		{"max spend", formatFloat(s.MaxSpend)},
		{"final gain", formatFloat(s.FinalGain)},
		{"complete", strconv.FormatBool(s.Complete)},
		{"targeting", strconv.FormatBool(s.Targeting)},
	}
	if s.Replicates > 0 {
		pairs = append(pairs,
			[2]string{"replicates", strconv.Itoa(s.Replicates)},
			[2]string{"paired", strconv.FormatBool(s.Paired)},
		)
	}
	return pairs
}

// spendTable renders the --spend query points.
func spendTable(points []SpendPoint) *ux.Table {
	hasSE := false
	for _, p := range points {
		if p.StdErr != nil {
			hasSE = true
			break
		}
	}

	headers := []string{"spend", "gain"}
	if hasSE {
		headers = append(headers, "std err")
	}
	t := ux.NewTable(headers...).Numeric(0, 1, 2)
	for _, p := range points {
		row := []string{formatFloat(p.Spend), formatFloat(p.Gain)}
		if hasSE {
			se := ""
			if p.StdErr != nil {
				se = formatFloat(*p.StdErr)
			}
			row = append(row, se)
		}
		t.AddRow(row...)
	}
	return t
}

// gridTable renders the full allocation path, one row per event.
func gridTable(curve *qini.Curve) *ux.Table {
	spend := curve.Spend()
	gain := curve.Gain()
	stderr := curve.StdErr()
	units := curve.Units()
	arms := curve.Arms()

	headers := []string{"spend", "gain"}
	if stderr != nil {
		headers = append(headers, "std err")
	}
	headers = append(headers, "unit", "arm")
	t := ux.NewTable(headers...).Numeric(0, 1, 2, 3, 4)

	for i := range spend {
		row := []string{formatFloat(spend[i]), formatFloat(gain[i])}
		if stderr != nil {
			row = append(row, formatFloat(stderr[i]))
		}
		row = append(row, formatUnit(units[i]), strconv.Itoa(arms[i]))
		t.AddRow(row...)
	}
	return t
}

// formatUnit renders a path event's unit column. Non-targeted events
// move the whole population and carry no unit index.
func formatUnit(unit int) string {
	if unit == qini.PopulationUnit {
		return "all"
	}
	return strconv.Itoa(unit)
}

// formatFloat renders values compactly: 'g' keeps short decimals short
// and switches to scientific notation only for extreme magnitudes.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
