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
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess = 0 // Operation completed successfully
	CLIExitUsage   = 1 // Invalid arguments, config, or input data
	CLIExitError   = 2 // Operation failed mid-run (I/O, encoding)
)

// exitCode is the code the process exits with. Run functions set it
// instead of calling os.Exit so cleanup() still runs.
var exitCode = CLIExitSuccess

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OutputJSON writes structured data as JSON to stdout.
//
// # Inputs
//
//   - data: The data to encode. Must be JSON-serializable.
//   - compact: If true, output without indentation.
//
// # Outputs
//
//   - error: Non-nil if encoding fails.
func OutputJSON(data interface{}, compact bool) error {
	encoder := json.NewEncoder(os.Stdout)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// OutputError writes an error in the appropriate format.
//
// # Inputs
//
//   - jsonMode: If true, output as JSON to stdout.
//   - msg: Human-readable error message.
//   - err: The underlying error.
func OutputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Timestamp:  time.Now(),
			Success:    false,
			Error:      fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// outputEnvelope wraps data in a CommandResult and writes it to stdout.
func outputEnvelope(cmd string, start time.Time, data interface{}) {
	result := CommandResult{
		APIVersion: "1.0",
		Command:    cmd,
		Timestamp:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
		Data:       data,
	}
	if err := OutputJSON(result, false); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		exitCode = CLIExitError
	}
}

// FitResult holds fit command output.
type FitResult struct {
	RunID      string  `json:"run_id"`
	Output     string  `json:"output"`
	Units      int     `json:"units"`
	Arms       int     `json:"arms"`
	Events     int     `json:"events"`
	Budget     float64 `json:"budget"`
	MaxSpend   float64 `json:"max_spend"`
	FinalGain  float64 `json:"final_gain"`
	Complete   bool    `json:"complete"`
	Targeting  bool    `json:"targeting"`
	Replicates int     `json:"replicates,omitempty"`
	Paired     bool    `json:"paired"`
}

// SummaryResult holds summary command output.
type SummaryResult struct {
	Source     string       `json:"source"`
	Units      int          `json:"units"`
	Arms       int          `json:"arms"`
	Events     int          `json:"events"`
	Budget     float64      `json:"budget"`
	MaxSpend   float64      `json:"max_spend"`
	FinalGain  float64      `json:"final_gain"`
	Complete   bool         `json:"complete"`
	Targeting  bool         `json:"targeting"`
	Replicates int          `json:"replicates,omitempty"`
	Paired     bool         `json:"paired"`
	Points     []SpendPoint `json:"points,omitempty"`
}

// SpendPoint is one evaluated spend level in summary output. StdErr is
// absent when the curve was fit without replicates.
type SpendPoint struct {
	Spend  float64  `json:"spend"`
	Gain   float64  `json:"gain"`
	StdErr *float64 `json:"std_err,omitempty"`
}

// DiffResult holds diff command output. Z is absent when the standard
// error is zero.
type DiffResult struct {
	CurveA     string   `json:"curve_a"`
	CurveB     string   `json:"curve_b"`
	Spend      float64  `json:"spend"`
	Integrated bool     `json:"integrated"`
	Estimate   float64  `json:"estimate"`
	StdErr     float64  `json:"std_err"`
	Z          *float64 `json:"z,omitempty"`
}
