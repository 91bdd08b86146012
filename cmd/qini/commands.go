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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/qini/cmd/qini/config"
	"github.com/AleutianAI/qini/cmd/qini/internal/telemetry"
	"github.com/AleutianAI/qini/pkg/logging"
	"github.com/AleutianAI/qini/pkg/ux"
	"github.com/spf13/cobra"
)

// cliVersion is reported to telemetry alongside the service name.
const cliVersion = "1.0.0"

// logger and telemetryStop are set up in PersistentPreRun and released
// by cleanup() after the command returns.
var (
	logger        *logging.Logger
	telemetryStop func(context.Context) error
)

// --- Global Command Variables ---
var (
	cfgPath       string
	logLevel      string // CLI override for log.level (debug/info/warn/error)
	traceExporter string // CLI override for trace.exporter (stdout/none)
	noColor       bool
	jsonOutput    bool
	quietOutput   bool

	fitRewardPath   string
	fitScoresPath   string
	fitCostPath     string
	fitWeightsPath  string
	fitClustersPath string
	fitTieBreakPath string
	fitBudget       float64
	fitReplicates   int
	fitThreads      int
	fitSeed         uint64
	fitPaired       bool
	fitNoTargeting  bool
	fitOutputPath   string

	summarySpends []float64

	diffSpend      float64
	diffIntegrated bool

	rootCmd = &cobra.Command{
		Use:   "qini",
		Short: "Fit and compare budget-constrained Qini curves",
		Long: `Qini fits multi-armed Qini curves from reward, evaluation score,
				and cost matrices: a greedy spend/gain allocation path with
				cluster-bootstrap uncertainty and paired curve comparison.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				ux.SetMode(ux.ModePlain)
			} else {
				ux.InitMode()
			}

			if err := config.Load(cfgPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(CLIExitUsage)
			}

			level := config.Global.Log.Level
			if logLevel != "" {
				level = logLevel
			}
			lvl, ok := logging.ParseLevel(level)
			if !ok {
				fmt.Fprintf(os.Stderr, "Error: unknown log level %q\n", level)
				os.Exit(CLIExitUsage)
			}
			logger = logging.New(logging.Config{
				Level:   lvl,
				LogDir:  config.Global.Log.Dir,
				Service: cmd.Name(),
				Quiet:   quietOutput,
			})

			exporter := config.Global.Trace.Exporter
			if traceExporter != "" {
				exporter = traceExporter
			}
			stop, err := telemetry.Init(cmd.Context(), telemetry.Config{
				ServiceName:    "qini",
				ServiceVersion: cliVersion,
				Exporter:       exporter,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(CLIExitUsage)
			}
			telemetryStop = stop
		},
	}

	fitCmd = &cobra.Command{
		Use:   "fit",
		Short: "Fit a Qini curve from reward, score, and cost matrices",
		Run:   runFit, // Defined in cmd_fit.go
	}

	summaryCmd = &cobra.Command{
		Use:   "summary [curve.json]",
		Short: "Print the scalar summary and spend/gain table of a fitted curve",
		Args:  cobra.ExactArgs(1),
		Run:   runSummary, // Defined in cmd_summary.go
	}

	diffCmd = &cobra.Command{
		Use:   "diff [a.json] [b.json]",
		Short: "Compare two paired curves at a spend level",
		Args:  cobra.ExactArgs(2),
		Run:   runDiff, // Defined in cmd_diff.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Path to qini.yaml (default ./qini.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", "",
		"Telemetry exporter: stdout or none")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable styled output (also honors NO_COLOR)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Emit results as JSON on stdout")
	rootCmd.PersistentFlags().BoolVar(&quietOutput, "quiet", false,
		"Suppress log output on stderr")

	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().StringVar(&fitRewardPath, "reward", "",
		"Reward matrix file (CSV or JSON), one row per unit")
	fitCmd.Flags().StringVar(&fitScoresPath, "scores", "",
		"Evaluation score matrix file, same shape as reward")
	fitCmd.Flags().StringVar(&fitCostPath, "cost", "",
		"Cost matrix file, same shape as reward, positive entries")
	fitCmd.Flags().Float64Var(&fitBudget, "budget", 0,
		"Average per-unit spend ceiling (required)")
	fitCmd.Flags().StringVar(&fitWeightsPath, "weights", "",
		"Optional per-unit sample weight vector file")
	fitCmd.Flags().StringVar(&fitClustersPath, "clusters", "",
		"Optional per-unit cluster id vector file (0-based, contiguous)")
	fitCmd.Flags().StringVar(&fitTieBreakPath, "tie-breaker", "",
		"Optional permutation vector file for deterministic tie order")
	fitCmd.Flags().IntVar(&fitReplicates, "replicates", 0,
		"Bootstrap replicate count (0 disables the bootstrap)")
	fitCmd.Flags().IntVar(&fitThreads, "threads", 0,
		"Bootstrap worker count (0 uses all CPUs)")
	fitCmd.Flags().Uint64Var(&fitSeed, "seed", 0,
		"Bootstrap RNG seed")
	fitCmd.Flags().BoolVar(&fitPaired, "paired", false,
		"Retain per-replicate gains so the curve can be diffed later")
	fitCmd.Flags().BoolVar(&fitNoTargeting, "no-targeting", false,
		"Fit the non-targeting baseline (every unit treated identically)")
	fitCmd.Flags().StringVarP(&fitOutputPath, "output", "o", "curve.json",
		"Output path for the fitted curve")

	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().Float64SliceVar(&summarySpends, "spend", nil,
		"Spend level(s) to evaluate instead of the full event grid")

	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().Float64Var(&diffSpend, "spend", 0,
		"Spend level for the comparison (required)")
	diffCmd.Flags().BoolVar(&diffIntegrated, "integrated", false,
		"Integrate the difference from zero spend up to --spend")
}

// cleanup flushes telemetry and closes the log file. Runs after the
// command returns, before the process exits.
func cleanup() {
	if telemetryStop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := telemetryStop(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
		cancel()
	}
	if logger != nil {
		_ = logger.Close()
	}
}
