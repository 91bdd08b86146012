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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/qini"
	"github.com/AleutianAI/qini/cmd/qini/config"
	"github.com/AleutianAI/qini/pkg/logging"
	"github.com/AleutianAI/qini/pkg/ux"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errMissingInput = errors.New("see qini fit --help")

// =============================================================================
// FIT COMMAND
// =============================================================================

// runFit is the CLI handler for the "qini fit" command.
//
// It loads the three input matrices concurrently, fits the curve with
// the resolved options (flags override qini.yaml), writes the curve
// document to --output, and prints a summary.
//
// # Exit Codes
//
//   - 0: Curve fitted and written
//   - 1: Invalid arguments, config, or input data
//   - 2: Output write or encoding failure
func runFit(cmd *cobra.Command, args []string) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.With("run_id", runID)

	if fitRewardPath == "" || fitScoresPath == "" || fitCostPath == "" {
		OutputError(jsonOutput, "fit requires --reward, --scores, and --cost", errMissingInput)
		exitCode = CLIExitUsage
		return
	}

	reward, scores, cost, err := loadMatrices(fitRewardPath, fitScoresPath, fitCostPath)
	if err != nil {
		OutputError(jsonOutput, "loading input", err)
		exitCode = CLIExitUsage
		return
	}
	arms := 0
	if len(cost) > 0 {
		arms = len(cost[0])
	}
	log.Info("loaded input", "units", len(reward), "arms", arms)

	opts, err := fitOptions(cmd, log)
	if err != nil {
		OutputError(jsonOutput, "loading input", err)
		exitCode = CLIExitUsage
		return
	}

	var spin *ux.Spinner
	if !jsonOutput && !quietOutput {
		spin = ux.NewSpinner("fitting curve")
		spin.Start()
	}
	curve, err := qini.Fit(cmd.Context(), reward, scores, cost, fitBudget, opts...)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		OutputError(jsonOutput, "fitting curve", err)
		exitCode = CLIExitUsage
		return
	}
	s := curve.Summary()
	log.Info("fit complete", "events", s.Events, "max_spend", s.MaxSpend,
		"final_gain", s.FinalGain, "complete", s.Complete)

	data, err := json.MarshalIndent(curve, "", "  ")
	if err != nil {
		OutputError(jsonOutput, "encoding curve", err)
		exitCode = CLIExitError
		return
	}
	if err := os.WriteFile(fitOutputPath, data, 0644); err != nil {
		OutputError(jsonOutput, "writing curve", err)
		exitCode = CLIExitError
		return
	}
	log.Info("wrote curve", "path", fitOutputPath, "bytes", len(data))

	if jsonOutput {
		outputEnvelope("fit", start, FitResult{
			RunID:      runID,
			Output:     fitOutputPath,
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
		})
		return
	}

	ux.Success(fmt.Sprintf("wrote %s", fitOutputPath))
	fmt.Println(ux.KeyValues(summaryPairs(s)...))
}

// fitOptions resolves fit options from flags and qini.yaml. A flag that
// was explicitly set wins over the config file, so "--replicates 0" can
// switch a configured bootstrap off.
func fitOptions(cmd *cobra.Command, log *logging.Logger) ([]qini.Option, error) {
	flags := cmd.Flags()
	solve := config.Global.Solve

	threads := solve.Threads
	if flags.Changed("threads") {
		threads = fitThreads
	}
	replicates := solve.Replicates
	if flags.Changed("replicates") {
		replicates = fitReplicates
	}
	seed := solve.Seed
	if flags.Changed("seed") {
		seed = fitSeed
	}

	opts := []qini.Option{
		qini.WithLogger(log.Slog()),
		qini.WithThreads(threads),
		qini.WithReplicates(replicates),
		qini.WithSeed(seed),
	}
	if fitPaired {
		opts = append(opts, qini.WithPairedInference())
	}
	if fitNoTargeting {
		opts = append(opts, qini.WithTargeting(false))
	}

	if fitWeightsPath != "" {
		w, err := readVector(fitWeightsPath)
		if err != nil {
			return nil, fmt.Errorf("weights %s: %w", fitWeightsPath, err)
		}
		opts = append(opts, qini.WithSampleWeights(w))
	}
	if fitClustersPath != "" {
		c, err := readIntVector(fitClustersPath)
		if err != nil {
			return nil, fmt.Errorf("clusters %s: %w", fitClustersPath, err)
		}
		opts = append(opts, qini.WithClusters(c))
	}
	if fitTieBreakPath != "" {
		ranks, err := readIntVector(fitTieBreakPath)
		if err != nil {
			return nil, fmt.Errorf("tie-breaker %s: %w", fitTieBreakPath, err)
		}
		opts = append(opts, qini.WithTieBreaker(ranks))
	}
	return opts, nil
}
