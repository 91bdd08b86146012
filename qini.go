// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package qini

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/qini/internal/solver"
)

// Fit solves the budget-constrained multi-armed allocation problem and
// returns the fitted Qini curve.
//
// Description:
//
//	Fit reduces each unit's arms to its cost/reward hull, merges all
//	hulls into one globally optimal allocation path up to the budget
//	(average spend per unit), and, when replicates are requested, runs
//	the cluster bootstrap to attach a standard error to every point on
//	the path. The reward matrix ranks candidate allocations; the scores
//	matrix is an independent evaluation signal used only to value them.
//
//	The returned curve is immutable and answers interpolated queries at
//	any spend within the fitted range. Input matrices are only read for
//	the duration of the call and are not retained.
//
// Inputs:
//   - ctx: Context for trace propagation. The solve itself is
//     synchronous and runs to completion; it is not cancellable.
//   - reward: n x K ranking signal (estimated treatment effects).
//   - scores: n x K independent evaluation scores, same shape.
//   - cost: n x K positive treatment costs, same shape.
//   - budget: Maximum average spend per unit. Must be positive.
//   - opts: Optional settings; see the With* options.
//
// Outputs:
//   - *Curve: The fitted curve. Nil on error.
//   - error: A configuration error (see errors.go); no partial result
//     accompanies it.
//
// Thread Safety: Safe for concurrent use; all state is call-local.
func Fit(ctx context.Context, reward, scores, cost [][]float64, budget float64, opts ...Option) (*Curve, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, span := tracer.Start(ctx, "qini.Fit",
		trace.WithAttributes(
			attribute.Int("units", len(reward)),
			attribute.Float64("budget", budget),
			attribute.Int("replicates", cfg.Replicates),
			attribute.Bool("targeting", cfg.Targeting),
		),
	)
	defer span.End()

	start := time.Now()
	problem, err := buildProblem(reward, scores, cost, budget, &cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordSolve(ctx, time.Since(start), 0, 0, cfg.Targeting, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("arms", problem.NumArms()),
		attribute.Int("clusters", problem.NumClusters),
		attribute.Bool("paired", cfg.Paired),
	)

	path := solver.SolvePath(problem)
	logger.Debug("allocation path solved",
		slog.Int("units", problem.NumUnits()),
		slog.Int("arms", problem.NumArms()),
		slog.Int("events", path.Len()),
		slog.Bool("complete", path.Complete),
	)

	curve := &Curve{
		spend:      path.Spend,
		gain:       path.Gain,
		units:      path.Unit,
		arms:       path.Arm,
		fractions:  path.Fraction,
		complete:   path.Complete,
		budget:     budget,
		numUnits:   problem.NumUnits(),
		numArms:    problem.NumArms(),
		targeting:  cfg.Targeting,
		seed:       cfg.Seed,
		replicates: cfg.Replicates,
	}

	if cfg.Replicates > 0 {
		_, bootSpan := tracer.Start(ctx, "qini.Bootstrap",
			trace.WithAttributes(
				attribute.Int("replicates", cfg.Replicates),
				attribute.Int("threads", cfg.Threads),
			),
		)
		result := solver.Bootstrap(problem, path, solver.BootstrapConfig{
			Replicates: cfg.Replicates,
			Threads:    cfg.Threads,
			Seed:       cfg.Seed,
			Paired:     cfg.Paired,
			Logger:     logger,
		})
		bootSpan.End()

		curve.stderr = result.StdErr
		curve.repGains = result.Replicates
	}

	recordSolve(ctx, time.Since(start), path.Len(), cfg.Replicates, cfg.Targeting, nil)
	span.SetAttributes(
		attribute.Int("path_events", path.Len()),
		attribute.Bool("complete", path.Complete),
	)
	span.SetStatus(codes.Ok, "")

	logger.Debug("fit complete",
		slog.Int("events", path.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return curve, nil
}
