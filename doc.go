// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package qini evaluates treatment-allocation policies over multiple
// costly arms as Qini curves: cumulative gain as a function of average
// spend per unit.
//
// # Overview
//
// Given per-unit reward predictions, evaluation scores, and costs for K
// mutually exclusive treatment arms, Fit computes the allocation path a
// rational spender would follow: starting from an all-control assignment,
// repeatedly apply the remaining upgrade with the highest marginal
// reward-per-cost ratio, until an average per-unit budget is exhausted.
// The resulting Curve maps any spend level in [0, budget] to the policy
// value at that spend, scored against the evaluation-score matrix rather
// than the rewards used for ranking, so model selection and evaluation
// can use separate data.
//
// Rewards drive only the ordering. Using one matrix for ranking and
// another for scoring is what makes the curve an honest estimate: pass
// cross-fitted or held-out scores (see IPWScores for randomized designs)
// as the evaluation matrix.
//
// # The Allocation Path
//
// Dominated arms are removed per unit by a convex-hull pass over (cost,
// reward), so each unit contributes a short sequence of upgrades with
// decreasing marginal ratios. A priority queue merges those sequences
// into one global spend order. The path records, per event, the unit,
// the arm it moved to, cumulative spend, and cumulative gain. When the
// budget lands inside an upgrade, the final event is a fractional one
// pinned exactly at the budget, and the curve is marked incomplete;
// queries beyond the fitted budget are then rejected rather than
// extrapolated.
//
// With targeting disabled (WithTargeting(false)), arm choice ignores
// covariates: the hull is computed once on weight-averaged costs and
// rewards, and each hull step is a single event moving the whole
// population to that arm. Such events report PopulationUnit instead of a
// unit index.
//
// # Inference
//
// WithReplicates enables the cluster bootstrap: each replicate resamples
// clusters with replacement, reweights units accordingly, and replays
// the fixed allocation order, giving a standard-error band without
// refitting. WithPairedInference additionally retains every replicate's
// gain path so that two curves fit with the same seed and replicate
// count can be compared with a paired standard error (DifferenceGain,
// IntegratedDifference), which accounts for the covariance induced by
// shared evaluation data.
//
// # Thread Safety
//
// A fitted Curve is immutable and safe for concurrent use. Fit itself is
// safe to call concurrently; bootstrap replicates within one call run on
// an internal worker pool sized by WithThreads, and results do not
// depend on the thread count.
//
// # Usage
//
//	curve, err := qini.Fit(ctx, reward, scores, cost, 0.3,
//	    qini.WithReplicates(200),
//	    qini.WithSeed(42),
//	)
//	if err != nil {
//	    return err
//	}
//
//	gain, stderr, _ := curve.AverageGain(0.1)
//	alloc, _ := curve.AllocationAt(0.1)
//	fmt.Printf("gain at 10%% spend: %.4f +/- %.4f (%d units treated)\n",
//	    gain, stderr, alloc.Len())
package qini
