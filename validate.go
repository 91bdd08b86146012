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
	"fmt"
	"math"

	"github.com/AleutianAI/qini/internal/solver"
)

// buildProblem validates every input and assembles the solver problem.
// All configuration errors surface here, before any solving; the solver
// itself assumes clean inputs.
func buildProblem(reward, scores, cost [][]float64, budget float64, cfg *Config) (*solver.Problem, error) {
	n := len(reward)
	if n == 0 || len(reward[0]) == 0 {
		return nil, fmt.Errorf("reward matrix is empty: %w", ErrEmptyInput)
	}
	k := len(reward[0])

	if err := checkMatrix("reward", reward, n, k, false); err != nil {
		return nil, err
	}
	if err := checkMatrix("scores", scores, n, k, false); err != nil {
		return nil, err
	}
	if err := checkMatrix("cost", cost, n, k, true); err != nil {
		return nil, err
	}

	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return nil, fmt.Errorf("budget %v: %w", budget, ErrInvalidBudget)
	}

	weight, err := normalizeWeights(cfg.SampleWeights, n)
	if err != nil {
		return nil, err
	}

	rank, err := checkTieBreaker(cfg.TieBreaker, n)
	if err != nil {
		return nil, err
	}

	cluster, numClusters, err := checkClusters(cfg.Clusters, n)
	if err != nil {
		return nil, err
	}

	if cfg.Threads < 0 {
		return nil, fmt.Errorf("threads %d: %w", cfg.Threads, ErrInvalidThreads)
	}
	if cfg.Replicates < 0 || cfg.Replicates == 1 {
		return nil, fmt.Errorf("replicates %d: %w", cfg.Replicates, ErrInvalidReplicates)
	}
	if cfg.Paired && cfg.Replicates == 0 {
		return nil, fmt.Errorf("paired inference without replicates: %w", ErrInvalidReplicates)
	}
	if cfg.Replicates > 0 && numClusters < 4 {
		return nil, fmt.Errorf("%d clusters: %w", numClusters, ErrInsufficientClusters)
	}

	return &solver.Problem{
		Reward:      reward,
		Score:       scores,
		Cost:        cost,
		Weight:      weight,
		TieRank:     rank,
		Cluster:     cluster,
		NumClusters: numClusters,
		Budget:      budget,
		Targeting:   cfg.Targeting,
	}, nil
}

// checkMatrix verifies shape and finiteness, and positivity when required.
func checkMatrix(name string, m [][]float64, n, k int, positive bool) error {
	if len(m) != n {
		return fmt.Errorf("%s matrix has %d rows, want %d: %w", name, len(m), n, ErrDimensionMismatch)
	}
	for i, row := range m {
		if len(row) != k {
			return fmt.Errorf("%s row %d has %d columns, want %d: %w", name, i, len(row), k, ErrDimensionMismatch)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s[%d][%d]: %w", name, i, j, ErrNonFiniteValue)
			}
			if positive && v <= 0 {
				return fmt.Errorf("%s[%d][%d] = %v: %w", name, i, j, v, ErrNonPositiveCost)
			}
		}
	}
	return nil
}

// normalizeWeights copies the supplied weights scaled to sum to one, or
// builds uniform weights when none are given.
func normalizeWeights(weights []float64, n int) ([]float64, error) {
	out := make([]float64, n)
	if len(weights) == 0 {
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out, nil
	}
	if len(weights) != n {
		return nil, fmt.Errorf("weights has length %d, want %d: %w", len(weights), n, ErrDimensionMismatch)
	}
	var sum float64
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return nil, fmt.Errorf("weight[%d] = %v: %w", i, w, ErrInvalidWeight)
		}
		sum += w
	}
	for i, w := range weights {
		out[i] = w / sum
	}
	return out, nil
}

// checkTieBreaker copies the rank permutation, or builds the identity.
func checkTieBreaker(ranks []int, n int) ([]int, error) {
	out := make([]int, n)
	if len(ranks) == 0 {
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	if len(ranks) != n {
		return nil, fmt.Errorf("tie breaker has length %d, want %d: %w", len(ranks), n, ErrDimensionMismatch)
	}
	seen := make([]bool, n)
	for i, r := range ranks {
		if r < 0 || r >= n || seen[r] {
			return nil, fmt.Errorf("tie breaker entry %d = %d: %w", i, r, ErrInvalidTieBreaker)
		}
		seen[r] = true
		out[i] = r
	}
	return out, nil
}

// checkClusters copies the cluster assignment, verifying that the ids form
// a contiguous zero-based range, or assigns singleton clusters.
func checkClusters(clusters []int, n int) ([]int, int, error) {
	out := make([]int, n)
	if len(clusters) == 0 {
		for i := range out {
			out[i] = i
		}
		return out, n, nil
	}
	if len(clusters) != n {
		return nil, 0, fmt.Errorf("clusters has length %d, want %d: %w", len(clusters), n, ErrDimensionMismatch)
	}
	maxID := -1
	for i, g := range clusters {
		if g < 0 || g >= n {
			return nil, 0, fmt.Errorf("cluster[%d] = %d: %w", i, g, ErrInvalidCluster)
		}
		if g > maxID {
			maxID = g
		}
		out[i] = g
	}
	numClusters := maxID + 1
	seen := make([]bool, numClusters)
	for _, g := range out {
		seen[g] = true
	}
	for id, ok := range seen {
		if !ok {
			return nil, 0, fmt.Errorf("cluster id %d is unused: %w", id, ErrInvalidCluster)
		}
	}
	return out, numClusters, nil
}
