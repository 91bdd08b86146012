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
)

const propensityRowTol = 1e-6

// ScoreOption configures IPWScores.
type ScoreOption func(*scoreConfig)

type scoreConfig struct {
	propensities [][]float64
}

// WithPropensities supplies the n×(K+1) assignment-probability matrix for
// a design with known, possibly unit-varying, arm probabilities. Column 0
// is the control probability and column k (1 ≤ k ≤ K) the probability of
// arm k-1. Each row must sum to one. When omitted, every arm is assumed
// equally likely.
func WithPropensities(p [][]float64) ScoreOption {
	return func(cfg *scoreConfig) { cfg.propensities = p }
}

// IPWScores builds an evaluation-score matrix from a randomized design by
// inverse-propensity weighting.
//
// Description:
//
//	For unit i assigned arm w (0 = control) with outcome y, the score for
//	arm k is 1{w=k+1}·y/p[k+1] − 1{w=0}·y/p[0]. Under the supplied design
//	probabilities the column means are unbiased for each arm's average
//	effect against control, which makes the matrix suitable as the
//	evaluation scores passed to Fit. No outcome or effect model is
//	estimated here; given propensities are taken at face value.
//
// Inputs:
//   - outcomes: Observed outcome per unit, length n.
//   - assignments: Assigned arm per unit in 0..numArms, 0 meaning control.
//   - numArms: Number of treatment arms K, excluding control.
//   - opts: Optional design probabilities via WithPropensities.
//
// Outputs:
//   - [][]float64: n×numArms score matrix.
//   - error: ErrEmptyInput, ErrDimensionMismatch, ErrNonFiniteValue,
//     ErrInvalidAssignment, or ErrInvalidPropensity.
//
// Thread Safety: Safe for concurrent use.
func IPWScores(outcomes []float64, assignments []int, numArms int, opts ...ScoreOption) ([][]float64, error) {
	var cfg scoreConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	n := len(outcomes)
	if n == 0 {
		return nil, fmt.Errorf("outcomes: %w", ErrEmptyInput)
	}
	if numArms < 1 {
		return nil, fmt.Errorf("arm count %d: %w", numArms, ErrDimensionMismatch)
	}
	if len(assignments) != n {
		return nil, fmt.Errorf("assignments length %d, outcomes length %d: %w",
			len(assignments), n, ErrDimensionMismatch)
	}
	for i, y := range outcomes {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("outcome for unit %d: %w", i, ErrNonFiniteValue)
		}
	}
	for i, w := range assignments {
		if w < 0 || w > numArms {
			return nil, fmt.Errorf("unit %d assigned arm %d with %d arms: %w",
				i, w, numArms, ErrInvalidAssignment)
		}
	}

	props, err := resolvePropensities(cfg.propensities, n, numArms)
	if err != nil {
		return nil, err
	}

	scores := make([][]float64, n)
	for i := range scores {
		row := make([]float64, numArms)
		w := assignments[i]
		if w == 0 {
			control := outcomes[i] / props[i][0]
			for k := range row {
				row[k] = -control
			}
		} else {
			row[w-1] = outcomes[i] / props[i][w]
		}
		scores[i] = row
	}
	return scores, nil
}

// resolvePropensities validates a supplied propensity matrix or builds the
// uniform default.
func resolvePropensities(supplied [][]float64, n, numArms int) ([][]float64, error) {
	cols := numArms + 1
	if supplied == nil {
		uniform := make([]float64, cols)
		for j := range uniform {
			uniform[j] = 1 / float64(cols)
		}
		props := make([][]float64, n)
		for i := range props {
			props[i] = uniform
		}
		return props, nil
	}

	if len(supplied) != n {
		return nil, fmt.Errorf("propensities have %d rows, want %d: %w",
			len(supplied), n, ErrDimensionMismatch)
	}
	for i, row := range supplied {
		if len(row) != cols {
			return nil, fmt.Errorf("propensity row %d has %d columns, want %d: %w",
				i, len(row), cols, ErrDimensionMismatch)
		}
		sum := 0.0
		for j, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 || p >= 1 {
				return nil, fmt.Errorf("propensity for unit %d, column %d: %w",
					i, j, ErrInvalidPropensity)
			}
			sum += p
		}
		if math.Abs(sum-1) > propensityRowTol {
			return nil, fmt.Errorf("propensity row %d sums to %g: %w", i, sum, ErrInvalidPropensity)
		}
	}
	return supplied, nil
}
