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
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestIPWScores_UniformDesign(t *testing.T) {
	// Three arms assumed equally likely, so every propensity is 1/3.
	outcomes := []float64{3, 1.5, 2}
	assignments := []int{1, 0, 2}

	scores, err := IPWScores(outcomes, assignments, 2)
	require.NoError(t, err)

	want := [][]float64{
		{9, 0},       // arm 1: 3 / (1/3) in column 0
		{-4.5, -4.5}, // control: -1.5 / (1/3) in every column
		{0, 6},       // arm 2: 2 / (1/3) in column 1
	}
	require.Len(t, scores, 3)
	for i := range want {
		for k := range want[i] {
			assert.InDelta(t, want[i][k], scores[i][k], 1e-12, "unit %d arm %d", i, k)
		}
	}
}

func TestIPWScores_SuppliedPropensities(t *testing.T) {
	outcomes := []float64{2, 4}
	assignments := []int{0, 1}
	props := [][]float64{{0.5, 0.5}, {0.25, 0.75}}

	scores, err := IPWScores(outcomes, assignments, 1, WithPropensities(props))
	require.NoError(t, err)

	assert.InDelta(t, -4.0, scores[0][0], 1e-12)
	assert.InDelta(t, 16.0/3.0, scores[1][0], 1e-12)
}

func TestIPWScores_ColumnMeansRecoverEffects(t *testing.T) {
	t.Run("balanced design is exact", func(t *testing.T) {
		// Half control with outcome 1, half treated with outcome 3 and
		// equal assignment probability: the column mean must be exactly
		// the effect, 2.
		const n = 100
		outcomes := make([]float64, n)
		assignments := make([]int, n)
		for i := range outcomes {
			if i%2 == 0 {
				outcomes[i] = 1
			} else {
				outcomes[i] = 3
				assignments[i] = 1
			}
		}

		scores, err := IPWScores(outcomes, assignments, 1)
		require.NoError(t, err)

		col := make([]float64, n)
		for i := range scores {
			col[i] = scores[i][0]
		}
		assert.InDelta(t, 2.0, stat.Mean(col, nil), 1e-12)
	})

	t.Run("randomized draw is unbiased", func(t *testing.T) {
		// Arm effects +2 and -1 against control, Gaussian noise. The
		// column means should land near the true effects; the tolerance
		// is several standard errors wide at this sample size.
		const n = 10000
		rng := rand.New(rand.NewPCG(3, 0))

		outcomes := make([]float64, n)
		assignments := make([]int, n)
		for i := range outcomes {
			w := rng.IntN(3)
			assignments[i] = w
			base := 1 + rng.NormFloat64()
			switch w {
			case 1:
				outcomes[i] = base + 2
			case 2:
				outcomes[i] = base - 1
			}
		}

		scores, err := IPWScores(outcomes, assignments, 2)
		require.NoError(t, err)

		col0 := make([]float64, n)
		col1 := make([]float64, n)
		for i := range scores {
			col0[i] = scores[i][0]
			col1[i] = scores[i][1]
		}
		assert.InDelta(t, 2.0, stat.Mean(col0, nil), 0.5)
		assert.InDelta(t, -1.0, stat.Mean(col1, nil), 0.5)
	})
}

func TestIPWScores_Validation(t *testing.T) {
	outcomes := []float64{1, 2}
	assignments := []int{0, 1}

	tests := []struct {
		name        string
		outcomes    []float64
		assignments []int
		numArms     int
		opts        []ScoreOption
		wantErr     error
	}{
		{
			name:        "empty outcomes",
			outcomes:    nil,
			assignments: nil,
			numArms:     1,
			wantErr:     ErrEmptyInput,
		},
		{
			name:        "no arms",
			outcomes:    outcomes,
			assignments: assignments,
			numArms:     0,
			wantErr:     ErrDimensionMismatch,
		},
		{
			name:        "assignment length mismatch",
			outcomes:    outcomes,
			assignments: []int{0},
			numArms:     1,
			wantErr:     ErrDimensionMismatch,
		},
		{
			name:        "non-finite outcome",
			outcomes:    []float64{1, math.Inf(1)},
			assignments: assignments,
			numArms:     1,
			wantErr:     ErrNonFiniteValue,
		},
		{
			name:        "arm label out of range",
			outcomes:    outcomes,
			assignments: []int{0, 2},
			numArms:     1,
			wantErr:     ErrInvalidAssignment,
		},
		{
			name:        "negative arm label",
			outcomes:    outcomes,
			assignments: []int{-1, 1},
			numArms:     1,
			wantErr:     ErrInvalidAssignment,
		},
		{
			name:        "propensity row count mismatch",
			outcomes:    outcomes,
			assignments: assignments,
			numArms:     1,
			opts:        []ScoreOption{WithPropensities([][]float64{{0.5, 0.5}})},
			wantErr:     ErrDimensionMismatch,
		},
		{
			name:        "propensity column count mismatch",
			outcomes:    outcomes,
			assignments: assignments,
			numArms:     1,
			opts:        []ScoreOption{WithPropensities([][]float64{{0.5, 0.5}, {0.5, 0.25, 0.25}})},
			wantErr:     ErrDimensionMismatch,
		},
		{
			name:        "propensity of zero",
			outcomes:    outcomes,
			assignments: assignments,
			numArms:     1,
			opts:        []ScoreOption{WithPropensities([][]float64{{0, 1}, {0.5, 0.5}})},
			wantErr:     ErrInvalidPropensity,
		},
		{
			name:        "propensity row does not sum to one",
			outcomes:    outcomes,
			assignments: assignments,
			numArms:     1,
			opts:        []ScoreOption{WithPropensities([][]float64{{0.5, 0.4}, {0.5, 0.5}})},
			wantErr:     ErrInvalidPropensity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scores, err := IPWScores(tc.outcomes, tc.assignments, tc.numArms, tc.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, scores)
		})
	}
}

func TestIPWScores_FeedsFit(t *testing.T) {
	// The constructed matrix is directly usable as an evaluation-score
	// input alongside a reward ranking.
	outcomes := []float64{3, 1, 2, 1}
	assignments := []int{1, 0, 1, 0}

	scores, err := IPWScores(outcomes, assignments, 1)
	require.NoError(t, err)

	reward := [][]float64{{2}, {1.5}, {1}, {0.5}}
	cost := [][]float64{{1}, {1}, {1}, {1}}
	curve, err := Fit(context.Background(), reward, scores, cost, 1.0)
	require.NoError(t, err)
	assert.True(t, curve.Complete())
}
