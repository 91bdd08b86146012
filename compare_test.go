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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairedCurves fits two paired curves over the same four units with the
// same seed so they are comparable replicate-by-replicate. Curve a ranks
// perfectly (gains 1.0, 1.75, 2.25, 2.5); curve b has unit value but no
// signal (gains 0.25, 0.5, 0.75, 1.0).
func pairedCurves(t *testing.T, opts ...Option) (a, b *Curve) {
	t.Helper()

	cost := [][]float64{{1}, {1}, {1}, {1}}
	base := []Option{WithReplicates(20), WithPairedInference(), WithSeed(11)}

	strong := [][]float64{{4}, {3}, {2}, {1}}
	a, err := Fit(context.Background(), strong, strong, cost, 1.0, append(base, opts...)...)
	require.NoError(t, err)

	flat := [][]float64{{1}, {1}, {1}, {1}}
	b, err = Fit(context.Background(), flat, flat, cost, 1.0, append(base, opts...)...)
	require.NoError(t, err)
	return a, b
}

func TestDifferenceGain(t *testing.T) {
	a, b := pairedCurves(t)

	t.Run("point estimate", func(t *testing.T) {
		est, se, err := DifferenceGain(a, b, 0.5)
		require.NoError(t, err)
		assert.InDelta(t, 1.25, est, 1e-12)
		assert.GreaterOrEqual(t, se, 0.0)
	})

	t.Run("antisymmetric with swap-invariant stderr", func(t *testing.T) {
		estAB, seAB, err := DifferenceGain(a, b, 0.5)
		require.NoError(t, err)
		estBA, seBA, err := DifferenceGain(b, a, 0.5)
		require.NoError(t, err)

		assert.Equal(t, estAB, -estBA)
		assert.Equal(t, seAB, seBA)
	})

	t.Run("identical curves differ by zero", func(t *testing.T) {
		a2, _ := pairedCurves(t)
		est, se, err := DifferenceGain(a, a2, 0.7)
		require.NoError(t, err)
		assert.Zero(t, est)
		assert.Zero(t, se, "same seed and inputs replay identical replicates")
	})

	t.Run("complete curves compare beyond max spend", func(t *testing.T) {
		est, _, err := DifferenceGain(a, b, 2.0)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, est, 1e-12)
	})
}

func TestDifferenceGain_Preconditions(t *testing.T) {
	a, b := pairedCurves(t)

	t.Run("unpaired curve", func(t *testing.T) {
		cost := [][]float64{{1}, {1}, {1}, {1}}
		strong := [][]float64{{4}, {3}, {2}, {1}}
		plain, err := Fit(context.Background(), strong, strong, cost, 1.0,
			WithReplicates(20), WithSeed(11))
		require.NoError(t, err)

		_, _, err = DifferenceGain(plain, b, 0.5)
		assert.ErrorIs(t, err, ErrPairedUnavailable)
		_, _, err = DifferenceGain(a, plain, 0.5)
		assert.ErrorIs(t, err, ErrPairedUnavailable)
	})

	t.Run("seed mismatch", func(t *testing.T) {
		a2, _ := pairedCurves(t, WithSeed(12))
		_, _, err := DifferenceGain(a, a2, 0.5)
		assert.ErrorIs(t, err, ErrCurveMismatch)
	})

	t.Run("replicate count mismatch", func(t *testing.T) {
		a2, _ := pairedCurves(t, WithReplicates(30))
		_, _, err := DifferenceGain(a, a2, 0.5)
		assert.ErrorIs(t, err, ErrCurveMismatch)
	})

	t.Run("unit count mismatch", func(t *testing.T) {
		cost := [][]float64{{1}, {1}, {1}, {1}, {1}}
		reward := [][]float64{{5}, {4}, {3}, {2}, {1}}
		wider, err := Fit(context.Background(), reward, reward, cost, 1.0,
			WithReplicates(20), WithPairedInference(), WithSeed(11))
		require.NoError(t, err)

		_, _, err = DifferenceGain(a, wider, 0.5)
		assert.ErrorIs(t, err, ErrCurveMismatch)
	})
}

func TestIntegratedDifference(t *testing.T) {
	a, b := pairedCurves(t)

	t.Run("trapezoid area over the union grid", func(t *testing.T) {
		// Diff at 0, 0.25, ..., 1.0 is 0, 0.75, 1.25, 1.5, 1.5;
		// trapezoids of width 0.25 sum to 1.0625.
		est, se, err := IntegratedDifference(a, b, 1.0)
		require.NoError(t, err)
		assert.InDelta(t, 1.0625, est, 1e-12)
		assert.GreaterOrEqual(t, se, 0.0)
	})

	t.Run("antisymmetric with swap-invariant stderr", func(t *testing.T) {
		estAB, seAB, err := IntegratedDifference(a, b, 1.0)
		require.NoError(t, err)
		estBA, seBA, err := IntegratedDifference(b, a, 1.0)
		require.NoError(t, err)

		assert.Equal(t, estAB, -estBA)
		assert.Equal(t, seAB, seBA)
	})

	t.Run("zero max spend", func(t *testing.T) {
		est, se, err := IntegratedDifference(a, b, 0)
		require.NoError(t, err)
		assert.Zero(t, est)
		assert.Zero(t, se)
	})

	t.Run("identical curves integrate to zero", func(t *testing.T) {
		a2, _ := pairedCurves(t)
		est, se, err := IntegratedDifference(a, a2, 1.0)
		require.NoError(t, err)
		assert.Zero(t, est)
		assert.Zero(t, se)
	})

	t.Run("incomplete curve rejects out-of-range limit", func(t *testing.T) {
		cost := [][]float64{{1}, {1}, {1}, {1}}
		strong := [][]float64{{4}, {3}, {2}, {1}}
		short, err := Fit(context.Background(), strong, strong, cost, 0.6,
			WithReplicates(20), WithPairedInference(), WithSeed(11))
		require.NoError(t, err)
		require.False(t, short.Complete())

		_, _, err = IntegratedDifference(short, short, 0.9)
		assert.ErrorIs(t, err, ErrSpendOutOfRange)
	})
}
