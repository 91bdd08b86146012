// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProblem builds a targeted problem with uniform weights, identity
// tie ranks, and singleton clusters.
func newTestProblem(reward, score, cost [][]float64, budget float64) *Problem {
	n := len(reward)
	weight := make([]float64, n)
	rank := make([]int, n)
	cluster := make([]int, n)
	for i := 0; i < n; i++ {
		weight[i] = 1 / float64(n)
		rank[i] = i
		cluster[i] = i
	}
	return &Problem{
		Reward:      reward,
		Score:       score,
		Cost:        cost,
		Weight:      weight,
		TieRank:     rank,
		Cluster:     cluster,
		NumClusters: n,
		Budget:      budget,
		Targeting:   true,
	}
}

func TestSolvePath_MonotoneSpendAndGain(t *testing.T) {
	reward := [][]float64{
		{0.4, 1.0},
		{1.5, 2.0},
		{0.1, 0.9},
	}
	cost := [][]float64{
		{1, 3},
		{2, 5},
		{1, 2},
	}
	p := newTestProblem(reward, reward, cost, 100)

	path := SolvePath(p)

	require.True(t, path.Complete)
	require.Greater(t, path.Len(), 0)
	for i := 1; i < path.Len(); i++ {
		assert.Greater(t, path.Spend[i], path.Spend[i-1])
		assert.GreaterOrEqual(t, path.Gain[i], path.Gain[i-1])
	}
}

func TestSolvePath_PopsBestRatioFirst(t *testing.T) {
	// Unit 1's first hull arm has the highest reward-per-cost ratio and
	// must be funded first.
	reward := [][]float64{
		{1.0},
		{3.0},
		{0.5},
	}
	cost := [][]float64{
		{1},
		{1},
		{1},
	}
	p := newTestProblem(reward, reward, cost, 100)

	path := SolvePath(p)

	require.Equal(t, []int{1, 0, 2}, path.Unit)
	assert.Equal(t, []int{0, 0, 0}, path.Arm)
}

func TestSolvePath_BudgetTruncation(t *testing.T) {
	reward := [][]float64{{2}, {1}}
	score := [][]float64{{2}, {1}}
	cost := [][]float64{{1}, {1}}
	p := newTestProblem(reward, score, cost, 0.75)

	path := SolvePath(p)

	require.False(t, path.Complete)
	require.Equal(t, 2, path.Len())

	// First event funds unit 0 fully: spend 0.5, gain 1.0.
	assert.InDelta(t, 0.5, path.Spend[0], 1e-12)
	assert.InDelta(t, 1.0, path.Gain[0], 1e-12)
	assert.Equal(t, 1.0, path.Fraction[0])

	// The remaining 0.25 of budget buys half of unit 1's upgrade; the
	// event is pinned at exactly the budget.
	assert.Equal(t, 0.75, path.Spend[1])
	assert.InDelta(t, 1.25, path.Gain[1], 1e-12)
	assert.InDelta(t, 0.5, path.Fraction[1], 1e-12)
	assert.Equal(t, 1, path.Unit[1])
}

func TestSolvePath_ExactBudgetBoundary(t *testing.T) {
	reward := [][]float64{{2}, {1}}
	cost := [][]float64{{1}, {1}}

	t.Run("budget covers everything exactly", func(t *testing.T) {
		p := newTestProblem(reward, reward, cost, 1.0)
		path := SolvePath(p)

		require.True(t, path.Complete)
		require.Equal(t, 2, path.Len())
		assert.Equal(t, 1.0, path.Spend[1])
	})

	t.Run("budget consumed before next upgrade", func(t *testing.T) {
		p := newTestProblem(reward, reward, cost, 0.5)
		path := SolvePath(p)

		// Unit 0 lands exactly on the budget; unit 1 gets nothing and no
		// zero-width event is emitted.
		require.False(t, path.Complete)
		require.Equal(t, 1, path.Len())
		assert.Equal(t, 0.5, path.Spend[0])
		assert.Equal(t, 0, path.Unit[0])
	})
}

func TestSolvePath_TieBreaker(t *testing.T) {
	reward := [][]float64{{1}, {1}}
	cost := [][]float64{{1}, {1}}

	t.Run("identity ranks favor lower index", func(t *testing.T) {
		p := newTestProblem(reward, reward, cost, 100)
		path := SolvePath(p)
		require.Equal(t, []int{0, 1}, path.Unit)
	})

	t.Run("reversed ranks flip the order", func(t *testing.T) {
		p := newTestProblem(reward, reward, cost, 100)
		p.TieRank = []int{1, 0}
		path := SolvePath(p)
		require.Equal(t, []int{1, 0}, path.Unit)
	})

	t.Run("identical inputs give identical paths", func(t *testing.T) {
		p := newTestProblem(reward, reward, cost, 100)
		first := SolvePath(p)
		second := SolvePath(p)
		require.Equal(t, first, second)
	})
}

func TestSolvePath_DegenerateUnitNeverAllocated(t *testing.T) {
	reward := [][]float64{
		{1, 2},
		{-0.5, -2},
		{0.5, 1},
	}
	cost := [][]float64{
		{1, 2},
		{1, 2},
		{1, 2},
	}
	p := newTestProblem(reward, reward, cost, 1000)

	path := SolvePath(p)

	require.True(t, path.Complete)
	assert.NotContains(t, path.Unit, 1)
}

func TestSolvePath_SingleArmClassicQini(t *testing.T) {
	// K=1 with all-positive rewards is the classical Qini setting: units
	// fund in decreasing reward/cost order and the curve is concave.
	reward := [][]float64{{5}, {3}, {8}, {1}, {2}}
	cost := [][]float64{{2}, {1}, {2}, {1}, {2}}
	p := newTestProblem(reward, reward, cost, 100)

	path := SolvePath(p)

	require.True(t, path.Complete)
	require.Equal(t, 5, path.Len())

	// Ratios: unit 2 (4.0), unit 0 (2.5), unit 1 (3.0), unit 3 (1.0),
	// unit 4 (1.0) -> order 2, 1, 0, 3, 4 (3 before 4 by tie rank).
	assert.Equal(t, []int{2, 1, 0, 3, 4}, path.Unit)

	prev := path.Gain[0] / path.Spend[0]
	for i := 1; i < path.Len(); i++ {
		slope := (path.Gain[i] - path.Gain[i-1]) / (path.Spend[i] - path.Spend[i-1])
		assert.LessOrEqual(t, slope, prev+1e-12)
		prev = slope
	}
}

func TestSolvePath_RanksByRewardScoresByEvaluation(t *testing.T) {
	// Unit 0 looks great to the ranking signal but the evaluation scores
	// disagree; the order must follow rewards while gain follows scores.
	reward := [][]float64{{10}, {1}}
	score := [][]float64{{0.1}, {5}}
	cost := [][]float64{{1}, {1}}
	p := newTestProblem(reward, score, cost, 100)

	path := SolvePath(p)

	require.Equal(t, []int{0, 1}, path.Unit)
	assert.InDelta(t, 0.05, path.Gain[0], 1e-12)
	assert.InDelta(t, 2.55, path.Gain[1], 1e-12)
}

func TestSolvePath_MultiArmUpgrades(t *testing.T) {
	// One unit with a two-step hull: the second entry only enters the
	// queue after the first is funded, and the unit appears twice.
	reward := [][]float64{{1, 1.5}}
	cost := [][]float64{{1, 2}}
	p := newTestProblem(reward, reward, cost, 100)

	path := SolvePath(p)

	require.True(t, path.Complete)
	require.Equal(t, []int{0, 0}, path.Unit)
	require.Equal(t, []int{0, 1}, path.Arm)
	assert.InDelta(t, 1.0, path.Spend[0], 1e-12)
	assert.InDelta(t, 2.0, path.Spend[1], 1e-12)
	assert.InDelta(t, 1.0, path.Gain[0], 1e-12)
	assert.InDelta(t, 1.5, path.Gain[1], 1e-12)
}

func TestSolvePath_UniformPolicy(t *testing.T) {
	// Average rewards put arm 0 on the hull first (ratio 1.5) then arm 1
	// (ratio 0.5); each hull step is one population-wide event.
	reward := [][]float64{
		{1, 2},
		{2, 3},
	}
	score := [][]float64{
		{0.5, 1},
		{1.5, 2},
	}
	cost := [][]float64{
		{1, 3},
		{1, 3},
	}
	p := newTestProblem(reward, score, cost, 100)
	p.Targeting = false

	path := SolvePath(p)

	require.True(t, path.Complete)
	require.Equal(t, []int{PopulationUnit, PopulationUnit}, path.Unit)
	require.Equal(t, []int{0, 1}, path.Arm)
	assert.Equal(t, []float64{1, 1}, path.Fraction)

	assert.InDelta(t, 1.0, path.Spend[0], 1e-12)
	assert.InDelta(t, 3.0, path.Spend[1], 1e-12)
	assert.InDelta(t, 1.0, path.Gain[0], 1e-12)
	assert.InDelta(t, 1.5, path.Gain[1], 1e-12)
}

func TestSolvePath_UniformHeterogeneousCosts(t *testing.T) {
	// Unit 1 gets cheaper moving from arm 0 to arm 1, so per-unit spend
	// deltas would run backwards; the averaged hull step keeps the grid
	// ascending.
	reward := [][]float64{
		{2, 3},
		{4, 4},
	}
	cost := [][]float64{
		{1, 5},
		{4, 2},
	}
	p := newTestProblem(reward, reward, cost, 10)
	p.Targeting = false

	path := SolvePath(p)

	require.True(t, path.Complete)
	require.Equal(t, 2, path.Len())
	for i := 1; i < path.Len(); i++ {
		require.Greater(t, path.Spend[i], path.Spend[i-1])
	}

	// Weight-averaged costs are 2.5 and 3.5, averaged scores 3 and 3.5.
	assert.InDelta(t, 2.5, path.Spend[0], 1e-12)
	assert.InDelta(t, 3.5, path.Spend[1], 1e-12)
	assert.InDelta(t, 3.0, path.Gain[0], 1e-12)
	assert.InDelta(t, 3.5, path.Gain[1], 1e-12)
	assert.Equal(t, []int{0, 1}, path.Arm)
}

func TestSolvePath_UniformTruncatesMidStep(t *testing.T) {
	reward := [][]float64{{1}, {1}}
	cost := [][]float64{{1}, {1}}
	p := newTestProblem(reward, reward, cost, 0.75)
	p.Targeting = false

	path := SolvePath(p)

	require.False(t, path.Complete)
	require.Equal(t, 1, path.Len())
	assert.Equal(t, 0.75, path.Spend[0])
	assert.InDelta(t, 0.75, path.Gain[0], 1e-12)
	assert.InDelta(t, 0.75, path.Fraction[0], 1e-12)
	assert.Equal(t, PopulationUnit, path.Unit[0])
}

func TestSolvePath_NoBeneficialArms(t *testing.T) {
	reward := [][]float64{{-1}, {-2}}
	cost := [][]float64{{1}, {1}}
	p := newTestProblem(reward, reward, cost, 10)

	path := SolvePath(p)

	require.True(t, path.Complete)
	assert.Equal(t, 0, path.Len())
}
