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

func TestArmHull_SkipsDominatedArm(t *testing.T) {
	// Arm 1 sits below the chord from arm 0 to arm 2 and must never be
	// reachable: the envelope goes baseline -> arm 0 -> arm 2.
	cost := []float64{1, 2, 3}
	reward := []float64{1, 1.2, 3}

	hull := ArmHull(cost, reward)

	require.Equal(t, []int{0, 2}, hull)
}

func TestArmHull_SingleArm(t *testing.T) {
	assert.Equal(t, []int{0}, ArmHull([]float64{2}, []float64{0.5}))
	assert.Empty(t, ArmHull([]float64{2}, []float64{0}))
	assert.Empty(t, ArmHull([]float64{2}, []float64{-1}))
}

func TestArmHull_AllNegativeRewards(t *testing.T) {
	hull := ArmHull([]float64{1, 2, 3}, []float64{-0.1, -2, -0.5})
	assert.Empty(t, hull)
}

func TestArmHull_CollinearPointsKept(t *testing.T) {
	// All three arms lie on the same ray from the origin. Collinear
	// points stay on the envelope so allocation can advance through them
	// one at a time.
	hull := ArmHull([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.Equal(t, []int{0, 1, 2}, hull)
}

func TestArmHull_EqualCostKeepsBestReward(t *testing.T) {
	cost := []float64{1, 1, 2}
	reward := []float64{2, 3, 4}

	hull := ArmHull(cost, reward)

	require.Equal(t, []int{1, 2}, hull)
}

func TestArmHull_MarginalRatiosNonIncreasing(t *testing.T) {
	cost := []float64{0.5, 1.5, 2.5, 4, 6}
	reward := []float64{1, 2.2, 2.4, 3.1, 3.2}

	hull := ArmHull(cost, reward)
	require.NotEmpty(t, hull)

	prevRatio := reward[hull[0]] / cost[hull[0]]
	prevCost := cost[hull[0]]
	prevReward := reward[hull[0]]
	for _, arm := range hull[1:] {
		ratio := (reward[arm] - prevReward) / (cost[arm] - prevCost)
		assert.LessOrEqual(t, ratio, prevRatio, "arm %d breaks concavity", arm)
		assert.Greater(t, cost[arm], prevCost)
		assert.Greater(t, reward[arm], prevReward)
		prevRatio, prevCost, prevReward = ratio, cost[arm], reward[arm]
	}
}

func TestBuildHulls_MixedUnits(t *testing.T) {
	p := newTestProblem(
		[][]float64{{1, 1.2, 3}, {-1, -2, -3}, {2, 4, 1}},
		[][]float64{{1, 1.2, 3}, {-1, -2, -3}, {2, 4, 1}},
		[][]float64{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}},
		100,
	)

	hulls := BuildHulls(p)

	require.Len(t, hulls, 3)
	assert.Equal(t, []int{0, 2}, hulls[0])
	assert.Empty(t, hulls[1])
	assert.Equal(t, []int{0, 1}, hulls[2])
}
