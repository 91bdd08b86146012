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

import "sort"

// ArmHull reduces one unit's K arms to its upper-left cost/reward envelope.
//
// Description:
//
//	Treatment arms for a unit are points (cost, reward) with an implicit
//	(0, 0) baseline. Only arms on the upper concave envelope of those
//	points are ever worth funding: any arm below the envelope is dominated
//	by a cheaper or more rewarding alternative (or a mix of two). The
//	returned arm indices are ordered by increasing cost with non-increasing
//	marginal ratio (delta reward / delta cost) between consecutive entries.
//	Collinear points are kept, so equal marginal ratios can occur.
//
// Inputs:
//   - cost: Arm costs for one unit. All entries must be > 0.
//   - reward: Arm rewards for one unit, same length as cost.
//
// Outputs:
//   - []int: Arm indices on the envelope, cheapest first. Empty when no
//     arm has positive reward (the unit stays at baseline forever).
//
// Thread Safety: Stateless and safe for concurrent use.
func ArmHull(cost, reward []float64) []int {
	order := make([]int, len(cost))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if cost[ia] != cost[ib] {
			return cost[ia] < cost[ib]
		}
		if reward[ia] != reward[ib] {
			return reward[ia] > reward[ib]
		}
		return ia < ib
	})

	hull := make([]int, 0, len(cost))
	for _, arm := range order {
		r := reward[arm]

		// An arm adding no reward over the current hull top (or over the
		// baseline when the hull is empty) is dominated outright. Equal
		// costs always land here: the cheapest-first scan saw the better
		// same-cost arm already.
		if len(hull) == 0 {
			if r <= 0 {
				continue
			}
		} else if r <= reward[hull[len(hull)-1]] {
			continue
		}

		// Pop hull points falling strictly below the chord from their
		// predecessor to the new arm. Collinear points survive.
		for len(hull) > 0 {
			top := hull[len(hull)-1]
			var baseCost, baseReward float64
			if len(hull) > 1 {
				prev := hull[len(hull)-2]
				baseCost, baseReward = cost[prev], reward[prev]
			}
			topSlope := (reward[top] - baseReward) / (cost[top] - baseCost)
			newSlope := (r - reward[top]) / (cost[arm] - cost[top])
			if newSlope <= topSlope {
				break
			}
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, arm)
	}
	return hull
}

// BuildHulls computes the envelope for every unit in the problem.
//
// A nil entry never occurs; units with no beneficial arm get an empty
// slice and are simply never queued by the path solver.
func BuildHulls(p *Problem) [][]int {
	hulls := make([][]int, p.NumUnits())
	for i := range hulls {
		hulls[i] = ArmHull(p.Cost[i], p.Reward[i])
	}
	return hulls
}
