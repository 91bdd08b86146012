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

import "gonum.org/v1/gonum/floats"

// SolvePath merges the per-unit hulls into one budget-constrained global
// allocation path.
//
// Description:
//
//	The solver repeatedly funds the single most cost-effective pending
//	upgrade anywhere in the population: each unit exposes its next
//	unreached hull arm at the marginal ratio that advance would realize,
//	and a max-heap yields the global best. Ratios rank by the reward
//	matrix; cumulative gain is scored with the independent evaluation
//	scores, so the ranking signal never evaluates itself. Ties pop by
//	tie rank. The loop stops when the heap empties (Complete = true) or
//	when the next upgrade no longer fits the budget, in which case the
//	affordable fraction is emitted as a final event pinned at exactly
//	Spend == budget.
//
//	With Targeting disabled the population shares one hull built from
//	weight-averaged costs and rewards, and every hull step emits a single
//	event moving the whole population to that arm at the weight-averaged
//	cost and evaluation score. Averaged step costs increase along the
//	hull, so spend stays strictly increasing even when individual units'
//	costs move the other way between arms.
//
// Inputs:
//   - p: Validated problem. Must not be nil.
//
// Outputs:
//   - *Path: The fitted path. Never nil; may have zero events when no
//     unit has a beneficial arm.
//
// Thread Safety: Stateless and safe for concurrent use.
func SolvePath(p *Problem) *Path {
	if p.Targeting {
		return solveTargeted(p)
	}
	return solveUniform(p)
}

func solveTargeted(p *Problem) *Path {
	n := p.NumUnits()
	hulls := BuildHulls(p)

	events := 0
	for _, h := range hulls {
		events += len(h)
	}
	path := newPath(events)

	queue := newUpgradeQueue(n, p.TieRank)
	for i := 0; i < n; i++ {
		if len(hulls[i]) == 0 {
			continue
		}
		queue.push(queueEntry{unit: i, pos: 0, ratio: hullRatio(p, hulls[i], i, 0)})
	}

	current := make([]int, n)
	for i := range current {
		current[i] = -1
	}

	var spend, gain float64
	for queue.Len() > 0 {
		e := queue.pop()
		hull := hulls[e.unit]
		arm := hull[e.pos]
		w := p.Weight[e.unit]
		dc, ds := unitDeltas(p, e.unit, arm, current[e.unit])

		step := w * dc
		if spend+step > p.Budget {
			path.truncate(p.Budget, spend, gain, e.unit, arm, w, dc, ds)
			return path
		}
		spend += step
		gain += w * ds
		path.appendEvent(spend, gain, e.unit, arm, 1, dc, ds)
		current[e.unit] = arm

		if next := e.pos + 1; next < len(hull) {
			queue.push(queueEntry{unit: e.unit, pos: next, ratio: hullRatio(p, hull, e.unit, next)})
		}
	}
	path.Complete = true
	return path
}

func solveUniform(p *Problem) *Path {
	n := p.NumUnits()
	k := p.NumArms()

	avgCost := make([]float64, k)
	avgReward := make([]float64, k)
	avgScore := make([]float64, k)
	for i := 0; i < n; i++ {
		floats.AddScaled(avgCost, p.Weight[i], p.Cost[i])
		floats.AddScaled(avgReward, p.Weight[i], p.Reward[i])
		floats.AddScaled(avgScore, p.Weight[i], p.Score[i])
	}
	hull := ArmHull(avgCost, avgReward)

	path := newPath(len(hull))

	var spend, gain float64
	prev := -1
	for _, arm := range hull {
		var prevCost, prevScore float64
		if prev >= 0 {
			prevCost, prevScore = avgCost[prev], avgScore[prev]
		}
		dc := avgCost[arm] - prevCost
		ds := avgScore[arm] - prevScore

		// The averaged pseudo-unit carries the whole normalized weight,
		// so its deltas enter cumulative spend unscaled.
		if spend+dc > p.Budget {
			path.truncate(p.Budget, spend, gain, PopulationUnit, arm, 1, dc, ds)
			return path
		}
		spend += dc
		gain += ds
		path.appendEvent(spend, gain, PopulationUnit, arm, 1, dc, ds)
		prev = arm
	}
	path.Complete = true
	return path
}

// hullRatio returns the marginal reward ratio realized by advancing the
// unit to hull position pos from the position before it (or baseline).
func hullRatio(p *Problem, hull []int, unit, pos int) float64 {
	arm := hull[pos]
	var baseCost, baseReward float64
	if pos > 0 {
		prev := hull[pos-1]
		baseCost = p.Cost[unit][prev]
		baseReward = p.Reward[unit][prev]
	}
	return (p.Reward[unit][arm] - baseReward) / (p.Cost[unit][arm] - baseCost)
}

// unitDeltas returns the unit's own unweighted cost and evaluation-score
// deltas for moving from prevArm (-1 = baseline) to arm.
func unitDeltas(p *Problem, unit, arm, prevArm int) (dc, ds float64) {
	var prevCost, prevScore float64
	if prevArm >= 0 {
		prevCost = p.Cost[unit][prevArm]
		prevScore = p.Score[unit][prevArm]
	}
	return p.Cost[unit][arm] - prevCost, p.Score[unit][arm] - prevScore
}

func newPath(capacity int) *Path {
	return &Path{
		Spend:      make([]float64, 0, capacity),
		Gain:       make([]float64, 0, capacity),
		Unit:       make([]int, 0, capacity),
		Arm:        make([]int, 0, capacity),
		Fraction:   make([]float64, 0, capacity),
		DeltaCost:  make([]float64, 0, capacity),
		DeltaScore: make([]float64, 0, capacity),
	}
}

func (path *Path) appendEvent(spend, gain float64, unit, arm int, fraction, dc, ds float64) {
	path.Spend = append(path.Spend, spend)
	path.Gain = append(path.Gain, gain)
	path.Unit = append(path.Unit, unit)
	path.Arm = append(path.Arm, arm)
	path.Fraction = append(path.Fraction, fraction)
	path.DeltaCost = append(path.DeltaCost, dc)
	path.DeltaScore = append(path.DeltaScore, ds)
}

// truncate emits the final, partially affordable upgrade pinned at the
// budget. When the budget is already consumed to the cent no event is
// added; either way the path stays marked incomplete.
func (path *Path) truncate(budget, spend, gain float64, unit, arm int, w, dc, ds float64) {
	remaining := budget - spend
	if remaining <= 0 {
		return
	}
	f := remaining / (w * dc)
	path.appendEvent(budget, gain+f*w*ds, unit, arm, f, dc, ds)
}
