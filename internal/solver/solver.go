// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package solver implements the allocation-path engine behind the public
// qini API: per-unit cost/reward hulls, the greedy budget-constrained merge
// of those hulls into a global allocation path, and the cluster bootstrap
// that attaches standard errors to the path.
//
// Inputs arriving here are already validated and normalized by the caller.
// Nothing in this package mutates a Problem after construction, and a Path
// is read-only once returned.
package solver

// Problem is the validated input to a single solve.
//
// All matrices are n x K row-major (unit, arm). Weight is normalized to sum
// to one, TieRank holds each unit's tie-breaking rank (lower wins), and
// Cluster maps each unit to a contiguous zero-based cluster id. The solver
// treats every field as immutable.
type Problem struct {
	Reward [][]float64
	Score  [][]float64
	Cost   [][]float64

	Weight  []float64
	TieRank []int
	Cluster []int

	NumClusters int
	Budget      float64

	// Targeting selects per-unit allocation. When false the solve ranks
	// arms by their weighted population averages and assigns every unit
	// the same arm sequence.
	Targeting bool
}

// NumUnits returns the number of rows in the problem matrices.
func (p *Problem) NumUnits() int {
	return len(p.Reward)
}

// NumArms returns the number of treatment arms.
func (p *Problem) NumArms() int {
	if len(p.Reward) == 0 {
		return 0
	}
	return len(p.Reward[0])
}

// PopulationUnit is the Unit value of a non-targeted path event. Every
// hull step of a non-targeted solve moves the whole population at once,
// so its events carry no single unit index.
const PopulationUnit = -1

// Path is the fitted allocation path: one entry per allocation event, with
// cumulative spend and gain recorded after the event.
//
// Spend is strictly increasing. Fraction is 1 for every event except a
// final budget-truncated one, which carries the affordable fraction of its
// upgrade and is pinned at Spend == budget. Targeted events record the
// upgraded unit and its unweighted per-unit deltas in DeltaCost and
// DeltaScore; non-targeted events carry Unit == PopulationUnit and
// population-average deltas at weight one. The bootstrap replays the path
// from the deltas with resampled weights.
type Path struct {
	Spend    []float64
	Gain     []float64
	Unit     []int
	Arm      []int
	Fraction []float64

	DeltaCost  []float64
	DeltaScore []float64

	// Complete is true when every unit exhausted its hull before the
	// budget ran out. A complete path extends flat beyond its last event.
	Complete bool
}

// Len returns the number of allocation events on the path.
func (p *Path) Len() int {
	return len(p.Spend)
}
