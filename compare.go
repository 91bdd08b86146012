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
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/qini/internal/solver"
)

// DifferenceGain estimates the gain difference between two curves at one
// spend level, with a paired standard error.
//
// Description:
//
//	Both curves must have been fit with paired inference on the same
//	sample, replicate count, and seed: replicate r then used the same
//	resampling draw in both fits, so differencing the replicate gain
//	vectors index-by-index captures the covariance between the two
//	curves. Summing independent variances would overstate the error
//	whenever the curves share evaluation data.
//
// Inputs:
//   - a, b: Paired-fit curves over the same sample.
//   - spend: Query spend, subject to each curve's range rules.
//
// Outputs:
//   - estimate: a's gain minus b's gain at spend. Antisymmetric in
//     (a, b).
//   - stderr: Sample standard deviation of the per-replicate gain
//     differences. Invariant under swapping a and b.
//   - error: ErrPairedUnavailable, ErrCurveMismatch, or a spend range
//     error.
//
// Thread Safety: Safe for concurrent use.
func DifferenceGain(a, b *Curve, spend float64) (estimate, stderr float64, err error) {
	if err := pairedCheck(a, b); err != nil {
		return 0, 0, err
	}

	gainA, err := a.GainAt(spend)
	if err != nil {
		return 0, 0, err
	}
	gainB, err := b.GainAt(spend)
	if err != nil {
		return 0, 0, err
	}

	diffs := make([]float64, a.replicates)
	for r := 0; r < a.replicates; r++ {
		da := solver.InterpAt(a.spend, a.repGains.Row(r), spend)
		db := solver.InterpAt(b.spend, b.repGains.Row(r), spend)
		diffs[r] = da - db
	}
	return gainA - gainB, stat.StdDev(diffs, nil), nil
}

// IntegratedDifference estimates the area between two curves on
// [0, maxSpend], with a paired standard error.
//
// The area is computed by trapezoidal integration over the union of both
// curves' spend grids; the standard error is the sample standard
// deviation of the per-replicate integrated differences. Both curves
// must satisfy the same pairing requirements as DifferenceGain.
func IntegratedDifference(a, b *Curve, maxSpend float64) (estimate, stderr float64, err error) {
	if err := pairedCheck(a, b); err != nil {
		return 0, 0, err
	}
	if err := a.checkSpend(maxSpend); err != nil {
		return 0, 0, err
	}
	if err := b.checkSpend(maxSpend); err != nil {
		return 0, 0, err
	}
	if maxSpend == 0 {
		return 0, 0, nil
	}

	grid := mergeGrids(a.spend, b.spend, maxSpend)

	valsA := make([]float64, len(grid))
	valsB := make([]float64, len(grid))
	solver.InterpOnto(grid, a.spend, a.gain, valsA)
	solver.InterpOnto(grid, b.spend, b.gain, valsB)

	diff := make([]float64, len(grid))
	for i := range grid {
		diff[i] = valsA[i] - valsB[i]
	}
	estimate = integrate.Trapezoidal(grid, diff)

	areas := make([]float64, a.replicates)
	for r := 0; r < a.replicates; r++ {
		solver.InterpOnto(grid, a.spend, a.repGains.Row(r), valsA)
		solver.InterpOnto(grid, b.spend, b.repGains.Row(r), valsB)
		for i := range grid {
			diff[i] = valsA[i] - valsB[i]
		}
		areas[r] = integrate.Trapezoidal(grid, diff)
	}
	return estimate, stat.StdDev(areas, nil), nil
}

// pairedCheck verifies that two curves can be compared replicate-wise.
func pairedCheck(a, b *Curve) error {
	if a.repGains == nil || b.repGains == nil {
		return ErrPairedUnavailable
	}
	if a.numUnits != b.numUnits {
		return fmt.Errorf("%d vs %d units: %w", a.numUnits, b.numUnits, ErrCurveMismatch)
	}
	if a.replicates != b.replicates {
		return fmt.Errorf("%d vs %d replicates: %w", a.replicates, b.replicates, ErrCurveMismatch)
	}
	if a.seed != b.seed {
		return fmt.Errorf("seeds %d vs %d: %w", a.seed, b.seed, ErrCurveMismatch)
	}
	return nil
}

// mergeGrids unions two ascending spend grids, keeps the points strictly
// inside (0, limit), and brackets them with 0 and limit.
func mergeGrids(xs, ys []float64, limit float64) []float64 {
	merged := make([]float64, 0, len(xs)+len(ys)+2)
	merged = append(merged, 0)
	merged = append(merged, xs...)
	merged = append(merged, ys...)
	sort.Float64s(merged)

	grid := merged[:0]
	for _, x := range merged {
		if x >= limit {
			break
		}
		if len(grid) > 0 && x == grid[len(grid)-1] {
			continue
		}
		grid = append(grid, x)
	}
	return append(grid, limit)
}
