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

// Interpolation helpers shared by the bootstrap and the public query layer.
//
// Every grid here is implicitly anchored at the origin: a spend of zero
// always maps to a value of zero, and a query below the first grid point
// interpolates from (0, 0). Queries past the last grid point clamp to the
// final value; whether that clamp is legal is the caller's decision.
// Duplicate x entries (zero-weight bootstrap events) resolve to the
// rightmost value at that x.

// InterpAt returns the piecewise-linear value of the polyline (xs, ys) at x.
//
// xs must be non-decreasing. x at or below zero returns zero.
func InterpAt(xs, ys []float64, x float64) float64 {
	if len(xs) == 0 || x <= 0 {
		return 0
	}
	idx := sort.SearchFloat64s(xs, x)
	if idx == len(xs) {
		return ys[len(ys)-1]
	}
	for idx+1 < len(xs) && xs[idx+1] == x {
		idx++
	}
	if xs[idx] == x {
		return ys[idx]
	}
	var x0, y0 float64
	if idx > 0 {
		x0, y0 = xs[idx-1], ys[idx-1]
	}
	return y0 + (ys[idx]-y0)*(x-x0)/(xs[idx]-x0)
}

// InterpOnto evaluates the polyline (xs, ys) at every target x, writing
// results into dst. targets must be non-decreasing and len(dst) must equal
// len(targets). Runs in O(len(targets) + len(xs)).
func InterpOnto(targets, xs, ys, dst []float64) {
	if len(xs) == 0 {
		for t := range targets {
			dst[t] = 0
		}
		return
	}
	j := 0
	for t, x := range targets {
		if x <= 0 {
			dst[t] = 0
			continue
		}
		for j < len(xs) && xs[j] < x {
			j++
		}
		if j == len(xs) {
			dst[t] = ys[len(ys)-1]
			continue
		}
		k := j
		for k+1 < len(xs) && xs[k+1] == x {
			k++
		}
		if xs[k] == x {
			dst[t] = ys[k]
			continue
		}
		var x0, y0 float64
		if j > 0 {
			x0, y0 = xs[j-1], ys[j-1]
		}
		dst[t] = y0 + (ys[j]-y0)*(x-x0)/(xs[j]-x0)
	}
}
