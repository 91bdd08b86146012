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
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Allocation is the sparse unit-by-arm assignment realized by the policy
// at one spend level.
//
// Entries are coordinate triplets sorted by unit. A fully funded unit has
// one entry with value 1; the unit at the spend boundary splits its mass
// between its previous arm (1 - f) and its next arm (f). Units at the
// implicit no-treatment baseline have no entries.
type Allocation struct {
	Units  []int
	Arms   []int
	Values []float64

	numUnits int
	numArms  int
}

// Len returns the number of sparse entries.
func (a *Allocation) Len() int { return len(a.Units) }

// Dense expands the allocation into an n x K dense matrix.
func (a *Allocation) Dense() *mat.Dense {
	m := mat.NewDense(a.numUnits, a.numArms, nil)
	for i := range a.Units {
		m.Set(a.Units[i], a.Arms[i], a.Values[i])
	}
	return m
}

// ArmVector returns each unit's assigned arm, -1 for baseline. A unit
// split across two arms at the spend boundary reports the arm it held
// before the partial upgrade, which is -1 when the upgrade started from
// baseline.
func (a *Allocation) ArmVector() []int {
	out := make([]int, a.numUnits)
	for i := range out {
		out[i] = -1
	}
	for i := range a.Units {
		unit := a.Units[i]
		if a.Values[i] == 1 {
			out[unit] = a.Arms[i]
			continue
		}
		// Fractional entries arrive in from/to pairs. The first of a
		// pair is the previously held arm; a lone fractional entry is an
		// upgrade straight from baseline and stays -1.
		if i+1 < len(a.Units) && a.Units[i+1] == unit {
			out[unit] = a.Arms[i]
		}
	}
	return out
}

// AllocationAt reconstructs the policy's arm assignment at the given
// spend.
//
// Description:
//
//	Events up to the query spend are replayed, keeping each unit's most
//	recent arm. When the spend falls strictly between two grid points,
//	the unit whose event is next is split linearly: fraction f of its
//	upgrade is funded, leaving 1 - f on its previous arm. A final
//	budget-truncated event behaves the same way through its recorded
//	fraction.
//
//	On a non-targeted curve every event moves the whole population at
//	once, so all units report the same assignment: full mass on the most
//	recently reached hull arm, or an identical two-arm split when the
//	spend falls inside a step. Entries stay sorted by unit index.
//
// Inputs:
//   - spend: Query spend. Subject to the same range rules as GainAt.
//
// Outputs:
//   - *Allocation: Sparse assignment snapshot. Never nil on success.
//   - error: ErrSpendOutOfRange for invalid spend.
//
// Thread Safety: Safe for concurrent use.
func (c *Curve) AllocationAt(spend float64) (*Allocation, error) {
	if err := c.checkSpend(spend); err != nil {
		return nil, err
	}

	// Count fully applied events: all with grid spend <= query spend.
	idx := sort.SearchFloat64s(c.spend, spend)
	if idx < len(c.spend) && c.spend[idx] == spend {
		idx++
	}

	if !c.targeting {
		return c.populationAllocation(spend, idx), nil
	}

	latest := make([]int, c.numUnits)
	for i := range latest {
		latest[i] = -1
	}

	type split struct {
		unit, fromArm, toArm int
		f                    float64
	}
	var boundary *split

	for t := 0; t < idx; t++ {
		unit := c.units[t]
		if c.fractions[t] < 1 {
			// Only the final truncated event carries a fraction; the
			// unit keeps its previous arm for the unfunded remainder.
			boundary = &split{unit: unit, fromArm: latest[unit], toArm: c.arms[t], f: c.fractions[t]}
			continue
		}
		latest[unit] = c.arms[t]
	}

	if idx < len(c.spend) {
		var prevSpend float64
		if idx > 0 {
			prevSpend = c.spend[idx-1]
		}
		if spend > prevSpend {
			p := (spend - prevSpend) / (c.spend[idx] - prevSpend)
			unit := c.units[idx]
			boundary = &split{unit: unit, fromArm: latest[unit], toArm: c.arms[idx], f: p * c.fractions[idx]}
		}
	}

	alloc := &Allocation{numUnits: c.numUnits, numArms: c.numArms}
	for unit := 0; unit < c.numUnits; unit++ {
		if boundary != nil && boundary.unit == unit {
			if boundary.fromArm >= 0 {
				alloc.append(unit, boundary.fromArm, 1-boundary.f)
			}
			alloc.append(unit, boundary.toArm, boundary.f)
			continue
		}
		if latest[unit] >= 0 {
			alloc.append(unit, latest[unit], 1)
		}
	}
	return alloc, nil
}

// populationAllocation reconstructs the shared assignment of a
// non-targeted curve, where every event moves the whole population and
// each unit holds an identical arm mix.
func (c *Curve) populationAllocation(spend float64, idx int) *Allocation {
	held := -1
	fromArm, toArm := -1, -1
	frac := 0.0
	haveSplit := false
	for t := 0; t < idx; t++ {
		if c.fractions[t] < 1 {
			// Only the final truncated event carries a fraction.
			fromArm, toArm, frac = held, c.arms[t], c.fractions[t]
			haveSplit = true
			continue
		}
		held = c.arms[t]
	}

	if idx < len(c.spend) {
		var prevSpend float64
		if idx > 0 {
			prevSpend = c.spend[idx-1]
		}
		if spend > prevSpend {
			p := (spend - prevSpend) / (c.spend[idx] - prevSpend)
			fromArm, toArm, frac = held, c.arms[idx], p*c.fractions[idx]
			haveSplit = true
		}
	}

	alloc := &Allocation{numUnits: c.numUnits, numArms: c.numArms}
	for unit := 0; unit < c.numUnits; unit++ {
		if haveSplit {
			if fromArm >= 0 {
				alloc.append(unit, fromArm, 1-frac)
			}
			alloc.append(unit, toArm, frac)
			continue
		}
		if held >= 0 {
			alloc.append(unit, held, 1)
		}
	}
	return alloc
}

func (a *Allocation) append(unit, arm int, value float64) {
	a.Units = append(a.Units, unit)
	a.Arms = append(a.Arms, arm)
	a.Values = append(a.Values, value)
}
