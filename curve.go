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
	"math"

	"github.com/AleutianAI/qini/internal/solver"
)

// Curve is a fitted spend/gain policy curve.
//
// A Curve is immutable: every accessor returns a copy and every query is
// read-only, so a single Curve is safe for concurrent use. The discrete
// allocation path anchors at the origin, and queries between path events
// interpolate linearly.
type Curve struct {
	spend     []float64
	gain      []float64
	stderr    []float64
	units     []int
	arms      []int
	fractions []float64

	complete   bool
	budget     float64
	numUnits   int
	numArms    int
	targeting  bool
	seed       uint64
	replicates int

	// repGains is only present when the curve was fit with paired
	// inference; it holds the full R x path-length replicate matrix.
	repGains *solver.GainReplicates
}

// Spend returns the ascending cumulative-spend grid, one entry per
// allocation event.
func (c *Curve) Spend() []float64 { return copyFloats(c.spend) }

// Gain returns the cumulative gain at each spend grid point.
func (c *Curve) Gain() []float64 { return copyFloats(c.gain) }

// StdErr returns the bootstrap standard error at each grid point, or nil
// when the curve was fit without replicates.
func (c *Curve) StdErr() []float64 {
	if c.stderr == nil {
		return nil
	}
	return copyFloats(c.stderr)
}

// PopulationUnit is the Units() value of every event on a non-targeted
// curve, whose steps move the whole population rather than a single unit.
const PopulationUnit = solver.PopulationUnit

// Units returns the allocated unit index per path event. On a
// non-targeted curve every entry is PopulationUnit.
func (c *Curve) Units() []int { return copyInts(c.units) }

// Arms returns the assigned arm index per path event.
func (c *Curve) Arms() []int { return copyInts(c.arms) }

// Complete reports whether every unit reached the top of its hull before
// the budget ran out. A complete curve extends flat beyond its last event.
func (c *Curve) Complete() bool { return c.complete }

// Budget returns the spend ceiling the curve was fit with.
func (c *Curve) Budget() float64 { return c.budget }

// NumUnits returns the number of units in the fitted sample.
func (c *Curve) NumUnits() int { return c.numUnits }

// NumArms returns the number of treatment arms.
func (c *Curve) NumArms() int { return c.numArms }

// Replicates returns the bootstrap replicate count R.
func (c *Curve) Replicates() int { return c.replicates }

// Paired reports whether the full replicate matrix was retained for
// paired comparison.
func (c *Curve) Paired() bool { return c.repGains != nil }

// Targeting reports whether the curve targets with covariates.
func (c *Curve) Targeting() bool { return c.targeting }

// GainAt returns the interpolated policy gain at the given spend.
//
// Spend must be non-negative. Querying past the fitted budget is only
// valid on a complete curve, where the final gain extends flat.
func (c *Curve) GainAt(spend float64) (float64, error) {
	if err := c.checkSpend(spend); err != nil {
		return 0, err
	}
	return solver.InterpAt(c.spend, c.gain, spend), nil
}

// AverageGain returns the interpolated gain and its standard error at the
// given spend. The standard error is NaN when the curve was fit without
// replicates.
func (c *Curve) AverageGain(spend float64) (gain, stderr float64, err error) {
	if err := c.checkSpend(spend); err != nil {
		return 0, 0, err
	}
	gain = solver.InterpAt(c.spend, c.gain, spend)
	if c.stderr == nil {
		return gain, math.NaN(), nil
	}
	return gain, solver.InterpAt(c.spend, c.stderr, spend), nil
}

// checkSpend gates queries: negative or non-finite spend is always a
// usage error, and spend beyond the fitted budget is one unless the path
// is complete.
func (c *Curve) checkSpend(spend float64) error {
	if math.IsNaN(spend) || math.IsInf(spend, 0) || spend < 0 {
		return fmt.Errorf("spend %v: %w", spend, ErrSpendOutOfRange)
	}
	if spend > c.budget && !c.complete {
		return fmt.Errorf("spend %v exceeds fitted budget %v on an incomplete path: %w",
			spend, c.budget, ErrSpendOutOfRange)
	}
	return nil
}

// Summary is a scalar snapshot of a fitted curve.
type Summary struct {
	Units      int
	Arms       int
	Events     int
	Budget     float64
	MaxSpend   float64
	FinalGain  float64
	Complete   bool
	Targeting  bool
	Replicates int
	Paired     bool
}

// Summary returns the curve's scalar facts for display.
func (c *Curve) Summary() Summary {
	s := Summary{
		Units:      c.numUnits,
		Arms:       c.numArms,
		Events:     len(c.spend),
		Budget:     c.budget,
		Complete:   c.complete,
		Targeting:  c.targeting,
		Replicates: c.replicates,
		Paired:     c.repGains != nil,
	}
	if n := len(c.spend); n > 0 {
		s.MaxSpend = c.spend[n-1]
		s.FinalGain = c.gain[n-1]
	}
	return s
}

func copyFloats(src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func copyInts(src []int) []int {
	out := make([]int, len(src))
	copy(out, src)
	return out
}
