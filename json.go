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
	"encoding/json"
	"fmt"
	"math"

	"github.com/AleutianAI/qini/internal/solver"
)

// curveVersion is the wire format version emitted by MarshalJSON.
const curveVersion = 1

// curveJSON is the stable serialized form of a Curve. Replicate gains are
// only carried for paired-fit curves, which keeps plain curves compact
// while letting paired ones survive a round trip intact.
type curveJSON struct {
	Version    int         `json:"version"`
	Budget     float64     `json:"budget"`
	Units      int         `json:"units"`
	Arms       int         `json:"arms"`
	Seed       uint64      `json:"seed"`
	Replicates int         `json:"replicates"`
	Paired     bool        `json:"paired"`
	Targeting  bool        `json:"targeting"`
	Complete   bool        `json:"complete"`
	Spend      []float64   `json:"spend"`
	Gain       []float64   `json:"gain"`
	StdErr     []float64   `json:"std_err,omitempty"`
	EventUnits []int       `json:"event_units"`
	EventArms  []int       `json:"event_arms"`
	Fractions  []float64   `json:"fractions"`
	RepGains   [][]float64 `json:"replicate_gains,omitempty"`
}

// MarshalJSON encodes the curve in the versioned wire format.
func (c *Curve) MarshalJSON() ([]byte, error) {
	out := curveJSON{
		Version:    curveVersion,
		Budget:     c.budget,
		Units:      c.numUnits,
		Arms:       c.numArms,
		Seed:       c.seed,
		Replicates: c.replicates,
		Paired:     c.repGains != nil,
		Targeting:  c.targeting,
		Complete:   c.complete,
		Spend:      c.spend,
		Gain:       c.gain,
		StdErr:     c.stderr,
		EventUnits: c.units,
		EventArms:  c.arms,
		Fractions:  c.fractions,
	}
	if c.repGains != nil {
		out.RepGains = make([][]float64, c.repGains.R)
		for r := range out.RepGains {
			out.RepGains[r] = c.repGains.Row(r)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a curve previously produced by MarshalJSON,
// rejecting unknown versions and structurally inconsistent payloads.
func (c *Curve) UnmarshalJSON(data []byte) error {
	var in curveJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding curve: %w", err)
	}
	if in.Version != curveVersion {
		return fmt.Errorf("version %d: %w", in.Version, ErrUnsupportedVersion)
	}
	if err := in.check(); err != nil {
		return err
	}

	c.spend = in.Spend
	c.gain = in.Gain
	c.stderr = in.StdErr
	c.units = in.EventUnits
	c.arms = in.EventArms
	c.fractions = in.Fractions
	c.complete = in.Complete
	c.budget = in.Budget
	c.numUnits = in.Units
	c.numArms = in.Arms
	c.targeting = in.Targeting
	c.seed = in.Seed
	c.replicates = in.Replicates
	c.repGains = nil

	if in.Paired {
		rep := solver.NewGainReplicates(in.Replicates, len(in.Spend))
		for r, row := range in.RepGains {
			copy(rep.Row(r), row)
		}
		c.repGains = rep
	}
	return nil
}

// check validates the structural invariants of a decoded payload.
func (j *curveJSON) check() error {
	if j.Budget <= 0 || math.IsNaN(j.Budget) || math.IsInf(j.Budget, 0) {
		return fmt.Errorf("budget %g: %w", j.Budget, ErrMalformedCurve)
	}
	if j.Units <= 0 || j.Arms <= 0 {
		return fmt.Errorf("%d units, %d arms: %w", j.Units, j.Arms, ErrMalformedCurve)
	}
	n := len(j.Spend)
	if len(j.Gain) != n || len(j.EventUnits) != n || len(j.EventArms) != n || len(j.Fractions) != n {
		return fmt.Errorf("event arrays disagree on length: %w", ErrMalformedCurve)
	}
	if j.StdErr != nil && len(j.StdErr) != n {
		return fmt.Errorf("std_err length %d, spend length %d: %w", len(j.StdErr), n, ErrMalformedCurve)
	}
	for i, u := range j.EventUnits {
		if j.Targeting {
			if u < 0 || u >= j.Units {
				return fmt.Errorf("event unit %d at index %d out of range: %w", u, i, ErrMalformedCurve)
			}
		} else if u != solver.PopulationUnit {
			return fmt.Errorf("event unit %d at index %d on a non-targeted curve: %w", u, i, ErrMalformedCurve)
		}
	}
	for i, a := range j.EventArms {
		if a < 0 || a >= j.Arms {
			return fmt.Errorf("event arm %d at index %d out of range: %w", a, i, ErrMalformedCurve)
		}
	}
	prev := 0.0
	for i, s := range j.Spend {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= prev {
			return fmt.Errorf("spend grid not ascending at index %d: %w", i, ErrMalformedCurve)
		}
		prev = s
	}
	for i, f := range j.Fractions {
		if f <= 0 || f > 1 {
			return fmt.Errorf("fraction %g at index %d: %w", f, i, ErrMalformedCurve)
		}
	}
	if j.Paired {
		if j.Replicates < 2 {
			return fmt.Errorf("paired with %d replicates: %w", j.Replicates, ErrMalformedCurve)
		}
		if len(j.RepGains) != j.Replicates {
			return fmt.Errorf("%d replicate rows, want %d: %w", len(j.RepGains), j.Replicates, ErrMalformedCurve)
		}
		for r, row := range j.RepGains {
			if len(row) != n {
				return fmt.Errorf("replicate %d has %d points, want %d: %w", r, len(row), n, ErrMalformedCurve)
			}
		}
	}
	return nil
}
