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

import "log/slog"

// Config holds the tunable parameters of a fit. Construct it through
// DefaultConfig and the With* options rather than by hand.
type Config struct {
	// SampleWeights holds one positive weight per unit. Empty means
	// uniform. Weights are normalized to sum to one internally.
	SampleWeights []float64

	// TieBreaker assigns each unit a rank used to break equal marginal
	// ratios; the lower rank wins. Must be a permutation of 0..n-1.
	// Empty means ascending unit index.
	TieBreaker []int

	// Clusters maps each unit to a zero-based contiguous cluster id for
	// the bootstrap. Empty means every unit is its own cluster.
	Clusters []int

	// Replicates is the bootstrap replicate count R. Zero disables
	// standard errors; otherwise at least two are required.
	Replicates int

	// Paired retains all R replicate gain vectors on the curve so two
	// fits over the same sample and seed can be differenced later.
	Paired bool

	// Targeting selects covariate-based per-unit allocation. When false
	// the fit ranks arms by population averages only.
	Targeting bool

	// Threads is the bootstrap worker count. Zero uses all CPUs.
	Threads int

	// Seed keys the deterministic replicate RNG streams.
	Seed uint64

	// Logger receives debug-level solve diagnostics. Nil uses
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the baseline fit configuration.
func DefaultConfig() Config {
	return Config{Targeting: true}
}

// Option mutates a Config.
type Option func(*Config)

// WithSampleWeights sets per-unit sample weights.
func WithSampleWeights(weights []float64) Option {
	return func(c *Config) {
		c.SampleWeights = weights
	}
}

// WithTieBreaker sets the tie-breaking rank permutation.
func WithTieBreaker(ranks []int) Option {
	return func(c *Config) {
		c.TieBreaker = ranks
	}
}

// WithClusters sets the bootstrap cluster assignment.
func WithClusters(clusters []int) Option {
	return func(c *Config) {
		c.Clusters = clusters
	}
}

// WithReplicates sets the bootstrap replicate count.
func WithReplicates(r int) Option {
	return func(c *Config) {
		c.Replicates = r
	}
}

// WithPairedInference retains the full replicate gain matrix for paired
// curve comparison. Requires a positive replicate count.
func WithPairedInference() Option {
	return func(c *Config) {
		c.Paired = true
	}
}

// WithTargeting toggles covariate-based targeting. Disabling it fits the
// non-personalized baseline policy that assigns every unit the same arms.
func WithTargeting(enabled bool) Option {
	return func(c *Config) {
		c.Targeting = enabled
	}
}

// WithThreads sets the bootstrap worker count.
func WithThreads(n int) Option {
	return func(c *Config) {
		c.Threads = n
	}
}

// WithSeed sets the bootstrap RNG seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithLogger routes solve diagnostics to the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
