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

import "errors"

// -----------------------------------------------------------------------------
// Configuration errors
// -----------------------------------------------------------------------------
// Reported by Fit before any solving starts; a Fit returning one of these
// has done no work and produced no partial result.

var (
	// ErrEmptyInput indicates the input matrices have no units or no arms.
	ErrEmptyInput = errors.New("input matrices must contain at least one unit and one arm")

	// ErrDimensionMismatch indicates inputs whose shapes do not conform.
	ErrDimensionMismatch = errors.New("input dimensions do not conform")

	// ErrNonFiniteValue indicates a NaN or infinity in a numeric input.
	ErrNonFiniteValue = errors.New("input contains a non-finite value")

	// ErrNonPositiveCost indicates a cost entry at or below zero.
	ErrNonPositiveCost = errors.New("costs must be strictly positive")

	// ErrInvalidWeight indicates a sample weight at or below zero.
	ErrInvalidWeight = errors.New("sample weights must be strictly positive")

	// ErrInvalidTieBreaker indicates a tie-breaker vector that is not a
	// permutation of the unit indices.
	ErrInvalidTieBreaker = errors.New("tie breaker must be a permutation of the unit indices")

	// ErrInvalidCluster indicates cluster ids that are not contiguous
	// zero-based integers.
	ErrInvalidCluster = errors.New("cluster ids must be contiguous integers starting at zero")

	// ErrInvalidBudget indicates a budget at or below zero.
	ErrInvalidBudget = errors.New("budget must be a positive finite number")

	// ErrInvalidReplicates indicates an unusable bootstrap replicate count.
	ErrInvalidReplicates = errors.New("replicates must be zero or at least two")

	// ErrInvalidThreads indicates a negative thread count.
	ErrInvalidThreads = errors.New("thread count must not be negative")

	// ErrInsufficientClusters indicates too few clusters to bootstrap.
	ErrInsufficientClusters = errors.New("bootstrapping requires at least four distinct clusters")
)

// -----------------------------------------------------------------------------
// Usage errors
// -----------------------------------------------------------------------------
// Reported by queries against an already-fitted curve. The curve stays
// valid for queries within range.

var (
	// ErrSpendOutOfRange indicates a query spend outside the fitted range.
	ErrSpendOutOfRange = errors.New("spend is outside the fitted range")

	// ErrPairedUnavailable indicates a paired comparison on curves fit
	// without paired inference.
	ErrPairedUnavailable = errors.New("paired inference was not enabled on both curves")

	// ErrCurveMismatch indicates curves that cannot be compared because
	// they were not fit on the same sample, replicate count, and seed.
	ErrCurveMismatch = errors.New("curves were not fit on comparable samples")

	// ErrMalformedCurve indicates serialized curve data that fails
	// structural validation.
	ErrMalformedCurve = errors.New("serialized curve data is malformed")

	// ErrUnsupportedVersion indicates serialized curve data written by an
	// unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported curve serialization version")
)

// -----------------------------------------------------------------------------
// Score construction errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidAssignment indicates a treatment assignment outside the
	// arm range.
	ErrInvalidAssignment = errors.New("treatment assignments must lie in [0, number of arms]")

	// ErrInvalidPropensity indicates assignment probabilities that are
	// not a valid distribution.
	ErrInvalidPropensity = errors.New("propensities must be probabilities summing to one per unit")
)
