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
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for curve fitting.
var (
	tracer = otel.Tracer("aleutian.qini")
	meter  = otel.Meter("aleutian.qini")
)

// Metrics for fit operations.
var (
	solvesTotal   metric.Int64Counter
	solveDuration metric.Float64Histogram
	pathEvents    metric.Int64Histogram
	replicatesRun metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		solvesTotal, err = meter.Int64Counter(
			"qini_solves_total",
			metric.WithDescription("Total curve fits by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		solveDuration, err = meter.Float64Histogram(
			"qini_solve_duration_seconds",
			metric.WithDescription("End-to-end fit duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathEvents, err = meter.Int64Histogram(
			"qini_path_events",
			metric.WithDescription("Allocation events per fitted path"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		replicatesRun, err = meter.Int64Counter(
			"qini_bootstrap_replicates_total",
			metric.WithDescription("Total bootstrap replicates executed"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordSolve records metrics for a completed fit.
//
// Thread Safety: Safe for concurrent use.
func recordSolve(ctx context.Context, duration time.Duration, events, replicates int, targeting bool, fitErr error) {
	if err := initMetrics(); err != nil {
		return
	}

	outcome := "success"
	if fitErr != nil {
		outcome = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("targeting", targeting),
	)

	solvesTotal.Add(ctx, 1, attrs)
	solveDuration.Record(ctx, duration.Seconds(), attrs)
	if fitErr == nil {
		pathEvents.Record(ctx, int64(events))
		if replicates > 0 {
			replicatesRun.Add(ctx, int64(replicates))
		}
	}
}
