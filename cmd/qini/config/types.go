// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the qini.yaml file.
//
// The file supplies defaults for the knobs a fit run needs repeatedly
// (threads, replicates, seed) plus logging and telemetry setup. Flags
// override every field; a missing file means built-in defaults.
package config

import (
	"fmt"

	"github.com/AleutianAI/qini/pkg/logging"
	"github.com/go-playground/validator/v10"
)

// QiniConfig is the root of the qini.yaml file.
type QiniConfig struct {
	// Solve holds fit defaults that flags override.
	Solve SolveConfig `yaml:"solve"`

	// Log configures the stderr/file logger.
	Log LogConfig `yaml:"log"`

	// Trace configures the telemetry bootstrap.
	Trace TraceConfig `yaml:"trace"`
}

// SolveConfig holds the default solver knobs for fit runs.
type SolveConfig struct {
	// Threads caps the bootstrap worker count. Zero uses all CPUs.
	Threads int `yaml:"threads" validate:"gte=0"`

	// Replicates is the default bootstrap replicate count. Zero
	// disables the bootstrap; anything else must be at least 2.
	Replicates int `yaml:"replicates" validate:"eq=0|gte=2"`

	// Seed is the bootstrap RNG seed.
	Seed uint64 `yaml:"seed"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `yaml:"level" validate:"omitempty,loglevel"`

	// Dir enables JSON file logging to this directory when set.
	// Supports ~ expansion.
	Dir string `yaml:"dir"`
}

// TraceConfig configures the telemetry bootstrap.
type TraceConfig struct {
	// Exporter selects where spans and metrics go: stdout or none.
	Exporter string `yaml:"exporter" validate:"omitempty,exporter"`
}

// configValidate is the validator instance for config files.
// Initialized in init() with custom validators.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()

	// Register custom validators for exporter names and log levels
	_ = configValidate.RegisterValidation("exporter", validateExporter)
	_ = configValidate.RegisterValidation("loglevel", validateLogLevel)
}

// validateExporter accepts the exporter names the telemetry bootstrap
// understands. The tool is a batch process with no network surface, so
// there are no remote exporters to name here.
func validateExporter(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "stdout", "none":
		return true
	}
	return false
}

// validateLogLevel defers to the logging package's level parser.
func validateLogLevel(fl validator.FieldLevel) bool {
	_, ok := logging.ParseLevel(fl.Field().String())
	return ok
}

// Validate checks the loaded configuration.
//
// # Outputs
//
//   - error: Non-nil when any field fails its validation tag, wrapping
//     the validator error with field context.
func (c *QiniConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultConfig returns the built-in defaults: all CPUs, no bootstrap,
// info logging to stderr only, telemetry off.
func DefaultConfig() QiniConfig {
	return QiniConfig{
		Solve: SolveConfig{
			Threads:    0,
			Replicates: 0,
			Seed:       0,
		},
		Log: LogConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			Exporter: "none",
		},
	}
}
