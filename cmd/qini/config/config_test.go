// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0, cfg.Solve.Threads)
	assert.Equal(t, 0, cfg.Solve.Replicates)
	assert.Equal(t, uint64(0), cfg.Solve.Seed)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "none", cfg.Trace.Exporter)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestLoadFile_MissingDefaultPath(t *testing.T) {
	// No qini.yaml in a fresh directory: defaults, no error.
	t.Chdir(t.TempDir())

	cfg, err := loadFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile_MissingExplicitPath(t *testing.T) {
	_, err := loadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadFile_PartialOverride(t *testing.T) {
	path := writeConfig(t, `
solve:
  replicates: 500
  seed: 7
trace:
  exporter: stdout
`)

	cfg, err := loadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Solve.Replicates)
	assert.Equal(t, uint64(7), cfg.Solve.Seed)
	assert.Equal(t, "stdout", cfg.Trace.Exporter)

	// Unnamed fields keep their defaults.
	assert.Equal(t, 0, cfg.Solve.Threads)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "solve: [not a mapping")

	_, err := loadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QiniConfig)
		wantErr bool
	}{
		{
			name:   "defaults",
			mutate: func(c *QiniConfig) {},
		},
		{
			name:   "stdout exporter",
			mutate: func(c *QiniConfig) { c.Trace.Exporter = "stdout" },
		},
		{
			name:   "empty exporter skipped",
			mutate: func(c *QiniConfig) { c.Trace.Exporter = "" },
		},
		{
			name:    "network exporter rejected",
			mutate:  func(c *QiniConfig) { c.Trace.Exporter = "otlp" },
			wantErr: true,
		},
		{
			name:   "debug level",
			mutate: func(c *QiniConfig) { c.Log.Level = "debug" },
		},
		{
			name:    "unknown level",
			mutate:  func(c *QiniConfig) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:   "replicates zero",
			mutate: func(c *QiniConfig) { c.Solve.Replicates = 0 },
		},
		{
			name:   "replicates two",
			mutate: func(c *QiniConfig) { c.Solve.Replicates = 2 },
		},
		{
			name:    "single replicate rejected",
			mutate:  func(c *QiniConfig) { c.Solve.Replicates = 1 },
			wantErr: true,
		},
		{
			name:    "negative threads rejected",
			mutate:  func(c *QiniConfig) { c.Solve.Threads = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadFile_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
solve:
  replicates: 1
`)

	_, err := loadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qini.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
