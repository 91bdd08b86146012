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
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global QiniConfig
	once   sync.Once
)

// Load ensures the config is loaded into the Global variable.
//
// An explicit path must name a readable file. With an empty path,
// ./qini.yaml is used when it exists and built-in defaults otherwise.
func Load(path string) error {
	var err error
	once.Do(func() {
		var cfg QiniConfig
		if cfg, err = loadFile(path); err == nil {
			Global = cfg
		}
	})
	return err
}

// loadFile resolves and parses the config at path on top of the
// built-in defaults, so a partial file only overrides what it names.
func loadFile(path string) (QiniConfig, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = "qini.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
