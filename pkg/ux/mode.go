// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Mode defines how much styling the CLI output carries.
type Mode string

const (
	// ModeRich enables colors, icons, and styled tables.
	ModeRich Mode = "rich"

	// ModePlain outputs unstyled text suitable for scripting, piping,
	// and parsing. Tables degrade to tab-separated values.
	ModePlain Mode = "plain"
)

var (
	currentMode = ModeRich
	modeMu      sync.RWMutex
)

// GetMode returns the current output mode.
func GetMode() Mode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode updates the current output mode.
func SetMode(m Mode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ParseMode converts a flag or environment string to a Mode.
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "plain", "machine", "none":
		return ModePlain
	default:
		return ModeRich
	}
}

// InitMode initializes the output mode from the environment.
//
// Plain mode wins whenever QINI_PLAIN or the conventional NO_COLOR is
// set, or when stdout is not a terminal (piped or redirected output).
func InitMode() {
	if os.Getenv("QINI_PLAIN") != "" || os.Getenv("NO_COLOR") != "" {
		SetMode(ModePlain)
		return
	}
	if !isTerminal() {
		SetMode(ModePlain)
		return
	}
	SetMode(ModeRich)
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Plain reports whether output should stay unstyled.
func Plain() bool {
	return GetMode() == ModePlain
}
