// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{"plain", ModePlain},
		{"PLAIN", ModePlain},
		{"machine", ModePlain},
		{"none", ModePlain},
		{"rich", ModeRich},
		{"", ModeRich},
		{"anything-else", ModeRich},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseMode(tt.input); got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetMode_RoundTrip(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModePlain)
	if GetMode() != ModePlain {
		t.Error("expected ModePlain after SetMode")
	}
	if !Plain() {
		t.Error("Plain() should be true in plain mode")
	}

	SetMode(ModeRich)
	if Plain() {
		t.Error("Plain() should be false in rich mode")
	}
}

func TestInitMode_EnvOverrides(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	t.Run("QINI_PLAIN forces plain", func(t *testing.T) {
		t.Setenv("QINI_PLAIN", "1")
		InitMode()
		if GetMode() != ModePlain {
			t.Error("QINI_PLAIN should force plain mode")
		}
	})

	t.Run("NO_COLOR forces plain", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		InitMode()
		if GetMode() != ModePlain {
			t.Error("NO_COLOR should force plain mode")
		}
	})

	t.Run("non-terminal stdout falls back to plain", func(t *testing.T) {
		t.Setenv("QINI_PLAIN", "")
		t.Setenv("NO_COLOR", "")
		InitMode()
		// Test binaries run with stdout piped, so the terminal check
		// resolves to plain here.
		if isTerminal() {
			t.Skip("stdout is a terminal in this environment")
		}
		if GetMode() != ModePlain {
			t.Error("expected plain mode for non-terminal stdout")
		}
	})
}
