// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		state string
		want  lipgloss.AdaptiveColor
	}{
		{"done", Emerald},
		{"running", Amber},
		{"failed", Rose},
		{"pending", TextMuted},
		{"", TextMuted},
	}
	for _, tt := range tests {
		if got := Status(tt.state); got != tt.want {
			t.Errorf("Status(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestSpeedup(t *testing.T) {
	tests := []struct {
		ratio float64
		want  lipgloss.AdaptiveColor
	}{
		{0, TextMuted},
		{2.0, Emerald},
		{1.0, TextPrimary},
		{1.04, TextPrimary},
		{0.5, Rose},
	}
	for _, tt := range tests {
		if got := Speedup(tt.ratio); got != tt.want {
			t.Errorf("Speedup(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestColorsHaveBothModes(t *testing.T) {
	for name, c := range map[string]lipgloss.AdaptiveColor{
		"Purple": Purple, "Cyan": Cyan, "Emerald": Emerald, "Rose": Rose,
		"Amber": Amber, "Overlay": Overlay, "TextPrimary": TextPrimary, "TextMuted": TextMuted,
	} {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("%s is missing a light or dark value", name)
		}
	}
}
