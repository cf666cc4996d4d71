// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Purple - Titles and table headers
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Scenario keys, spinner
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Completed scenarios, faster results
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Failed scenarios, slower results
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Running scenarios, warnings
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextMuted - Hints, pending scenarios
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// STATUS COLORS
// =============================================================================

// Status returns the color for a scenario state: "done", "running",
// "failed" or anything else for pending.
func Status(state string) lipgloss.AdaptiveColor {
	switch state {
	case "done":
		return Emerald
	case "running":
		return Amber
	case "failed":
		return Rose
	}
	return TextMuted
}

// Speedup returns the color for a speedup ratio: green above 1.05, red
// below 0.95, plain text in between.
func Speedup(ratio float64) lipgloss.AdaptiveColor {
	switch {
	case ratio <= 0:
		return TextMuted
	case ratio > 1.05:
		return Emerald
	case ratio < 0.95:
		return Rose
	}
	return TextPrimary
}

// =============================================================================
// COMMON STYLES
// =============================================================================

var (
	// Title is used for view headers.
	Title = lipgloss.NewStyle().Bold(true).Foreground(Purple)

	// Header is used for table headers.
	Header = lipgloss.NewStyle().Bold(true).Foreground(Purple)

	// Key highlights scenario keys.
	Key = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

	// Muted is used for secondary text.
	Muted = lipgloss.NewStyle().Foreground(TextMuted)

	// Box frames summary panels.
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 2)

	// ErrorBox frames error messages.
	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Rose).
			Foreground(Rose).
			Bold(true).
			Padding(0, 2)
)
