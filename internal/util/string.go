// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxFilenameRunes caps sanitized names.
const maxFilenameRunes = 64

// SanitizeFilename makes s safe to embed in a file name on Windows and Unix.
// Path separators, reserved characters, whitespace and control characters
// become '_'. An empty result becomes fallback.
func SanitizeFilename(s, fallback string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxFilenameRunes {
		runes = runes[:maxFilenameRunes]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case r < 32 || r == 127:
			out = append(out, '_')
		case strings.ContainsRune(`/\:*?"<>| `, r):
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}

	if len(out) == 0 || strings.Trim(string(out), "._") == "" {
		return fallback
	}
	return string(out)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to width display columns. Labels such as
// "10-20°" are padded by display width, not by byte length.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// PadLeft right-aligns s in width display columns.
func PadLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}

// TruncateWidth truncates s to at most maxWidth display columns, ending in
// "..." when anything was cut.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
