// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the report writers and the
// CLI.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - SanitizeFilename: Makes a software name safe for report file names
//
// Display Width:
//   - StringWidth, PadRight, PadLeft: Column layout that counts '°' and
//     wide characters correctly
//   - TruncateWidth: Width-aware truncation with ellipsis
//
// # Usage
//
//	name := util.SanitizeFilename(software, "backend")
//	err := util.AtomicWriteFile(filepath.Join(dir, "bench_"+name+".json"), data, 0644)
package util
