// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes benchmark reports from a suite result.
//
// A suite result is the only input. Every report is rendered in memory and
// written atomically into the output directory.
//
// # Key Types
//
//   - Exporter: Report format interface
//   - Options: Output directory and optional outputs
//   - Row: One scenario of the aggregate JSON/CSV reports
//
// # Report Files
//
//   - meta_<software>.json: Run and host metadata
//   - bench_<software>.json: Per-scenario timing rows
//   - bench_<software>.csv: The same rows as CSV
//   - metrics_<software>.log: Quality statistics with distributions
//   - suite_<software>.json: The complete result, for later comparison
//   - summary_<software>.md: Markdown summary (optional)
//   - <scenario>.vtu: One mesh per scenario (optional)
//
// # Usage
//
//	opts := export.DefaultOptions()
//	opts.OutputDir = "results"
//	paths, err := export.WriteAll(result, opts)
package export
