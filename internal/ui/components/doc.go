// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides terminal views for meshbench.
//
// # Key Types
//
//   - BenchmarkView: Result tables and run comparisons
//   - SuiteProgress: Bubble Tea model shown while a suite runs
//   - CodeBlock: Syntax-highlighted TOML and JSON documents
//
// # Usage
//
//	result, err := components.RunSuite(ctx, suite, os.Stdout)
//	view := components.NewBenchmarkView(80)
//	fmt.Print(view.RenderResult(result))
package components
