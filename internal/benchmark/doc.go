// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package benchmark times triangulation backends and runs the standard
// scenario battery.
//
// Every scenario calls the backend several times in sequence and keeps the
// fastest call (best-of-N). Its mesh is then evaluated by the quality
// package, so speed and mesh quality are always reported together.
//
// # Key Types
//
//   - Runner: Best-of-N timer for a single request
//   - Scenario: One entry of the battery (A, B, C, D0...)
//   - Suite: Runs the battery against one backend
//   - SuiteResult: Ordered scenario results plus run metadata
//   - Comparison: Scenario-by-scenario comparison of two result sets
//
// # Usage
//
// Run the battery:
//
//	suite := &benchmark.Suite{
//	    Software: "spade",
//	    Backend:  backend,
//	    Case:     tc,
//	    Params:   benchmark.DefaultParams(),
//	}
//	result, err := suite.Run(ctx)
//
// Compare two saved runs:
//
//	a, _ := benchmark.LoadSuite("suite_spade.json")
//	b, _ := benchmark.LoadSuite("suite_triangle.json")
//	cmp, err := benchmark.Compare(a, b)
//	fmt.Print(cmp.Summary())
//
// # Scenarios
//
//   - A: Unit square, default parameters
//   - B: Unit square with a square hole, constraints enforced
//   - C: Test case at one size hint, moderate quality
//   - D: Test case swept over the size hints, moderate quality
package benchmark
