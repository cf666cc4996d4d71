// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package quality reduces a triangle mesh to global quality statistics.
//
// # Key Types
//
//   - Report: triangle count, total area and the three distributions
//   - Stats: min/max/mean/median plus a fixed-edge histogram
//   - Bucket: one histogram bin with explicit boundaries
//
// # Usage
//
//	report, err := quality.Evaluate("A", m)
//	if err != nil {
//	    return err // mesh.ErrMalformed
//	}
//	fmt.Printf("%d triangles, mean min-angle %.2f\n",
//	    report.NumTriangles, report.MinAngle.Mean)
//
// # Degenerate Triangles
//
// A triangle with a zero-length edge has no angle and is left out of the
// min-angle statistics, but its area (0) and aspect ratio (+Inf) are still
// counted. The min-angle sequence can therefore be shorter than the
// triangle count. Empty sequences report 0 for every statistic.
package quality
