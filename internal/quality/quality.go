// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package quality

import (
	"fmt"
	"sort"

	"github.com/jeranaias/meshbench/internal/geometry"
	"github.com/jeranaias/meshbench/internal/mesh"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// Report holds the quality statistics of one mesh.
type Report struct {
	// Key identifies the scenario that produced the mesh (A, B, C, D0...).
	Key          string  `json:"key"`
	NumTriangles int     `json:"num_triangles"`
	TotalArea    float64 `json:"total_area"`
	// AngleDegenerate counts triangles left out of the angle statistics
	// because one of their edges has zero length.
	AngleDegenerate int     `json:"angle_degenerate"`
	MinAngle        Stats   `json:"min_angle"`
	// AspectRatio is longest edge over shortest altitude divided by 2/sqrt(3),
	// so an equilateral triangle scores 1 and a right isosceles one sqrt(3).
	AspectRatio     Stats   `json:"aspect_ratio"`
	Area            Summary `json:"area"`
}

// Summary is the min/max/mean/median of a sequence. All fields are 0 for an
// empty sequence.
type Summary struct {
	Count  int   `json:"count"`
	Min    Float `json:"min"`
	Max    Float `json:"max"`
	Mean   Float `json:"mean"`
	Median Float `json:"median"`
}

// Stats is a Summary plus a fixed-edge histogram.
type Stats struct {
	Summary
	Distribution []Bucket `json:"distribution"`
}

// BucketTotal returns the sum of all bucket counts.
func (s Stats) BucketTotal() int {
	total := 0
	for _, b := range s.Distribution {
		total += b.Count
	}
	return total
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluate validates m and computes its quality report. Nothing is returned
// for a malformed mesh; a report is produced whole or not at all.
func Evaluate(key string, m *mesh.Mesh) (*Report, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", key, err)
	}

	n := m.NumTriangles()
	angles := make([]float64, 0, n)
	ratios := make([]float64, 0, n)
	areas := make([]float64, 0, n)

	for i := 0; i < n; i++ {
		metrics := geometry.Compute(m.Triangle(i))
		areas = append(areas, metrics.Area)
		ratios = append(ratios, metrics.AspectRatio)
		if metrics.HasAngle {
			angles = append(angles, metrics.MinAngle)
		}
	}

	total := 0.0
	for _, a := range areas {
		total += a
	}

	return &Report{
		Key:             key,
		NumTriangles:    n,
		TotalArea:       total,
		AngleDegenerate: n - len(angles),
		MinAngle: Stats{
			Summary:      summarize(angles),
			Distribution: histogram(AngleEdges, angles, "°"),
		},
		AspectRatio: Stats{
			Summary:      summarize(ratios),
			Distribution: histogram(AspectRatioEdges, ratios, ""),
		},
		Area: summarize(areas),
	}, nil
}

// summarize computes min, max, arithmetic mean and median. The median of an
// even-length sequence is the mean of the two middle values.
func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Summary{
		Count:  n,
		Min:    Float(sorted[0]),
		Max:    Float(sorted[n-1]),
		Mean:   Float(sum / float64(n)),
		Median: Float(median),
	}
}
