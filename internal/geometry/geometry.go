// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package geometry computes per-triangle shape metrics.
//
// Every function is pure and orientation agnostic: reversing the vertex
// order of a triangle never changes a result. Points are 3D with the z
// component ignored, matching the z = 0 points produced by 2D backends.
package geometry

import (
	"math"
)

// equilateralAltitudeRatio is longest edge over shortest altitude for an
// equilateral triangle (2/sqrt(3)). Aspect ratios are divided by it so an
// equilateral triangle scores exactly 1.
var equilateralAltitudeRatio = 2 / math.Sqrt(3)

// Point is a mesh vertex. Only X and Y take part in the metrics.
type Point = [3]float64

// Metrics holds the shape metrics of a single triangle.
type Metrics struct {
	// MinAngle is the smallest interior angle in degrees. Only meaningful
	// when HasAngle is true.
	MinAngle float64
	// HasAngle is false when any edge has zero length; such a triangle has
	// no angle value at all.
	HasAngle bool
	// AspectRatio is >= 1, or +Inf for a triangle with zero altitude.
	AspectRatio float64
	// Area is never negative.
	Area float64
}

// Compute returns the metrics of the triangle p0, p1, p2.
func Compute(p0, p1, p2 Point) Metrics {
	l0, l1, l2 := EdgeLengths(p0, p1, p2)
	area := Area(p0, p1, p2)

	m := Metrics{
		Area:        area,
		AspectRatio: aspectRatio(area, l0, l1, l2),
	}
	if l0 > 0 && l1 > 0 && l2 > 0 {
		m.MinAngle = minAngleDegrees(l0, l1, l2)
		m.HasAngle = true
	}
	return m
}

// EdgeLengths returns |p1-p0|, |p2-p1| and |p0-p2|.
func EdgeLengths(p0, p1, p2 Point) (l0, l1, l2 float64) {
	return dist(p0, p1), dist(p1, p2), dist(p2, p0)
}

// Area returns half the magnitude of the 2D cross product of the edges
// p1-p0 and p2-p0.
func Area(p0, p1, p2 Point) float64 {
	ex, ey := p1[0]-p0[0], p1[1]-p0[1]
	fx, fy := p2[0]-p0[0], p2[1]-p0[1]
	return 0.5 * math.Abs(ex*fy-ey*fx)
}

// Angles returns the interior angles in radians at p0, p1 and p2, computed
// with the law of cosines from the edge lengths. Each cosine is clamped to
// [-1, 1] before the inverse cosine. The result is undefined when an edge
// has zero length.
func Angles(p0, p1, p2 Point) (a0, a1, a2 float64) {
	return anglesFromLengths(EdgeLengths(p0, p1, p2))
}

// MinAngle returns the smallest interior angle in degrees and false when
// the triangle has a zero-length edge.
func MinAngle(p0, p1, p2 Point) (float64, bool) {
	l0, l1, l2 := EdgeLengths(p0, p1, p2)
	if l0 == 0 || l1 == 0 || l2 == 0 {
		return 0, false
	}
	return minAngleDegrees(l0, l1, l2), true
}

// AspectRatio returns longest edge over shortest altitude, normalised so
// an equilateral triangle is 1. It is +Inf when the altitude is zero.
func AspectRatio(p0, p1, p2 Point) float64 {
	l0, l1, l2 := EdgeLengths(p0, p1, p2)
	return aspectRatio(Area(p0, p1, p2), l0, l1, l2)
}

// l0 = |p1-p0|, l1 = |p2-p1|, l2 = |p0-p2|
func anglesFromLengths(l0, l1, l2 float64) (a0, a1, a2 float64) {
	a0 = math.Acos(clamp((l0*l0+l2*l2-l1*l1)/(2*l0*l2), -1, 1))
	a1 = math.Acos(clamp((l0*l0+l1*l1-l2*l2)/(2*l0*l1), -1, 1))
	a2 = math.Acos(clamp((l1*l1+l2*l2-l0*l0)/(2*l1*l2), -1, 1))
	return a0, a1, a2
}

func minAngleDegrees(l0, l1, l2 float64) float64 {
	a0, a1, a2 := anglesFromLengths(l0, l1, l2)
	return math.Min(a0, math.Min(a1, a2)) * 180 / math.Pi
}

func aspectRatio(area, l0, l1, l2 float64) float64 {
	longest := math.Max(l0, math.Max(l1, l2))
	if longest == 0 {
		return math.Inf(1)
	}
	altitude := 2 * area / longest
	if altitude == 0 {
		return math.Inf(1)
	}
	// Round-off can push a near-equilateral triangle fractionally below 1.
	return math.Max(1, longest/altitude/equilateralAltitudeRatio)
}

func dist(a, b Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
