// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrMalformed is returned for loops and meshes that cannot be evaluated.
var ErrMalformed = errors.New("malformed input")

// MinLoopPoints is the smallest number of vertices a loop may have.
const MinLoopPoints = 3

// =============================================================================
// LOOPS
// =============================================================================

// Loop is an ordered polygon ring. The first point does not need to repeat
// at the end; closure is implicit.
type Loop orb.Ring

// NewLoop builds a loop from (x, y) pairs.
func NewLoop(xy ...[2]float64) Loop {
	l := make(Loop, len(xy))
	for i, p := range xy {
		l[i] = orb.Point(p)
	}
	return l
}

// Ring returns the loop as an orb ring.
func (l Loop) Ring() orb.Ring {
	return orb.Ring(l)
}

// Validate checks the point count and that every coordinate is finite.
func (l Loop) Validate() error {
	if len(l) < MinLoopPoints {
		return fmt.Errorf("%w: loop has %d points, need at least %d", ErrMalformed, len(l), MinLoopPoints)
	}
	for i, p := range l {
		if !finite(p[0]) || !finite(p[1]) {
			return fmt.Errorf("%w: loop point %d is not finite (%v, %v)", ErrMalformed, i, p[0], p[1])
		}
	}
	return nil
}

// Area returns the unsigned enclosed area of the loop.
func (l Loop) Area() float64 {
	return math.Abs(planar.Area(l.closed()))
}

// Bound returns the bounding box of the loop.
func (l Loop) Bound() orb.Bound {
	return l.Ring().Bound()
}

// closed returns a copy whose last point equals its first, as orb expects.
func (l Loop) closed() orb.Ring {
	r := make(orb.Ring, len(l), len(l)+1)
	copy(r, l)
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// ValidateLoops validates an outer loop and any inner loops.
func ValidateLoops(outer Loop, inner []Loop) error {
	if err := outer.Validate(); err != nil {
		return fmt.Errorf("outer loop: %w", err)
	}
	for i, l := range inner {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("inner loop %d: %w", i, err)
		}
	}
	return nil
}

// PolygonArea returns the area enclosed by outer minus the area of every
// inner loop. Inner loops are treated as holes.
func PolygonArea(outer Loop, inner []Loop) float64 {
	area := outer.Area()
	for _, l := range inner {
		area -= l.Area()
	}
	return area
}

// =============================================================================
// MESH
// =============================================================================

// Mesh is the raw output of one triangulation run. Triangle winding is not
// guaranteed to be consistent.
type Mesh struct {
	Points    [][3]float64 `json:"points"`
	Triangles [][3]int     `json:"triangles"`
	Edges     [][2]int     `json:"constraint_edges"`
}

// NumPoints returns the number of points.
func (m *Mesh) NumPoints() int {
	return len(m.Points)
}

// NumTriangles returns the number of triangles.
func (m *Mesh) NumTriangles() int {
	return len(m.Triangles)
}

// NumEdges returns the number of constraint edges.
func (m *Mesh) NumEdges() int {
	return len(m.Edges)
}

// Triangle returns the three corner points of triangle i.
func (m *Mesh) Triangle(i int) (p0, p1, p2 [3]float64) {
	t := m.Triangles[i]
	return m.Points[t[0]], m.Points[t[1]], m.Points[t[2]]
}

// Validate checks that every point is finite and that every triangle and
// edge index is within the point sequence.
func (m *Mesh) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: mesh is nil", ErrMalformed)
	}
	for i, p := range m.Points {
		if !finite(p[0]) || !finite(p[1]) || !finite(p[2]) {
			return fmt.Errorf("%w: point %d is not finite", ErrMalformed, i)
		}
	}
	n := len(m.Points)
	for i, t := range m.Triangles {
		for _, idx := range t {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: triangle %d references point %d of %d", ErrMalformed, i, idx, n)
			}
		}
	}
	for i, e := range m.Edges {
		for _, idx := range e {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: edge %d references point %d of %d", ErrMalformed, i, idx, n)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
