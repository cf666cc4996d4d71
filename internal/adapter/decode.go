// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/meshbench/internal/mesh"
)

// wireMesh is the mesh JSON as emitted by a backend. Rows are decoded as
// slices so wrong arities are seen rather than padded or truncated.
type wireMesh struct {
	Points    *[][]float64 `json:"points"`
	Triangles *[][]int     `json:"triangles"`
	Edges     [][]int      `json:"constraint_edges"`
}

// DecodeMesh parses mesh JSON. Points carry 2 or 3 coordinates, triangles
// exactly 3 indices and constraint edges exactly 2. The points and triangles
// keys are required; constraint_edges may be omitted.
func DecodeMesh(data []byte) (*mesh.Mesh, error) {
	var w wireMesh
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if w.Points == nil {
		return nil, fmt.Errorf("%w: missing points", ErrInvalidOutput)
	}
	if w.Triangles == nil {
		return nil, fmt.Errorf("%w: missing triangles", ErrInvalidOutput)
	}

	m := &mesh.Mesh{
		Points:    make([][3]float64, len(*w.Points)),
		Triangles: make([][3]int, len(*w.Triangles)),
	}
	for i, p := range *w.Points {
		if len(p) != 2 && len(p) != 3 {
			return nil, fmt.Errorf("%w: point %d has %d coordinates, want 2 or 3", ErrInvalidOutput, i, len(p))
		}
		copy(m.Points[i][:], p)
	}
	for i, t := range *w.Triangles {
		if len(t) != 3 {
			return nil, fmt.Errorf("%w: triangle %d has %d indices, want 3", ErrInvalidOutput, i, len(t))
		}
		copy(m.Triangles[i][:], t)
	}
	if len(w.Edges) > 0 {
		m.Edges = make([][2]int, len(w.Edges))
		for i, e := range w.Edges {
			if len(e) != 2 {
				return nil, fmt.Errorf("%w: constraint edge %d has %d indices, want 2", ErrInvalidOutput, i, len(e))
			}
			copy(m.Edges[i][:], e)
		}
	}
	return m, nil
}
