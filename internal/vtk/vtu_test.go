// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vtk

import (
	"bytes"
	"encoding/xml"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshbench/internal/mesh"
)

func squareMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Points:    [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
		Edges:     [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	}
}

func TestWrite_Structure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, squareMesh(), Options{}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `NumberOfPoints="4"`)
	assert.Contains(t, out, `NumberOfCells="6"`)
	assert.Contains(t, out, `>0 1 2 0 2 3 0 1 1 2 2 3 3 0<`)
	assert.Contains(t, out, `>3 6 8 10 12 14<`)
	assert.Contains(t, out, `>5 5 3 3 3 3<`)
	assert.NotContains(t, out, "CellData")
}

func TestWriteRead_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		mesh *mesh.Mesh
	}{
		{"with edges", squareMesh()},
		{"triangles only", &mesh.Mesh{
			Points:    [][3]float64{{0.5, 0.25, 0}, {1e-9, 3, 0}, {-2, 7.125, 0}},
			Triangles: [][3]int{{0, 1, 2}},
		}},
		{"empty", &mesh.Mesh{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mesh.vtu")
			require.NoError(t, WriteFile(path, tt.mesh, Options{CellQuality: true}))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.mesh.NumPoints(), got.NumPoints())
			assert.Equal(t, tt.mesh.Triangles, got.Triangles)
			assert.Equal(t, tt.mesh.Edges, got.Edges)
			for i := range tt.mesh.Points {
				assert.Equal(t, tt.mesh.Points[i], got.Points[i])
			}
		})
	}
}

func TestWrite_CellQuality(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, squareMesh(), Options{CellQuality: true}))

	var doc vtkFile
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.NotNil(t, doc.Grid.Piece.CellData)

	angle, ok := doc.Grid.Piece.CellData.find("min_angle")
	require.True(t, ok)
	values := strings.Fields(angle.Data)
	require.Len(t, values, 6)
	for i, want := range []float64{45, 45, -1, -1, -1, -1} {
		got, err := strconv.ParseFloat(values[i], 64)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9)
	}

	area, ok := doc.Grid.Piece.CellData.find("area")
	require.True(t, ok)
	assert.Equal(t, "0.5", strings.Fields(area.Data)[0])
}

func TestWrite_DegenerateCellQuality(t *testing.T) {
	m := &mesh.Mesh{
		Points:    [][3]float64{{0, 0, 0}, {0, 0, 0}, {1, 1, 0}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m, Options{CellQuality: true}))

	var doc vtkFile
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	ratio, _ := doc.Grid.Piece.CellData.find("aspect_ratio")
	angle, _ := doc.Grid.Piece.CellData.find("min_angle")
	assert.Equal(t, "-1", strings.TrimSpace(ratio.Data))
	assert.Equal(t, "-1", strings.TrimSpace(angle.Data))
}

func TestWrite_RejectsMalformedMesh(t *testing.T) {
	m := &mesh.Mesh{Points: [][3]float64{{0, 0, 0}}, Triangles: [][3]int{{0, 1, 2}}}
	err := Write(&bytes.Buffer{}, m, Options{})
	assert.ErrorIs(t, err, mesh.ErrMalformed)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "hello"},
		{"wrong type", `<VTKFile type="PolyData"><UnstructuredGrid><Piece/></UnstructuredGrid></VTKFile>`},
		{"quad cell", `<VTKFile type="UnstructuredGrid"><UnstructuredGrid><Piece NumberOfPoints="4" NumberOfCells="1">
<Points><DataArray type="Float64" NumberOfComponents="3" format="ascii">0 0 0 1 0 0 1 1 0 0 1 0</DataArray></Points>
<Cells>
<DataArray type="Int64" Name="connectivity" format="ascii">0 1 2 3</DataArray>
<DataArray type="Int64" Name="offsets" format="ascii">4</DataArray>
<DataArray type="UInt8" Name="types" format="ascii">9</DataArray>
</Cells></Piece></UnstructuredGrid></VTKFile>`},
		{"binary", `<VTKFile type="UnstructuredGrid"><UnstructuredGrid><Piece NumberOfPoints="1" NumberOfCells="0">
<Points><DataArray type="Float64" NumberOfComponents="3" format="binary">AAAA</DataArray></Points>
</Piece></UnstructuredGrid></VTKFile>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}
