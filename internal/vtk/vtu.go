// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vtk reads and writes meshes as VTK XML unstructured grids (.vtu).
//
// Files are written in the ASCII data format so they stay diffable and
// readable by ParaView, meshio and VisIt. Triangles become VTK_TRIANGLE
// cells and constraint edges VTK_LINE cells. Optionally each cell carries
// its min angle, aspect ratio and area as cell data.
//
// # Usage
//
//	err := vtk.WriteFile("A_unit_square_default.vtu", m, vtk.Options{CellQuality: true})
//	m, err := vtk.ReadFile("A_unit_square_default.vtu")
package vtk

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/meshbench/internal/geometry"
	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/util"
)

// VTK cell type codes.
const (
	cellLine     = 3
	cellTriangle = 5
)

// missing marks cell data that is undefined for a cell: line cells, the
// angle of a zero-edge triangle, and an infinite aspect ratio.
const missing = -1

// ErrFormat is returned for files that are not readable unstructured grids.
var ErrFormat = errors.New("unsupported VTU file")

// Options control what is written besides the geometry.
type Options struct {
	// CellQuality adds min_angle, aspect_ratio and area cell data arrays.
	CellQuality bool
}

// =============================================================================
// XML DOCUMENT
// =============================================================================

type vtkFile struct {
	XMLName   xml.Name         `xml:"VTKFile"`
	Type      string           `xml:"type,attr"`
	Version   string           `xml:"version,attr"`
	ByteOrder string           `xml:"byte_order,attr"`
	Grid      unstructuredGrid `xml:"UnstructuredGrid"`
}

type unstructuredGrid struct {
	Piece piece `xml:"Piece"`
}

type piece struct {
	NumberOfPoints int        `xml:"NumberOfPoints,attr"`
	NumberOfCells  int        `xml:"NumberOfCells,attr"`
	Points         arrayGroup `xml:"Points"`
	Cells          arrayGroup `xml:"Cells"`
	CellData       *arrayGroup `xml:"CellData,omitempty"`
}

type arrayGroup struct {
	Arrays []dataArray `xml:"DataArray"`
}

func (g arrayGroup) find(name string) (dataArray, bool) {
	for _, a := range g.Arrays {
		if a.Name == name {
			return a, true
		}
	}
	return dataArray{}, false
}

type dataArray struct {
	Type       string `xml:"type,attr"`
	Name       string `xml:"Name,attr,omitempty"`
	Components int    `xml:"NumberOfComponents,attr,omitempty"`
	Format     string `xml:"format,attr"`
	Data       string `xml:",chardata"`
}

// =============================================================================
// WRITING
// =============================================================================

// Write encodes m as a VTU document.
func Write(w io.Writer, m *mesh.Mesh, opts Options) error {
	if err := m.Validate(); err != nil {
		return err
	}

	nTri := m.NumTriangles()
	nCells := nTri + m.NumEdges()

	var coords, conn, offsets, types strings.Builder
	for i, p := range m.Points {
		if i > 0 {
			coords.WriteByte(' ')
		}
		writeFloats(&coords, p[:]...)
	}

	offset := 0
	for i, t := range m.Triangles {
		sep(&conn, &offsets, &types, i)
		writeInts(&conn, t[:]...)
		offset += 3
		offsets.WriteString(strconv.Itoa(offset))
		types.WriteString(strconv.Itoa(cellTriangle))
	}
	for i, e := range m.Edges {
		sep(&conn, &offsets, &types, nTri+i)
		writeInts(&conn, e[:]...)
		offset += 2
		offsets.WriteString(strconv.Itoa(offset))
		types.WriteString(strconv.Itoa(cellLine))
	}

	doc := vtkFile{
		Type:      "UnstructuredGrid",
		Version:   "0.1",
		ByteOrder: "LittleEndian",
		Grid: unstructuredGrid{Piece: piece{
			NumberOfPoints: m.NumPoints(),
			NumberOfCells:  nCells,
			Points: arrayGroup{Arrays: []dataArray{
				{Type: "Float64", Name: "Points", Components: 3, Format: "ascii", Data: coords.String()},
			}},
			Cells: arrayGroup{Arrays: []dataArray{
				{Type: "Int64", Name: "connectivity", Format: "ascii", Data: conn.String()},
				{Type: "Int64", Name: "offsets", Format: "ascii", Data: offsets.String()},
				{Type: "UInt8", Name: "types", Format: "ascii", Data: types.String()},
			}},
		}},
	}
	if opts.CellQuality {
		doc.Grid.Piece.CellData = cellQuality(m)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode VTU: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes m to path atomically.
func WriteFile(path string, m *mesh.Mesh, opts Options) error {
	var buf bytes.Buffer
	if err := Write(&buf, m, opts); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0644)
}

func cellQuality(m *mesh.Mesh) *arrayGroup {
	var angle, ratio, area strings.Builder
	n := m.NumTriangles() + m.NumEdges()
	for i := 0; i < n; i++ {
		if i > 0 {
			angle.WriteByte(' ')
			ratio.WriteByte(' ')
			area.WriteByte(' ')
		}
		if i >= m.NumTriangles() {
			writeFloats(&angle, missing)
			writeFloats(&ratio, missing)
			writeFloats(&area, missing)
			continue
		}
		q := geometry.Compute(m.Triangle(i))
		a := float64(missing)
		if q.HasAngle {
			a = q.MinAngle
		}
		r := q.AspectRatio
		if math.IsInf(r, 0) {
			r = missing
		}
		writeFloats(&angle, a)
		writeFloats(&ratio, r)
		writeFloats(&area, q.Area)
	}
	return &arrayGroup{Arrays: []dataArray{
		{Type: "Float64", Name: "min_angle", Format: "ascii", Data: angle.String()},
		{Type: "Float64", Name: "aspect_ratio", Format: "ascii", Data: ratio.String()},
		{Type: "Float64", Name: "area", Format: "ascii", Data: area.String()},
	}}
}

func sep(conn, offsets, types *strings.Builder, i int) {
	if i == 0 {
		return
	}
	conn.WriteByte(' ')
	offsets.WriteByte(' ')
	types.WriteByte(' ')
}

func writeFloats(b *strings.Builder, vs ...float64) {
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
}

func writeInts(b *strings.Builder, vs ...int) {
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
}

// =============================================================================
// READING
// =============================================================================

// Read decodes an ASCII VTU document containing triangle and line cells.
// Other cell types are rejected.
func Read(r io.Reader) (*mesh.Mesh, error) {
	var doc vtkFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if doc.Type != "UnstructuredGrid" {
		return nil, fmt.Errorf("%w: type %q", ErrFormat, doc.Type)
	}
	p := doc.Grid.Piece

	if len(p.Points.Arrays) != 1 {
		return nil, fmt.Errorf("%w: expected one points array", ErrFormat)
	}
	coords, err := parseFloats(p.Points.Arrays[0])
	if err != nil {
		return nil, err
	}
	if len(coords) != 3*p.NumberOfPoints {
		return nil, fmt.Errorf("%w: %d coordinates for %d points", ErrFormat, len(coords), p.NumberOfPoints)
	}

	m := &mesh.Mesh{Points: make([][3]float64, p.NumberOfPoints)}
	for i := range m.Points {
		m.Points[i] = [3]float64{coords[3*i], coords[3*i+1], coords[3*i+2]}
	}

	conn, err := cellArray(p.Cells, "connectivity")
	if err != nil {
		return nil, err
	}
	offsets, err := cellArray(p.Cells, "offsets")
	if err != nil {
		return nil, err
	}
	types, err := cellArray(p.Cells, "types")
	if err != nil {
		return nil, err
	}
	if len(offsets) != len(types) {
		return nil, fmt.Errorf("%w: %d offsets for %d cell types", ErrFormat, len(offsets), len(types))
	}

	start := 0
	for i, end := range offsets {
		if end < start || end > len(conn) {
			return nil, fmt.Errorf("%w: bad offset %d for cell %d", ErrFormat, end, i)
		}
		c := conn[start:end]
		switch {
		case types[i] == cellTriangle && len(c) == 3:
			m.Triangles = append(m.Triangles, [3]int{c[0], c[1], c[2]})
		case types[i] == cellLine && len(c) == 2:
			m.Edges = append(m.Edges, [2]int{c[0], c[1]})
		default:
			return nil, fmt.Errorf("%w: cell %d has type %d with %d vertices", ErrFormat, i, types[i], len(c))
		}
		start = end
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadFile reads a VTU file.
func ReadFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh: %w", err)
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func cellArray(g arrayGroup, name string) ([]int, error) {
	a, ok := g.find(name)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s array", ErrFormat, name)
	}
	if a.Format != "ascii" {
		return nil, fmt.Errorf("%w: %s array is %s, only ascii is supported", ErrFormat, name, a.Format)
	}
	fields := strings.Fields(a.Data)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFormat, name, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(a dataArray) ([]float64, error) {
	if a.Format != "ascii" {
		return nil, fmt.Errorf("%w: points array is %s, only ascii is supported", ErrFormat, a.Format)
	}
	fields := strings.Fields(a.Data)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: points: %v", ErrFormat, err)
		}
		out[i] = v
	}
	return out, nil
}
