// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package testcase reads and writes the polygon test cases fed to backends.
//
// Two formats are supported:
//   - Text: the first line is the outer loop, every following non-blank line
//     an inner loop; each line is whitespace-separated "x y" pairs.
//   - GeoJSON: a Polygon geometry, a Feature holding one, or the first
//     Polygon feature of a FeatureCollection (.geojson or .json).
package testcase

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/crypto/blake2b"

	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/util"
)

// ErrEmpty is returned for a test case without an outer loop.
var ErrEmpty = errors.New("test case has no outer loop")

// Format is a test-case file format.
type Format string

const (
	FormatText    Format = "text"
	FormatGeoJSON Format = "geojson"
)

// TestCase is a polygon with optional inner loops.
type TestCase struct {
	// Name is derived from the file name, e.g. "city" for city.txt.
	Name  string
	Outer mesh.Loop
	Inner []mesh.Loop
	// Fingerprint is a short BLAKE2b digest of the file contents, used to
	// tell apart runs made on different inputs with the same name.
	Fingerprint string
}

// Validate checks every loop.
func (tc *TestCase) Validate() error {
	if len(tc.Outer) == 0 {
		return ErrEmpty
	}
	return mesh.ValidateLoops(tc.Outer, tc.Inner)
}

// Area returns the outer area minus the inner loop areas.
func (tc *TestCase) Area() float64 {
	return mesh.PolygonArea(tc.Outer, tc.Inner)
}

// NumVertices returns the vertex count over all loops.
func (tc *TestCase) NumVertices() int {
	n := len(tc.Outer)
	for _, l := range tc.Inner {
		n += len(l)
	}
	return n
}

// Polygon returns the test case as an orb polygon with closed rings.
func (tc *TestCase) Polygon() orb.Polygon {
	poly := make(orb.Polygon, 0, 1+len(tc.Inner))
	poly = append(poly, closeRing(tc.Outer))
	for _, l := range tc.Inner {
		poly = append(poly, closeRing(l))
	}
	return poly
}

// =============================================================================
// LOADING
// =============================================================================

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return FormatGeoJSON
	}
	return FormatText
}

// Load reads and validates a test case.
func Load(path string) (*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test case: %w", err)
	}

	var tc *TestCase
	switch DetectFormat(path) {
	case FormatGeoJSON:
		tc, err = ParseGeoJSON(data)
	default:
		tc, err = ParseText(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	tc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tc.Fingerprint = Fingerprint(data)
	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tc, nil
}

// Fingerprint returns the first 16 hex digits of the BLAKE2b-256 digest.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// ParseText parses the line-oriented text format.
func ParseText(data []byte) (*TestCase, error) {
	tc := &TestCase{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if lineNo == 1 {
				return nil, ErrEmpty
			}
			continue
		}
		loop, err := parseLoop(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if tc.Outer == nil {
			tc.Outer = loop
		} else {
			tc.Inner = append(tc.Inner, loop)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if tc.Outer == nil {
		return nil, ErrEmpty
	}
	return tc, nil
}

func parseLoop(line string) (mesh.Loop, error) {
	fields := strings.Fields(line)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of coordinates (%d)", mesh.ErrMalformed, len(fields))
	}
	loop := make(mesh.Loop, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", mesh.ErrMalformed, err)
		}
		y, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", mesh.ErrMalformed, err)
		}
		loop = append(loop, orb.Point{x, y})
	}
	return loop, nil
}

// ParseGeoJSON parses a Polygon geometry, Feature or FeatureCollection.
func ParseGeoJSON(data []byte) (*TestCase, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}

	var g orb.Geometry
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("invalid GeoJSON: %w", err)
		}
		for _, f := range fc.Features {
			if _, ok := f.Geometry.(orb.Polygon); ok {
				g = f.Geometry
				break
			}
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("invalid GeoJSON: %w", err)
		}
		g = f.Geometry
	default:
		geom, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("invalid GeoJSON: %w", err)
		}
		g = geom.Geometry()
	}

	poly, ok := g.(orb.Polygon)
	if !ok || len(poly) == 0 {
		return nil, fmt.Errorf("%w: GeoJSON does not contain a polygon", ErrEmpty)
	}

	tc := &TestCase{Outer: openRing(poly[0])}
	for _, r := range poly[1:] {
		tc.Inner = append(tc.Inner, openRing(r))
	}
	return tc, nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the test case in the format implied by the path.
func Save(tc *TestCase, path string) error {
	var data []byte
	var err error
	switch DetectFormat(path) {
	case FormatGeoJSON:
		data, err = MarshalGeoJSON(tc)
	default:
		data = MarshalText(tc)
	}
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, data, 0644)
}

// MarshalText encodes the text format.
func MarshalText(tc *TestCase) []byte {
	var b bytes.Buffer
	writeLoop(&b, tc.Outer)
	for _, l := range tc.Inner {
		writeLoop(&b, l)
	}
	return b.Bytes()
}

func writeLoop(b *bytes.Buffer, l mesh.Loop) {
	for i, p := range l {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(p[0], 'g', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(p[1], 'g', -1, 64))
	}
	b.WriteByte('\n')
}

// MarshalGeoJSON encodes the test case as a GeoJSON Feature.
func MarshalGeoJSON(tc *TestCase) ([]byte, error) {
	f := geojson.NewFeature(tc.Polygon())
	if tc.Name != "" {
		f.Properties["name"] = tc.Name
	}
	return json.MarshalIndent(f, "", "  ")
}

// openRing drops the closing point GeoJSON repeats; loops close implicitly.
func openRing(r orb.Ring) mesh.Loop {
	if len(r) > 1 && r.Closed() {
		r = r[:len(r)-1]
	}
	out := make(mesh.Loop, len(r))
	copy(out, r)
	return out
}

func closeRing(l mesh.Loop) orb.Ring {
	r := make(orb.Ring, len(l), len(l)+1)
	copy(r, l)
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}
