// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/quality"
	"github.com/jeranaias/meshbench/internal/util"
)

// ErrNoScenarios is returned when comparing result sets with no common key.
var ErrNoScenarios = errors.New("no scenarios in common")

// =============================================================================
// RESULT TYPES
// =============================================================================

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Key         string          `json:"key"`
	ID          ScenarioID      `json:"id"`
	Description string          `json:"description"`
	Name        string          `json:"name"`
	Options     adapter.Options `json:"options"`

	NumPoints    int             `json:"num_points"`
	NumTriangles int             `json:"num_triangles"`
	Elapsed      time.Duration   `json:"elapsed"`
	Timings      []time.Duration `json:"timings"`
	// Throughput is triangles per second of the fastest call.
	Throughput float64         `json:"triangles_per_sec"`
	Quality    *quality.Report `json:"quality"`
	// AreaCoverage is the total mesh area over the polygon area.
	AreaCoverage float64 `json:"area_coverage"`

	// Mesh is written to its own file, never into the aggregate JSON.
	Mesh *mesh.Mesh `json:"-"`
}

// Seconds returns the best elapsed time in seconds.
func (r *ScenarioResult) Seconds() float64 {
	return r.Elapsed.Seconds()
}

// MaxH returns the size hint, if the scenario had one.
func (r *ScenarioResult) MaxH() (float64, bool) {
	return r.Options.MaxH.Get()
}

// SuiteResult is the ordered outcome of a full battery plus run metadata.
type SuiteResult struct {
	RunID       string            `json:"run_id"`
	Software    string            `json:"software"`
	TestCase    string            `json:"test_case"`
	Fingerprint string            `json:"fingerprint"`
	Repeats     int               `json:"repeats"`
	Meta        map[string]string `json:"meta"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Duration    time.Duration     `json:"duration"`
	Scenarios   []ScenarioResult  `json:"scenarios"`
}

// Get returns the scenario with the given key.
func (r *SuiteResult) Get(key string) (*ScenarioResult, bool) {
	for i := range r.Scenarios {
		if r.Scenarios[i].Key == key {
			return &r.Scenarios[i], true
		}
	}
	return nil, false
}

// TotalTriangles sums the triangle counts of every scenario.
func (r *SuiteResult) TotalTriangles() int {
	total := 0
	for _, s := range r.Scenarios {
		total += s.NumTriangles
	}
	return total
}

// =============================================================================
// RESULT STORAGE
// =============================================================================

// SaveSuite writes the result set as indented JSON.
func SaveSuite(r *SuiteResult, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// LoadSuite reads a result set written by SaveSuite. Meshes are not stored
// in the file, so every ScenarioResult.Mesh is nil.
func LoadSuite(path string) (*SuiteResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}
	var r SuiteResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// =============================================================================
// RESULT COMPARISON
// =============================================================================

// Comparison lines up two result sets scenario by scenario.
type Comparison struct {
	Base  string          `json:"base"`
	Other string          `json:"other"`
	Rows  []ComparisonRow `json:"rows"`
	// Unmatched lists keys present in only one of the two sets.
	Unmatched []string `json:"unmatched,omitempty"`
}

// ComparisonRow compares one scenario.
type ComparisonRow struct {
	Key            string        `json:"key"`
	Description    string        `json:"description"`
	BaseElapsed    time.Duration `json:"base_elapsed"`
	OtherElapsed   time.Duration `json:"other_elapsed"`
	BaseTriangles  int           `json:"base_triangles"`
	OtherTriangles int           `json:"other_triangles"`
	// Speedup is base time over other time; above 1 means other is faster.
	// It is 0 when either time is 0.
	Speedup float64 `json:"speedup"`
	// MinAngleDelta is the other mean minimum angle minus the base one.
	MinAngleDelta float64 `json:"min_angle_delta"`
}

// Compare matches scenarios by key in base order.
func Compare(base, other *SuiteResult) (*Comparison, error) {
	c := &Comparison{Base: base.Software, Other: other.Software}

	seen := make(map[string]bool, len(base.Scenarios))
	for _, b := range base.Scenarios {
		seen[b.Key] = true
		o, ok := other.Get(b.Key)
		if !ok {
			c.Unmatched = append(c.Unmatched, b.Key)
			continue
		}
		row := ComparisonRow{
			Key:            b.Key,
			Description:    b.Description,
			BaseElapsed:    b.Elapsed,
			OtherElapsed:   o.Elapsed,
			BaseTriangles:  b.NumTriangles,
			OtherTriangles: o.NumTriangles,
		}
		if b.Elapsed > 0 && o.Elapsed > 0 {
			row.Speedup = float64(b.Elapsed) / float64(o.Elapsed)
		}
		if b.Quality != nil && o.Quality != nil {
			row.MinAngleDelta = float64(o.Quality.MinAngle.Mean - b.Quality.MinAngle.Mean)
		}
		c.Rows = append(c.Rows, row)
	}
	for _, o := range other.Scenarios {
		if !seen[o.Key] {
			c.Unmatched = append(c.Unmatched, o.Key)
		}
	}

	if len(c.Rows) == 0 {
		return c, ErrNoScenarios
	}
	return c, nil
}

// GeoMeanSpeedup returns the geometric mean of the defined speedups, or 0
// when none is defined.
func (c *Comparison) GeoMeanSpeedup() float64 {
	sum := 0.0
	n := 0
	for _, r := range c.Rows {
		if r.Speedup > 0 {
			sum += math.Log(r.Speedup)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Exp(sum / float64(n))
}

// Summary returns a text summary of the comparison.
func (c *Comparison) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Comparison: %s vs %s\n", c.Base, c.Other))
	sb.WriteString(fmt.Sprintf("Scenarios compared: %d\n", len(c.Rows)))
	if g := c.GeoMeanSpeedup(); g > 0 {
		faster := c.Other
		if g < 1 {
			faster = c.Base
			g = 1 / g
		}
		sb.WriteString(fmt.Sprintf("Overall: %s is %.2fx faster (geometric mean)\n", faster, g))
	}
	if len(c.Unmatched) > 0 {
		sb.WriteString(fmt.Sprintf("Unmatched: %s\n", strings.Join(c.Unmatched, ", ")))
	}
	return sb.String()
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// FormatDuration formats duration for display.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "N/A"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// FormatThroughput formats triangles per second for display.
func FormatThroughput(tps float64) string {
	switch {
	case tps == 0:
		return "N/A"
	case tps >= 1e6:
		return fmt.Sprintf("%.2fM tri/s", tps/1e6)
	case tps >= 1e3:
		return fmt.Sprintf("%.1fk tri/s", tps/1e3)
	}
	return fmt.Sprintf("%.0f tri/s", tps)
}

// FormatSpeedup formats a speedup ratio for display.
func FormatSpeedup(s float64) string {
	if s == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2fx", s)
}
