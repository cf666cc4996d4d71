// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/meshbench/internal/benchmark"
)

// =============================================================================
// AGGREGATE JSON EXPORTER
// =============================================================================

// Row is one scenario in the aggregate JSON and CSV reports.
type Row struct {
	Test            string   `json:"test"`
	Description     string   `json:"description"`
	MaxH            *float64 `json:"maxh,omitempty"`
	NumTriangles    int      `json:"num_triangles"`
	TimeSec         float64  `json:"time_sec"`
	TrianglesPerSec float64  `json:"triangles_per_sec"`
}

// Rows flattens the scenarios of r in run order.
func Rows(r *benchmark.SuiteResult) []Row {
	rows := make([]Row, 0, len(r.Scenarios))
	for i := range r.Scenarios {
		s := &r.Scenarios[i]
		row := Row{
			Test:            s.Key,
			Description:     s.Description,
			NumTriangles:    s.NumTriangles,
			TimeSec:         s.Seconds(),
			TrianglesPerSec: s.Throughput,
		}
		if v, ok := s.MaxH(); ok {
			row.MaxH = &v
		}
		rows = append(rows, row)
	}
	return rows
}

// JSONExporter writes bench_<software>.json: one row per scenario.
type JSONExporter struct{}

// NewJSONExporter creates a new aggregate JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a suite result to the aggregate JSON format.
func (e *JSONExporter) Export(r *benchmark.SuiteResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("suite result is nil")
	}
	return json.MarshalIndent(Rows(r), "", "  ")
}

func (e *JSONExporter) Prefix() string        { return "bench" }
func (e *JSONExporter) FileExtension() string { return ".json" }
func (e *JSONExporter) MimeType() string      { return "application/json" }

// =============================================================================
// SUITE JSON EXPORTER
// =============================================================================

// SuiteExporter writes suite_<software>.json: the complete result set with
// quality reports, readable by benchmark.LoadSuite.
type SuiteExporter struct{}

// NewSuiteExporter creates a new full-result exporter.
func NewSuiteExporter() *SuiteExporter {
	return &SuiteExporter{}
}

// Export converts a suite result to JSON.
func (e *SuiteExporter) Export(r *benchmark.SuiteResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("suite result is nil")
	}
	return json.MarshalIndent(r, "", "  ")
}

func (e *SuiteExporter) Prefix() string        { return "suite" }
func (e *SuiteExporter) FileExtension() string { return ".json" }
func (e *SuiteExporter) MimeType() string      { return "application/json" }

// =============================================================================
// METADATA EXPORTER
// =============================================================================

// Meta is the content of meta_<software>.json.
type Meta struct {
	RunID       string            `json:"run_id"`
	Software    string            `json:"software"`
	TestCase    string            `json:"test_case"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Repeats     int               `json:"repeats"`
	StartTime   time.Time         `json:"start_time"`
	System      map[string]string `json:"system"`
}

// MetaExporter writes meta_<software>.json.
type MetaExporter struct{}

// NewMetaExporter creates a new metadata exporter.
func NewMetaExporter() *MetaExporter {
	return &MetaExporter{}
}

// Export writes the run metadata.
func (e *MetaExporter) Export(r *benchmark.SuiteResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("suite result is nil")
	}
	system := r.Meta
	if system == nil {
		system = map[string]string{}
	}
	return json.MarshalIndent(Meta{
		RunID:       r.RunID,
		Software:    r.Software,
		TestCase:    r.TestCase,
		Fingerprint: r.Fingerprint,
		Repeats:     r.Repeats,
		StartTime:   r.StartTime,
		System:      system,
	}, "", "  ")
}

func (e *MetaExporter) Prefix() string        { return "meta" }
func (e *MetaExporter) FileExtension() string { return ".json" }
func (e *MetaExporter) MimeType() string      { return "application/json" }
