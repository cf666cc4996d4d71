// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jeranaias/meshbench/internal/benchmark"
)

// csvHeader is the column order of bench_<software>.csv.
var csvHeader = []string{"test", "description", "maxh", "num_triangles", "time_sec", "triangles_per_sec"}

// CSVExporter writes bench_<software>.csv with the same rows as the
// aggregate JSON. maxh is empty for scenarios without a size hint.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export converts a suite result to CSV.
func (e *CSVExporter) Export(r *benchmark.SuiteResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("suite result is nil")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range Rows(r) {
		maxh := ""
		if row.MaxH != nil {
			maxh = strconv.FormatFloat(*row.MaxH, 'g', -1, 64)
		}
		record := []string{
			row.Test,
			row.Description,
			maxh,
			strconv.Itoa(row.NumTriangles),
			strconv.FormatFloat(row.TimeSec, 'f', 6, 64),
			strconv.FormatFloat(row.TrianglesPerSec, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *CSVExporter) Prefix() string        { return "bench" }
func (e *CSVExporter) FileExtension() string { return ".csv" }
func (e *CSVExporter) MimeType() string      { return "text/csv" }
