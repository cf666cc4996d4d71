// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/util"
	"github.com/jeranaias/meshbench/internal/vtk"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a suite result into one report file.
type Exporter interface {
	// Export converts the result to the target format.
	Export(r *benchmark.SuiteResult) ([]byte, error)

	// Prefix is the file name prefix, e.g. "bench" for bench_<software>.csv.
	Prefix() string

	// FileExtension returns the file extension (e.g. ".csv", ".log").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// FileName returns the report file name for software, e.g. "bench_spade.csv".
func FileName(e Exporter, software string) string {
	return fmt.Sprintf("%s_%s%s", e.Prefix(), util.SanitizeFilename(software, "backend"), e.FileExtension())
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures which reports are written.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// WriteVTU writes one mesh file per scenario.
	WriteVTU bool

	// CellQuality adds per-cell quality arrays to the mesh files.
	CellQuality bool

	// WriteMarkdown writes the markdown summary.
	WriteMarkdown bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:     ".",
		WriteVTU:      true,
		CellQuality:   true,
		WriteMarkdown: true,
	}
}

// Exporters returns the report exporters enabled by opts, in write order.
func Exporters(opts *Options) []Exporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	exporters := []Exporter{
		NewMetaExporter(),
		NewJSONExporter(),
		NewCSVExporter(),
		NewMetricsLogExporter(),
		NewSuiteExporter(),
	}
	if opts.WriteMarkdown {
		exporters = append(exporters, NewMarkdownExporter())
	}
	return exporters
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile writes one report into dir and returns its path.
func ExportToFile(r *benchmark.SuiteResult, exporter Exporter, dir string) (string, error) {
	content, err := exporter.Export(r)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	path := filepath.Join(dir, FileName(exporter, r.Software))
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteAll writes every enabled report and, when requested, one VTU file
// per scenario. It returns the paths written, in order. Scenarios without
// a mesh (results loaded back from JSON) are skipped with a log line.
func WriteAll(r *benchmark.SuiteResult, opts *Options) ([]string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if r == nil {
		return nil, fmt.Errorf("suite result is nil")
	}

	var paths []string
	if opts.WriteVTU {
		for i := range r.Scenarios {
			s := &r.Scenarios[i]
			if s.Mesh == nil {
				log.Printf("export: scenario %s has no mesh, skipping VTU", s.Key)
				continue
			}
			path := filepath.Join(opts.OutputDir, s.Name+".vtu")
			if err := vtk.WriteFile(path, s.Mesh, vtk.Options{CellQuality: opts.CellQuality}); err != nil {
				return paths, fmt.Errorf("scenario %s: %w", s.Key, err)
			}
			paths = append(paths, path)
		}
	}

	for _, e := range Exporters(opts) {
		path, err := ExportToFile(r, e, opts.OutputDir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
