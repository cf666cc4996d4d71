// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// metrics_cmd.go - The metrics command: evaluate a mesh that already exists
// on disk, without running a backend.

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/export"
	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/quality"
	"github.com/jeranaias/meshbench/internal/vtk"
)

const metricsUsage = "meshbench metrics mesh.json [--vtu out.vtu] [--maxh 10]"

// MetricsData is the data of the metrics command.
type MetricsData struct {
	File      string          `json:"file"`
	NumPoints int             `json:"num_points"`
	Report    *quality.Report `json:"quality"`
	VTU       string          `json:"vtu,omitempty"`
}

// HandleMetrics handles the metrics command. The mesh is read from a .vtu
// file or from a JSON file in the backend output format.
func HandleMetrics(args Args) error {
	p := args.Parser()
	path := p.Positional(0)
	if path == "" {
		return ErrMissingArgument("mesh file", metricsUsage)
	}

	m, err := readAnyMesh(path)
	if err != nil {
		return err
	}

	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	report, err := quality.Evaluate(key, m)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	data := &MetricsData{File: path, NumPoints: m.NumPoints(), Report: report}
	if out := p.Flag("vtu"); out != "" {
		if err := vtk.WriteFile(out, m, vtk.Options{CellQuality: true}); err != nil {
			return err
		}
		data.VTU = out
	}

	if args.JSON {
		return NewJSONResponse("metrics", data).Print()
	}

	var maxh func() (float64, bool)
	if p.HasFlag("maxh") {
		v, err := p.FlagFloat("maxh")
		if err != nil {
			return err
		}
		maxh = func() (float64, bool) { return v, true }
	}

	var sb strings.Builder
	export.WriteReport(&sb, key, filepath.Base(path), maxh, report)
	fmt.Println(TitleStyle.Render("Mesh quality"))
	fmt.Print(sb.String())
	if data.VTU != "" {
		fmt.Printf("\n%s %s\n", RenderLabel("Written:", 12), data.VTU)
	}
	return nil
}

// readAnyMesh picks the reader by extension.
func readAnyMesh(path string) (*mesh.Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &NotFoundError{Resource: "mesh file", ID: path}
	}
	if strings.EqualFold(filepath.Ext(path), ".vtu") {
		return vtk.ReadFile(path)
	}
	return adapter.ReadMesh(path)
}
