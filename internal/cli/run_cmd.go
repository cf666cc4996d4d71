// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run_cmd.go - The run command: execute the scenario battery against one
// backend, write the reports and record the run.

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/config"
	"github.com/jeranaias/meshbench/internal/detect"
	"github.com/jeranaias/meshbench/internal/export"
	"github.com/jeranaias/meshbench/internal/history"
	"github.com/jeranaias/meshbench/internal/testcase"
	"github.com/jeranaias/meshbench/internal/ui/components"
)

// runBoolFlags are the boolean flags of the run command.
var runBoolFlags = []string{"no-vtu", "no-history", "plain", "watch"}

// runOptions controls how a run reports progress.
type runOptions struct {
	json    bool
	quiet   bool
	verbose bool
	live    bool
}

// HandleRun handles the run command.
func HandleRun(args Args) error {
	p := args.Parser(runBoolFlags...)

	cfg, err := args.LoadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg, p); err != nil {
		return err
	}
	if cfg.Software == "" {
		cfg.Software = softwareFromCommand(cfg.Backend.Command)
	}
	if cfg.Software == "" {
		return ErrMissingArgument("--software", "meshbench run --software triangle --backend ./triangle-bench")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := runOptions{
		json:    args.JSON,
		quiet:   args.Quiet,
		verbose: args.Verbose,
		live:    !p.BoolFlag("plain") && !args.JSON && !args.Quiet && !args.Verbose && IsStdoutTTY(),
	}

	ctx, stop := signalContext()
	defer stop()

	if p.BoolFlag("watch") {
		if args.JSON {
			return NewValidationError("--watch", "", "cannot be combined with --json")
		}
		return watchAndRun(ctx, cfg, opts)
	}

	data, err := runOnce(ctx, cfg, opts)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("run", data).Print()
	}
	return nil
}

// applyRunFlags copies run flags over the loaded configuration.
func applyRunFlags(cfg *config.Config, p *ArgParser) error {
	if v := p.Flag("software"); v != "" {
		cfg.Software = v
	}
	if v := p.Flag("backend"); v != "" {
		cfg.Backend.Command = v
	}
	if v := p.Flag("kind"); v != "" {
		cfg.Backend.Kind = strings.ToLower(v)
	}
	if p.HasFlag("args") {
		cfg.Backend.Args = p.FlagList("args")
	}
	if v := p.Flag("testcase"); v != "" {
		cfg.Suite.TestCase = v
	}
	if v := p.Flag("out"); v != "" {
		cfg.Output.Dir = v
	}
	if p.HasFlag("repeats") {
		n, err := p.FlagInt("repeats")
		if err != nil {
			return err
		}
		cfg.Suite.Repeats = n
	}
	if p.HasFlag("sizes") {
		sizes, err := p.FlagFloats("sizes")
		if err != nil {
			return err
		}
		cfg.Suite.Sizes = sizes
	}
	if p.HasFlag("min-angle") {
		a, err := p.FlagFloat("min-angle")
		if err != nil {
			return err
		}
		cfg.Suite.MinAngle = &a
	}
	if p.HasFlag("timeout") {
		n, err := p.FlagInt("timeout")
		if err != nil {
			return err
		}
		cfg.Backend.TimeoutSecs = n
	}
	if p.BoolFlag("no-vtu") {
		cfg.Output.WriteVTU = false
	}
	if p.BoolFlag("no-history") {
		cfg.History.Enabled = false
	}
	return nil
}

// softwareFromCommand derives a report name from the backend command:
// "./bin/triangle-bench.exe" -> "triangle-bench".
func softwareFromCommand(command string) string {
	if command == "" {
		return ""
	}
	base := filepath.Base(command)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// ONE RUN
// =============================================================================

// runOnce loads the inputs, runs the battery, writes the reports and
// records the run.
func runOnce(ctx context.Context, cfg *config.Config, opts runOptions) (*RunData, error) {
	tc, err := testcase.Load(cfg.Suite.TestCase)
	if err != nil {
		return nil, err
	}
	backend, err := adapter.New(cfg.AdapterConfig())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	meta := detect.CollectCached(ctx).Map()
	meta["meshbench_version"] = Version
	meta["backend_kind"] = cfg.Backend.Kind
	meta["backend_command"] = cfg.Backend.Command
	meta["testcase_path"] = cfg.Suite.TestCase

	suite := &benchmark.Suite{
		Software: cfg.Software,
		Backend:  backend,
		Case:     tc,
		Params:   cfg.Params(),
		Meta:     meta,
		Runner:   benchmark.NewRunner(),
	}

	var result *benchmark.SuiteResult
	if opts.live {
		result, err = components.RunSuite(ctx, suite, os.Stdout)
	} else {
		attachPlainProgress(suite, progressWriter(opts), opts.verbose)
		result, err = suite.Run(ctx)
	}
	if err != nil {
		return nil, err
	}

	files, err := export.WriteAll(result, &export.Options{
		OutputDir:     cfg.Output.Dir,
		WriteVTU:      cfg.Output.WriteVTU,
		CellQuality:   cfg.Output.CellQuality,
		WriteMarkdown: cfg.Output.WriteMarkdown,
	})
	if err != nil {
		return nil, err
	}

	recorded := false
	if cfg.History.Enabled {
		recorded = recordRun(ctx, cfg, result)
	}

	if !opts.json {
		printRunSummary(os.Stdout, result, files, recorded, opts.quiet)
	}

	return &RunData{
		RunID:      result.RunID,
		Software:   result.Software,
		TestCase:   result.TestCase,
		OutputDir:  cfg.Output.Dir,
		Files:      files,
		Recorded:   recorded,
		Result:     result,
		DurationMS: result.Duration.Milliseconds(),
	}, nil
}

// progressWriter returns where plain progress goes: nowhere when quiet,
// stderr in JSON mode so stdout carries only the response.
func progressWriter(opts runOptions) io.Writer {
	switch {
	case opts.quiet:
		return io.Discard
	case opts.json:
		return os.Stderr
	}
	return os.Stdout
}

// attachPlainProgress prints one line per scenario to w.
func attachPlainProgress(suite *benchmark.Suite, w io.Writer, verbose bool) {
	total := len(benchmark.GetStandardScenarios(suite.Case, suite.Params))
	view := components.NewBenchmarkView(GetTerminalWidth())
	done := 0

	suite.OnScenarioStart = func(s benchmark.Scenario) {
		fmt.Fprintln(w, view.RenderProgress(suite.Software, done, total, s.Key()+" "+s.Description))
	}
	suite.OnScenarioDone = func(r *benchmark.ScenarioResult) {
		done++
		fmt.Fprintf(w, "  %s %s  %s triangles  %s\n",
			RenderStatus("ok"), r.Key, formatCount(r.NumTriangles), benchmark.FormatDuration(r.Elapsed))
	}
	if verbose {
		suite.Runner.OnRepeat = func(i int, d time.Duration) {
			log.Printf("repeat %d/%d: %s", i+1, suite.Params.Repeats, benchmark.FormatDuration(d))
		}
	}
}

// recordRun stores result in the history database. Failures are logged,
// never fatal: the reports are already on disk.
func recordRun(ctx context.Context, cfg *config.Config, result *benchmark.SuiteResult) bool {
	path, err := cfg.HistoryPath()
	if err != nil {
		log.Printf("history: %v", err)
		return false
	}
	store, err := history.Open(path)
	if err != nil {
		log.Printf("history: %v", err)
		return false
	}
	defer store.Close()

	if err := store.Record(ctx, result); err != nil {
		log.Printf("history: failed to record run %s: %v", result.RunID, err)
		return false
	}
	return true
}

// printRunSummary prints the result table and the files written.
func printRunSummary(w io.Writer, result *benchmark.SuiteResult, files []string, recorded, quiet bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, components.NewBenchmarkView(GetTerminalWidth()).RenderResult(result))
	if quiet {
		return
	}

	fmt.Fprintf(w, "%s %s triangles in %d scenarios\n",
		RenderLabel("Total:", 12), formatCount(result.TotalTriangles()), len(result.Scenarios))
	fmt.Fprintf(w, "%s %d files\n", RenderLabel("Written:", 12), len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  %s\n", DimStyle.Render(f))
	}
	if recorded {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("History:", 12), shortID(result.RunID))
	}
}
