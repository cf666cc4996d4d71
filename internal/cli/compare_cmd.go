// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// compare_cmd.go - The compare command: scenario-by-scenario comparison of
// two runs.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/history"
	"github.com/jeranaias/meshbench/internal/ui/components"
)

const compareUsage = "meshbench compare results/suite_triangle.json 3f2a9c1e"

// HandleCompare handles the compare command. Each argument is a suite JSON
// file or a run id (prefix) from the history database.
func HandleCompare(args Args) error {
	p := args.Parser()
	if p.PositionalCount() != 2 {
		return ErrMissingArgument("runs", compareUsage)
	}

	cfg, err := args.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var store *history.Store
	defer func() {
		if store != nil {
			store.Close()
		}
	}()

	load := func(ref string) (*benchmark.SuiteResult, error) {
		if _, err := os.Stat(ref); err == nil {
			return benchmark.LoadSuite(ref)
		}
		if store == nil {
			path, err := cfg.HistoryPath()
			if err != nil {
				return nil, err
			}
			if store, err = history.Open(path); err != nil {
				return nil, err
			}
		}
		r, err := store.Get(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("%s is neither a file nor a recorded run: %w", ref, err)
		}
		return r, nil
	}

	base, err := load(p.Positional(0))
	if err != nil {
		return err
	}
	other, err := load(p.Positional(1))
	if err != nil {
		return err
	}

	c, err := benchmark.Compare(base, other)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("compare", struct {
			*benchmark.Comparison
			GeoMeanSpeedup float64 `json:"geomean_speedup"`
		}{c, c.GeoMeanSpeedup()}).Print()
	}
	fmt.Print(components.NewBenchmarkView(GetTerminalWidth()).RenderComparison(c))
	return nil
}
