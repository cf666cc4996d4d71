// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - The history command: browse and maintain recorded runs.

package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/export"
	"github.com/jeranaias/meshbench/internal/history"
	"github.com/jeranaias/meshbench/internal/util"
)

var historySubcommands = []string{"list", "show", "trend", "delete", "prune"}

// HandleHistory handles the history command.
func HandleHistory(args Args) error {
	p := args.Parser("confirm", "y")

	cfg, err := args.LoadConfig()
	if err != nil {
		return err
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return NewCommandError("history", "open", path, err)
	}
	defer store.Close()

	ctx := context.Background()
	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return historyList(ctx, store, p, args.JSON)
	case "show":
		return historyShow(ctx, store, p, args.JSON)
	case "trend":
		return historyTrend(ctx, store, p, args.JSON)
	case "delete", "rm":
		return historyDelete(ctx, store, p, args.JSON)
	case "prune":
		return historyPrune(ctx, store, p, args.JSON)
	default:
		return ErrUnknownSubcommand("history", sub, historySubcommands)
	}
}

// =============================================================================
// LIST
// =============================================================================

func historyList(ctx context.Context, store *history.Store, p *ArgParser, jsonMode bool) error {
	runs, err := store.List(ctx, history.ListOptions{
		Software: p.Flag("software"),
		TestCase: p.Flag("testcase"),
		Limit:    p.FlagIntOrDefault("limit", 20),
	})
	if err != nil {
		return err
	}

	if jsonMode {
		data := make([]HistoryRunData, len(runs))
		for i, r := range runs {
			data[i] = HistoryRunData{
				RunID:          r.RunID,
				Software:       r.Software,
				TestCase:       r.TestCase,
				Fingerprint:    r.Fingerprint,
				Repeats:        r.Repeats,
				StartTime:      r.StartTime.UTC().Format(time.RFC3339),
				DurationMS:     r.Duration.Milliseconds(),
				TotalTriangles: r.TotalTriangles,
				NumScenarios:   r.NumScenarios,
			}
		}
		return NewJSONResponse("history list", data).Print()
	}

	if len(runs) == 0 {
		fmt.Println(DimStyle.Render("No recorded runs. Run `meshbench run` first."))
		return nil
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Recorded runs (%d)", len(runs))))
	fmt.Println(SectionStyle.Render(fmt.Sprintf("%s %s %s %s %s %s",
		util.PadRight("Run", 9), util.PadRight("Software", 16), util.PadRight("Test case", 14),
		util.PadLeft("Triangles", 12), util.PadLeft("Duration", 10), "When")))
	now := time.Now()
	for _, r := range runs {
		fmt.Printf("%s %s %s %s %s %s\n",
			util.PadRight(shortID(r.RunID), 9),
			util.PadRight(util.TruncateWidth(r.Software, 16), 16),
			util.PadRight(util.TruncateWidth(r.TestCase, 14), 14),
			util.PadLeft(formatCount(r.TotalTriangles), 12),
			util.PadLeft(benchmark.FormatDuration(r.Duration), 10),
			DimStyle.Render(formatAge(r.StartTime, now)))
	}
	return nil
}

// =============================================================================
// SHOW
// =============================================================================

func historyShow(ctx context.Context, store *history.Store, p *ArgParser, jsonMode bool) error {
	id := p.Positional(1)
	if id == "" {
		return ErrMissingArgument("run id", "meshbench history show 3f2a9c1e")
	}
	r, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse("history show", r).Print()
	}

	summary, err := export.NewMarkdownExporter().Export(r)
	if err != nil {
		return err
	}
	displayMarkdown(os.Stdout, string(summary))
	return nil
}

// =============================================================================
// TREND
// =============================================================================

func historyTrend(ctx context.Context, store *history.Store, p *ArgParser, jsonMode bool) error {
	key := p.Positional(1)
	software := p.Flag("software")
	if key == "" || software == "" {
		return ErrMissingArgument("scenario key and --software", "meshbench history trend C --software triangle")
	}
	points, err := store.Trend(ctx, software, key, p.FlagIntOrDefault("limit", 20))
	if err != nil {
		return err
	}

	if jsonMode {
		data := make([]TrendPointData, len(points))
		for i, pt := range points {
			data[i] = TrendPointData{
				RunID:        pt.RunID,
				StartTime:    pt.StartTime.UTC().Format(time.RFC3339),
				ElapsedMS:    float64(pt.Elapsed) / float64(time.Millisecond),
				NumTriangles: pt.NumTriangles,
				Throughput:   pt.Throughput,
			}
			if !math.IsNaN(pt.MinAngleMean) {
				v := pt.MinAngleMean
				data[i].MinAngleMean = &v
			}
		}
		return NewJSONResponse("history trend", data).Print()
	}

	if len(points) == 0 {
		fmt.Println(DimStyle.Render(fmt.Sprintf("No runs of %s with scenario %s.", software, key)))
		return nil
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Scenario %s of %s, newest first", key, software)))
	fmt.Println(SectionStyle.Render(fmt.Sprintf("%s %s %s %s %s %s",
		util.PadRight("Run", 9), util.PadRight("Date", 17), util.PadLeft("Time", 10),
		util.PadLeft("Change", 8), util.PadLeft("Triangles", 12), util.PadLeft("Mean min angle", 15))))
	for i, pt := range points {
		change := "-"
		// Points are newest first; compare with the run before.
		if i+1 < len(points) && points[i+1].Elapsed > 0 {
			delta := float64(pt.Elapsed-points[i+1].Elapsed) / float64(points[i+1].Elapsed) * 100
			change = fmt.Sprintf("%+.1f%%", delta)
		}
		angle := "-"
		if !math.IsNaN(pt.MinAngleMean) {
			angle = fmt.Sprintf("%.2f°", pt.MinAngleMean)
		}
		fmt.Printf("%s %s %s %s %s %s\n",
			util.PadRight(shortID(pt.RunID), 9),
			util.PadRight(pt.StartTime.Format("2006-01-02 15:04"), 17),
			util.PadLeft(benchmark.FormatDuration(pt.Elapsed), 10),
			util.PadLeft(change, 8),
			util.PadLeft(formatCount(pt.NumTriangles), 12),
			util.PadLeft(angle, 15))
	}
	return nil
}

// =============================================================================
// DELETE AND PRUNE
// =============================================================================

func historyDelete(ctx context.Context, store *history.Store, p *ArgParser, jsonMode bool) error {
	id := p.Positional(1)
	if id == "" {
		return ErrMissingArgument("run id", "meshbench history delete 3f2a9c1e")
	}
	confirmed, err := RequireConfirmation(p.BoolFlag("confirm") || p.BoolFlag("y"), "delete run "+id, jsonMode)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse("history delete", map[string]string{"run_id": id}).Print()
	}
	fmt.Printf("%s deleted run %s\n", RenderStatus("ok"), id)
	return nil
}

func historyPrune(ctx context.Context, store *history.Store, p *ArgParser, jsonMode bool) error {
	if !p.HasFlag("keep") {
		return ErrMissingArgument("--keep", "meshbench history prune --keep 50")
	}
	keep, err := p.FlagInt("keep")
	if err != nil {
		return err
	}
	if keep < 0 {
		return NewValidationError("--keep", p.Flag("keep"), "must not be negative")
	}
	confirmed, err := RequireConfirmation(p.BoolFlag("confirm") || p.BoolFlag("y"),
		fmt.Sprintf("delete all but the newest %d runs", keep), jsonMode)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}
	removed, err := store.Prune(ctx, keep)
	if err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse("history prune", map[string]int64{"removed": removed, "kept": int64(keep)}).Print()
	}
	fmt.Printf("%s removed %d runs, kept the newest %d\n", RenderStatus("ok"), removed, keep)
	return nil
}
