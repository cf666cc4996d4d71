// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/ui/styles"
	"github.com/jeranaias/meshbench/internal/util"
)

// =============================================================================
// BENCHMARK VIEW
// =============================================================================

// BenchmarkView renders suite results and comparisons for the terminal.
type BenchmarkView struct {
	width int
}

// NewBenchmarkView creates a new benchmark view.
func NewBenchmarkView(width int) *BenchmarkView {
	if width < 40 {
		width = 40
	}
	return &BenchmarkView{width: width}
}

type column struct {
	title string
	width int
	right bool
}

var resultColumns = []column{
	{"Test", 4, false},
	{"Description", 28, false},
	{"Triangles", 10, true},
	{"Time", 10, true},
	{"Throughput", 14, true},
	{"Min angle", 10, true},
	{"Coverage", 8, true},
}

var comparisonColumns = []column{
	{"Test", 4, false},
	{"Description", 28, false},
	{"Base", 10, true},
	{"Other", 10, true},
	{"Speedup", 8, true},
	{"Angle delta", 11, true},
}

// RenderResult renders the summary panel and per-scenario table of a run.
func (v *BenchmarkView) RenderResult(r *benchmark.SuiteResult) string {
	if r == nil {
		return "No benchmark result available"
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Mesh benchmark: %s", r.Software)))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Bold(true).Width(12)
	value := lipgloss.NewStyle().Foreground(styles.Emerald)
	var m strings.Builder
	m.WriteString(label.Render("Test case:") + value.Render(r.TestCase) + "\n")
	m.WriteString(label.Render("Run:") + value.Render(r.RunID) + "\n")
	m.WriteString(label.Render("Repeats:") + value.Render(fmt.Sprintf("best of %d", r.Repeats)) + "\n")
	m.WriteString(label.Render("Scenarios:") + value.Render(fmt.Sprintf("%d", len(r.Scenarios))) + "\n")
	m.WriteString(label.Render("Duration:") + value.Render(benchmark.FormatDuration(r.Duration)))
	b.WriteString(styles.Box.Render(m.String()))
	b.WriteString("\n\n")

	b.WriteString(v.header(resultColumns))
	for i := range r.Scenarios {
		s := &r.Scenarios[i]
		angle, coverage := "-", "-"
		if s.Quality != nil && s.Quality.MinAngle.Count > 0 {
			angle = s.Quality.MinAngle.Min.String() + "°"
		}
		if s.Quality != nil {
			coverage = fmt.Sprintf("%.4f", s.AreaCoverage)
		}
		b.WriteString(v.row(resultColumns, []string{
			styles.Key.Render(util.PadRight(s.Key, resultColumns[0].width)),
			s.Description,
			fmt.Sprintf("%d", s.NumTriangles),
			benchmark.FormatDuration(s.Elapsed),
			benchmark.FormatThroughput(s.Throughput),
			angle,
			coverage,
		}))
	}
	return b.String()
}

// RenderComparison renders a scenario-by-scenario comparison of two runs.
func (v *BenchmarkView) RenderComparison(c *benchmark.Comparison) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Comparison: %s vs %s", c.Base, c.Other)))
	b.WriteString("\n\n")

	b.WriteString(v.header(comparisonColumns))
	for _, r := range c.Rows {
		speedup := util.PadLeft(benchmark.FormatSpeedup(r.Speedup), comparisonColumns[4].width)
		b.WriteString(v.row(comparisonColumns, []string{
			styles.Key.Render(util.PadRight(r.Key, comparisonColumns[0].width)),
			r.Description,
			benchmark.FormatDuration(r.BaseElapsed),
			benchmark.FormatDuration(r.OtherElapsed),
			lipgloss.NewStyle().Foreground(styles.Speedup(r.Speedup)).Render(speedup),
			fmt.Sprintf("%+.2f°", r.MinAngleDelta),
		}))
	}

	if len(c.Unmatched) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("Only in one run: " + strings.Join(c.Unmatched, ", ")))
		b.WriteString("\n")
	}
	if g := c.GeoMeanSpeedup(); g > 0 {
		b.WriteString("\n")
		overall := fmt.Sprintf("Overall: %s is %.2fx faster (geometric mean)", c.Other, g)
		if g < 1 {
			overall = fmt.Sprintf("Overall: %s is %.2fx faster (geometric mean)", c.Base, 1/g)
		}
		b.WriteString(styles.Box.BorderForeground(styles.Speedup(g)).Render(overall))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderProgress renders a plain progress line for non-interactive output.
func (v *BenchmarkView) RenderProgress(software string, done, total int, current string) string {
	var percentage float64
	if total > 0 {
		percentage = float64(done) / float64(total) * 100
	}
	barWidth := 30
	filled := int(float64(barWidth) * percentage / 100)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	return fmt.Sprintf("%s [%s] %3.0f%% %d/%d %s", software, bar, percentage, done, total, current)
}

// RenderError formats a benchmark error.
func RenderError(err error) string {
	return styles.ErrorBox.Render(fmt.Sprintf("Benchmark error: %s", err.Error()))
}

// =============================================================================
// TABLE HELPERS
// =============================================================================

func (v *BenchmarkView) header(cols []column) string {
	var cells []string
	total := 0
	for _, c := range cols {
		cells = append(cells, align(c, c.title))
		total += c.width + 1
	}
	if total > v.width {
		total = v.width
	}
	return styles.Header.Render(strings.Join(cells, " ")) + "\n" +
		styles.Muted.Render(strings.Repeat("-", total)) + "\n"
}

// row aligns each cell to its column. Cells that are already styled must be
// padded by the caller.
func (v *BenchmarkView) row(cols []column, cells []string) string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		if strings.Contains(cell, "\x1b[") {
			out[i] = cell
			continue
		}
		out[i] = align(cols[i], cell)
	}
	return strings.Join(out, " ") + "\n"
}

func align(c column, s string) string {
	s = util.TruncateWidth(s, c.width)
	if c.right {
		return util.PadLeft(s, c.width)
	}
	return util.PadRight(s, c.width)
}
