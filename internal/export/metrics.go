// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/quality"
	"github.com/jeranaias/meshbench/internal/util"
)

const ruleWidth = 80

// MetricsLogExporter writes metrics_<software>.log, the human-readable
// quality statistics with full distributions.
type MetricsLogExporter struct{}

// AspectRatioNote states how aspect ratios are scaled. Values are not
// comparable with unscaled longest-edge over altitude figures, which read
// 2/sqrt(3) times higher.
const AspectRatioNote = "Aspect ratio: longest edge / shortest altitude, scaled so an equilateral triangle is 1.00"

// NewMetricsLogExporter creates a new metrics log exporter.
func NewMetricsLogExporter() *MetricsLogExporter {
	return &MetricsLogExporter{}
}

// Export renders the statistics of every scenario.
func (e *MetricsLogExporter) Export(r *benchmark.SuiteResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("suite result is nil")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Mesh Quality Metrics for %s\n", r.Software)
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString(AspectRatioNote + "\n\n")

	for i := range r.Scenarios {
		s := &r.Scenarios[i]
		if s.Quality == nil {
			continue
		}
		WriteReport(&sb, s.Key, s.Description, s.Options.MaxH.Get, s.Quality)
		sb.WriteString("\n" + strings.Repeat("-", ruleWidth) + "\n\n")
	}
	return []byte(sb.String()), nil
}

func (e *MetricsLogExporter) Prefix() string        { return "metrics" }
func (e *MetricsLogExporter) FileExtension() string { return ".log" }
func (e *MetricsLogExporter) MimeType() string      { return "text/plain" }

// WriteReport renders one quality report block. maxh reports the size hint,
// if any. The metrics command uses it for single meshes.
func WriteReport(sb *strings.Builder, key, description string, maxh func() (float64, bool), q *quality.Report) {
	fmt.Fprintf(sb, "Test: %s - %s\n", key, description)
	if maxh != nil {
		if v, ok := maxh(); ok {
			fmt.Fprintf(sb, "  maxh: %g\n", v)
		}
	}
	fmt.Fprintf(sb, "  Triangle Count: %d\n", q.NumTriangles)
	fmt.Fprintf(sb, "  Total Surface Area: %.2f\n", q.TotalArea)
	if q.AngleDegenerate > 0 {
		fmt.Fprintf(sb, "  Zero-Edge Triangles: %d\n", q.AngleDegenerate)
	}
	sb.WriteString("\n")

	sb.WriteString("  Minimum Angle Statistics:\n")
	writeSummary(sb, q.MinAngle.Summary, "%.2f°")
	writeDistribution(sb, q.MinAngle.Distribution, q.NumTriangles)
	sb.WriteString("\n")

	sb.WriteString("  Aspect Ratio Statistics:\n")
	writeSummary(sb, q.AspectRatio.Summary, "%.2f")
	writeDistribution(sb, q.AspectRatio.Distribution, q.NumTriangles)
	sb.WriteString("\n")

	sb.WriteString("  Triangle Area Statistics:\n")
	writeSummary(sb, q.Area, "%.4f")
}

func writeSummary(sb *strings.Builder, s quality.Summary, format string) {
	fmt.Fprintf(sb, "    Min:    "+format+"\n", float64(s.Min))
	fmt.Fprintf(sb, "    Max:    "+format+"\n", float64(s.Max))
	fmt.Fprintf(sb, "    Mean:   "+format+"\n", float64(s.Mean))
	fmt.Fprintf(sb, "    Median: "+format+"\n", float64(s.Median))
}

// writeDistribution prints each bucket with its share of all triangles.
func writeDistribution(sb *strings.Builder, buckets []quality.Bucket, triangles int) {
	sb.WriteString("    Distribution:\n")
	for _, b := range buckets {
		pct := 0.0
		if triangles > 0 {
			pct = 100 * float64(b.Count) / float64(triangles)
		}
		fmt.Fprintf(sb, "      %s %6d (%5.1f%%)\n", util.PadRight(b.Label, 15), b.Count, pct)
	}
}
