// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/meshbench/internal/benchmark"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes summary_<software>.md: run metadata, a timing
// table and a quality table.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export converts a suite result to Markdown.
func (e *MarkdownExporter) Export(r *benchmark.SuiteResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("suite result is nil")
	}
	if len(r.Scenarios) == 0 {
		return nil, fmt.Errorf("suite result has no scenarios")
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("software: %s\n", escapeYAML(r.Software)))
	sb.WriteString(fmt.Sprintf("run_id: %s\n", r.RunID))
	sb.WriteString(fmt.Sprintf("test_case: %s\n", escapeYAML(r.TestCase)))
	if !r.StartTime.IsZero() {
		sb.WriteString(fmt.Sprintf("date: %s\n", r.StartTime.Format(time.RFC3339)))
	}
	sb.WriteString("generator: meshbench\n")
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# Mesh benchmark: %s\n\n", escapeMarkdown(r.Software)))

	sb.WriteString("## Run Information\n\n")
	sb.WriteString(fmt.Sprintf("- **Test case**: %s", escapeMarkdown(r.TestCase)))
	if r.Fingerprint != "" {
		sb.WriteString(fmt.Sprintf(" (`%s`)", r.Fingerprint))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("- **Repeats**: best of %d\n", r.Repeats))
	sb.WriteString(fmt.Sprintf("- **Duration**: %s\n", benchmark.FormatDuration(r.Duration)))
	sb.WriteString(fmt.Sprintf("- **Triangles**: %d total\n", r.TotalTriangles()))
	if len(r.Meta) > 0 {
		keys := make([]string, 0, len(r.Meta))
		for k := range r.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", escapeMarkdown(k), escapeMarkdown(r.Meta[k])))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Timing\n\n")
	sb.WriteString("| Test | Description | maxh | Triangles | Time | Throughput |\n")
	sb.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, row := range Rows(r) {
		maxh := "-"
		if row.MaxH != nil {
			maxh = fmt.Sprintf("%g", *row.MaxH)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %.6fs | %s |\n",
			row.Test, escapeMarkdown(row.Description), maxh, row.NumTriangles,
			row.TimeSec, benchmark.FormatThroughput(row.TrianglesPerSec)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Quality\n\n")
	sb.WriteString("| Test | Min angle (min / mean) | Aspect ratio (median / max) | Area coverage |\n")
	sb.WriteString("|---|---:|---:|---:|\n")
	for i := range r.Scenarios {
		s := &r.Scenarios[i]
		if s.Quality == nil {
			continue
		}
		q := s.Quality
		sb.WriteString(fmt.Sprintf("| %s | %s° / %s° | %s / %s | %.4f |\n",
			s.Key, q.MinAngle.Min, q.MinAngle.Mean,
			q.AspectRatio.Median, q.AspectRatio.Max, s.AreaCoverage))
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) Prefix() string        { return "summary" }
func (e *MarkdownExporter) FileExtension() string { return ".md" }
func (e *MarkdownExporter) MimeType() string      { return "text/markdown" }

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	s = strings.ReplaceAll(s, "|", "\\|")
	return s
}

// escapeYAML quotes values that would break the frontmatter.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
