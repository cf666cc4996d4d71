// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for --json.
//
// Every command prints exactly one JSONResponse document on stdout in JSON
// mode; progress and diagnostics go to stderr.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// JSONResponse is the response envelope for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC 3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
func (r *JSONResponse) Print() error {
	return r.Write(os.Stdout)
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// RESPONSE DATA TYPES
// =============================================================================

// VersionData is the data of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// RunData is the data of the run command.
type RunData struct {
	RunID      string      `json:"run_id"`
	Software   string      `json:"software"`
	TestCase   string      `json:"test_case"`
	OutputDir  string      `json:"output_dir"`
	Files      []string    `json:"files"`
	Recorded   bool        `json:"recorded"`
	Result     interface{} `json:"result"`
	DurationMS int64       `json:"duration_ms"`
}

// HistoryRunData is one run in the history list.
type HistoryRunData struct {
	RunID          string `json:"run_id"`
	Software       string `json:"software"`
	TestCase       string `json:"test_case"`
	Fingerprint    string `json:"fingerprint"`
	Repeats        int    `json:"repeats"`
	StartTime      string `json:"start_time"`
	DurationMS     int64  `json:"duration_ms"`
	TotalTriangles int    `json:"total_triangles"`
	NumScenarios   int    `json:"num_scenarios"`
}

// TrendPointData is one point of a history trend.
type TrendPointData struct {
	RunID        string   `json:"run_id"`
	StartTime    string   `json:"start_time"`
	ElapsedMS    float64  `json:"elapsed_ms"`
	NumTriangles int      `json:"num_triangles"`
	Throughput   float64  `json:"triangles_per_sec"`
	MinAngleMean *float64 `json:"min_angle_mean"`
}

// ConfigValueData is the data of config get and config set.
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	Path  string      `json:"path,omitempty"`
}
