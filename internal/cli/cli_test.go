// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/config"
	"github.com/jeranaias/meshbench/internal/history"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"list"},
			wantSub: "list",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"list", "--limit", "50"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "50" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "50")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"list", "--software=triangle"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("software") != "triangle" {
					t.Errorf("Flag(software) = %q, want %q", p.Flag("software"), "triangle")
				}
			},
		},
		{
			name:    "declared boolean flag does not take the next argument",
			args:    []string{"delete", "--confirm", "3f2a9c1e"},
			bools:   []string{"confirm"},
			wantSub: "delete",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
				if p.Positional(1) != "3f2a9c1e" {
					t.Errorf("Positional(1) = %q, want 3f2a9c1e", p.Positional(1))
				}
			},
		},
		{
			name:    "trailing flag is boolean",
			args:    []string{"run", "--plain"},
			wantSub: "run",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("plain") {
					t.Error("BoolFlag(plain) should be true")
				}
			},
		},
		{
			name:    "negative number is a value",
			args:    []string{"set", "--min-angle", "-5"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("min-angle") != "-5" {
					t.Errorf("Flag(min-angle) = %q, want -5", p.Flag("min-angle"))
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"metrics", "--", "--weird-name.json"},
			wantSub: "metrics",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "--weird-name.json" {
					t.Errorf("Positional(1) = %q", p.Positional(1))
				}
				if p.HasFlag("weird-name.json") {
					t.Error("argument after -- parsed as a flag")
				}
			},
		},
		{
			name:    "explicit false",
			args:    []string{"--watch=false"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("watch") {
					t.Error("BoolFlag(watch) should be false")
				}
				if !p.HasFlag("watch") {
					t.Error("HasFlag(watch) should be true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_TypedValues(t *testing.T) {
	p := NewArgParser([]string{"--repeats", "7", "--sizes", "50, 20,,10", "--bad", "x", "--args=-q,--fast"})

	if n, err := p.FlagInt("repeats"); err != nil || n != 7 {
		t.Errorf("FlagInt(repeats) = %d, %v", n, err)
	}
	if n := p.FlagIntOrDefault("missing", 3); n != 3 {
		t.Errorf("FlagIntOrDefault(missing) = %d, want 3", n)
	}
	if n := p.FlagIntOrDefault("bad", 3); n != 3 {
		t.Errorf("FlagIntOrDefault(bad) = %d, want 3", n)
	}

	sizes, err := p.FlagFloats("sizes")
	if err != nil {
		t.Fatalf("FlagFloats(sizes): %v", err)
	}
	if fmt.Sprint(sizes) != "[50 20 10]" {
		t.Errorf("FlagFloats(sizes) = %v", sizes)
	}

	if _, err := p.FlagFloats("bad"); err == nil {
		t.Error("FlagFloats(bad) should fail")
	}
	var ve *ValidationError
	if _, err := p.FlagInt("bad"); !errors.As(err, &ve) {
		t.Errorf("FlagInt(bad) error = %v, want *ValidationError", err)
	}

	if got := strings.Join(p.FlagList("args"), " "); got != "-q --fast" {
		t.Errorf("FlagList(args) = %q", got)
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"true", "YES", "y", "1", "on"} {
		if v, err := ParseBoolString(s); err != nil || !v {
			t.Errorf("ParseBoolString(%q) = %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"false", "no", "N", "0", " off "} {
		if v, err := ParseBoolString(s); err != nil || v {
			t.Errorf("ParseBoolString(%q) = %v, %v", s, v, err)
		}
	}
	if _, err := ParseBoolString("maybe"); err == nil {
		t.Error("ParseBoolString(maybe) should fail")
	}
}

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdHelp},
		{[]string{"run"}, CmdRun},
		{[]string{"bench"}, CmdRun},
		{[]string{"RUN"}, CmdRun},
		{[]string{"metrics", "mesh.json"}, CmdMetrics},
		{[]string{"quality"}, CmdMetrics},
		{[]string{"compare", "a", "b"}, CmdCompare},
		{[]string{"diff"}, CmdCompare},
		{[]string{"history", "list"}, CmdHistory},
		{[]string{"runs"}, CmdHistory},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"host"}, CmdHost},
		{[]string{"sysinfo"}, CmdHost},
		{[]string{"doctor"}, CmdDoctor},
		{[]string{"check"}, CmdDoctor},
		{[]string{"version"}, CmdVersion},
		{[]string{"--version"}, CmdVersion},
		{[]string{"-h"}, CmdHelp},
		{[]string{"frobnicate"}, CmdUnknown},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			got, _ := ParseArgs(tt.argv)
			if got != tt.want {
				t.Errorf("ParseArgs(%v) = %s, want %s", tt.argv, got, tt.want)
			}
		})
	}
}

func TestParseArgs_GlobalFlags(t *testing.T) {
	cmd, args := ParseArgs([]string{"--json", "history", "-q", "trend", "C", "--config", "bench.toml", "--software", "triangle", "-v"})

	if cmd != CmdHistory {
		t.Fatalf("command = %s, want history", cmd)
	}
	if !args.JSON || !args.Quiet || !args.Verbose {
		t.Errorf("global flags not parsed: %+v", args)
	}
	if args.ConfigPath != "bench.toml" {
		t.Errorf("ConfigPath = %q", args.ConfigPath)
	}
	if args.Subcommand != "trend" {
		t.Errorf("Subcommand = %q, want trend", args.Subcommand)
	}

	p := args.Parser()
	if p.Positional(1) != "C" || p.Flag("software") != "triangle" {
		t.Errorf("command args not preserved: %v", args.Raw)
	}

	_, args = ParseArgs([]string{"run", "--config=other.toml"})
	if args.ConfigPath != "other.toml" {
		t.Errorf("ConfigPath = %q, want other.toml", args.ConfigPath)
	}
}

func TestCommandString(t *testing.T) {
	for _, c := range []Command{CmdRun, CmdMetrics, CmdCompare, CmdHistory, CmdConfig, CmdHost, CmdDoctor, CmdVersion, CmdHelp} {
		if s := c.String(); s == "unknown" || s == "" {
			t.Errorf("Command(%d).String() = %q", c, s)
		}
	}
	if CmdUnknown.String() != "unknown" {
		t.Errorf("CmdUnknown.String() = %q", CmdUnknown.String())
	}
}

func TestHandleUnknown_Suggests(t *testing.T) {
	_, args := ParseArgs([]string{"histroy"})
	err := HandleUnknown(args)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("HandleUnknown() = %v, want *ValidationError", err)
	}
	if ve.Example != "meshbench history" {
		t.Errorf("Example = %q, want meshbench history", ve.Example)
	}
	if GetExitCode(err) != ExitUsageError {
		t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitUsageError)
	}
}

// =============================================================================
// SUGGESTION TESTS (suggest.go)
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"rn", "run"},
		{"metrcs", "metrics"},
		{"comapre", "compare"},
		{"doctr", "doctor"},
		{"confg", "config"},
		{"run", ""},
		{"x", ""},
		{"zzzzzzzz", ""},
	}
	for _, tt := range tests {
		if got := SuggestCommand(tt.input); got != tt.want {
			t.Errorf("SuggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "run", 3},
		{"run", "", 3},
		{"run", "run", 0},
		{"kitten", "sitting", 3},
		{"host", "hots", 2},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

// =============================================================================
// ERROR TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("--repeats", "0", "must be positive"), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "suite.repeats", Message: "must be positive"}}, ExitConfigError},
		{"not found", fmt.Errorf("show: %w", history.ErrNotFound), ExitNotFoundError},
		{"missing file", fmt.Errorf("open: %w", os.ErrNotExist), ExitNotFoundError},
		{"timeout", &benchmark.ScenarioError{Key: "C", Err: adapter.ErrTimeout}, ExitTimeoutError},
		{"backend", &benchmark.ScenarioError{Key: "A", Err: &adapter.BackendError{Backend: "tri", ExitCode: 3}}, ExitBackendError},
		{"bad output", fmt.Errorf("%w: not json", adapter.ErrInvalidOutput), ExitBackendError},
		{"no scenarios", benchmark.ErrNoScenarios, ExitInputError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisplayErrorJSON_Scenario(t *testing.T) {
	var buf bytes.Buffer
	err := &benchmark.ScenarioError{
		Key:         "D1",
		Description: "city_maxh_20",
		Err:         &adapter.BackendError{Backend: "tri", ExitCode: 2, Stderr: "segfault"},
	}
	DisplayError(&buf, "run", err, true)

	out := buf.String()
	for _, want := range []string{`"success": false`, `"scenario_error"`, `"scenario": "D1"`, `"backend_stderr": "segfault"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON error missing %s:\n%s", want, out)
		}
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	err := NewCommandError("history", "open", "h.db", history.ErrNotFound)
	if !errors.Is(err, history.ErrNotFound) {
		t.Error("CommandError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "history open failed") {
		t.Errorf("Error() = %q", err.Error())
	}
}

// =============================================================================
// HELPER TESTS (helpers.go, confirm.go, config_cmd.go)
// =============================================================================

func TestFormatCount(t *testing.T) {
	tests := map[int]string{
		0:       "0",
		999:     "999",
		1234:    "1,234",
		1234567: "1,234,567",
	}
	for n, want := range tests {
		if got := formatCount(n); got != want {
			t.Errorf("formatCount(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{60 * 24 * time.Hour, "2025-04-02"},
	}
	for _, tt := range tests {
		if got := formatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatAge(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("3f2a9c1e-aaaa-bbbb"); got != "3f2a9c1e" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
}

func TestPromptYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := promptYesNo(strings.NewReader(tt.input), &out, "Delete?")
		if err != nil {
			t.Fatalf("promptYesNo(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("promptYesNo(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete? [y/N]") {
			t.Errorf("prompt = %q", out.String())
		}
	}

	if _, err := promptYesNo(strings.NewReader(""), &bytes.Buffer{}, "Delete?"); err == nil {
		t.Error("promptYesNo on closed input should fail")
	}
}

func TestRequireConfirmation(t *testing.T) {
	ok, err := RequireConfirmation(true, "delete run x", true)
	if err != nil || !ok {
		t.Errorf("with flag: %v, %v", ok, err)
	}

	ok, err = RequireConfirmation(false, "delete run x", true)
	if ok || err == nil {
		t.Errorf("JSON mode without flag: %v, %v", ok, err)
	}
}

func TestConfigValueString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{[]float64{50, 20, 7.5}, "50,20,7.5"},
		{[]string{"-q", "--fast"}, "-q,--fast"},
		{0.25, "0.25"},
		{3, "3"},
		{true, "true"},
		{"exec", "exec"},
	}
	for _, tt := range tests {
		if got := configValueString(tt.in); got != tt.want {
			t.Errorf("configValueString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// RUN COMMAND TESTS (run_cmd.go)
// =============================================================================

func TestSoftwareFromCommand(t *testing.T) {
	tests := map[string]string{
		"":                         "",
		"triangle":                 "triangle",
		"./bin/triangle-bench.exe": "triangle-bench",
		"/opt/mesh/spade":          "spade",
		"results/mesh.json":        "mesh",
	}
	for in, want := range tests {
		if got := softwareFromCommand(in); got != want {
			t.Errorf("softwareFromCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyRunFlags(t *testing.T) {
	cfg := config.Default()
	p := NewArgParser([]string{
		"--software", "spade", "--backend", "./spade-bench", "--kind", "EXEC",
		"--args=--fast,-t,2", "--testcase", "lake.geojson", "--out", "out",
		"--repeats", "3", "--sizes", "40,10", "--min-angle", "25", "--timeout", "60",
		"--no-vtu", "--no-history",
	}, runBoolFlags...)

	if err := applyRunFlags(cfg, p); err != nil {
		t.Fatalf("applyRunFlags: %v", err)
	}

	if cfg.Software != "spade" || cfg.Backend.Command != "./spade-bench" || cfg.Backend.Kind != "exec" {
		t.Errorf("backend not applied: %+v", cfg.Backend)
	}
	if strings.Join(cfg.Backend.Args, " ") != "--fast -t 2" {
		t.Errorf("Args = %v", cfg.Backend.Args)
	}
	if cfg.Suite.TestCase != "lake.geojson" || cfg.Output.Dir != "out" {
		t.Errorf("paths not applied: %s %s", cfg.Suite.TestCase, cfg.Output.Dir)
	}
	if cfg.Suite.Repeats != 3 || fmt.Sprint(cfg.Suite.Sizes) != "[40 10]" || cfg.Suite.MinAngle == nil || *cfg.Suite.MinAngle != 25 {
		t.Errorf("suite not applied: %+v", cfg.Suite)
	}
	if cfg.Backend.TimeoutSecs != 60 {
		t.Errorf("TimeoutSecs = %d", cfg.Backend.TimeoutSecs)
	}
	if cfg.Output.WriteVTU || cfg.History.Enabled {
		t.Error("--no-vtu and --no-history should disable their outputs")
	}
}

func TestApplyRunFlags_Invalid(t *testing.T) {
	for _, argv := range [][]string{
		{"--repeats", "many"},
		{"--sizes", "50,big"},
		{"--min-angle", "steep"},
		{"--timeout", "1.5"},
	} {
		err := applyRunFlags(config.Default(), NewArgParser(argv, runBoolFlags...))
		if GetExitCode(err) != ExitUsageError {
			t.Errorf("applyRunFlags(%v) = %v, want usage error", argv, err)
		}
	}
}

func TestRunOnce_Replay(t *testing.T) {
	dir := t.TempDir()

	casePath := filepath.Join(dir, "square.txt")
	if err := os.WriteFile(casePath, []byte("0 0 10 0 10 10 0 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	meshPath := filepath.Join(dir, "mesh.json")
	meshJSON := `{"points":[[0,0,0],[10,0,0],[10,10,0],[0,10,0]],"triangles":[[0,1,2],[0,2,3]],"constraint_edges":[[0,1],[1,2],[2,3],[3,0]]}`
	if err := os.WriteFile(meshPath, []byte(meshJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Software = "replay"
	cfg.Backend.Kind = "replay"
	cfg.Backend.Command = meshPath
	cfg.Suite.TestCase = casePath
	cfg.Suite.Sizes = []float64{5}
	cfg.Suite.Repeats = 1
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.History.Enabled = false

	data, err := runOnce(context.Background(), cfg, runOptions{json: true, quiet: true})
	if err != nil {
		t.Fatalf("runOnce: %v", err)
	}

	if data.Software != "replay" || data.TestCase != "square" {
		t.Errorf("data = %s/%s", data.Software, data.TestCase)
	}
	if data.Recorded {
		t.Error("run recorded with history disabled")
	}
	if len(data.Files) == 0 {
		t.Fatal("no files written")
	}
	for _, f := range data.Files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("written file missing: %v", err)
		}
	}
	result, ok := data.Result.(*benchmark.SuiteResult)
	if !ok {
		t.Fatalf("Result = %T", data.Result)
	}
	// A, B, C and one D per size.
	if len(result.Scenarios) != 4 {
		t.Errorf("scenarios = %d, want 4", len(result.Scenarios))
	}
	for _, s := range result.Scenarios {
		if s.NumTriangles != 2 {
			t.Errorf("scenario %s: %d triangles, want 2", s.Key, s.NumTriangles)
		}
	}
}

func TestRunOnce_MissingTestCase(t *testing.T) {
	cfg := config.Default()
	cfg.Suite.TestCase = filepath.Join(t.TempDir(), "nope.txt")

	_, err := runOnce(context.Background(), cfg, runOptions{quiet: true})
	if GetExitCode(err) != ExitNotFoundError {
		t.Errorf("runOnce() = %v, want not found", err)
	}
}

// =============================================================================
// WATCH TESTS (watch.go)
// =============================================================================

func TestRerunLoop_Relevant(t *testing.T) {
	l := newRerunLoop([]string{"/data/city.txt"}, nil)

	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/data/city.txt", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/data/./city.txt", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/data/city.txt", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "/data/city.txt", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/data/lake.txt", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := l.relevant(tt.ev); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestRerunLoop_DebouncesBurst(t *testing.T) {
	var runs atomic.Int32
	l := newRerunLoop([]string{"/data/city.txt"}, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	l.debounce = 20 * time.Millisecond
	l.limiter = rate.NewLimiter(rate.Inf, 1)

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.loop(ctx, events, errs, func(error) {}) }()

	// A burst of saves produces one rerun.
	for i := 0; i < 5; i++ {
		events <- fsnotify.Event{Name: "/data/city.txt", Op: fsnotify.Write}
	}
	events <- fsnotify.Event{Name: "/data/other.txt", Op: fsnotify.Write}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Errorf("loop() = %v", err)
	}
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestRerunLoop_ReportsRunErrors(t *testing.T) {
	boom := errors.New("backend crashed")
	l := newRerunLoop([]string{"/data/city.txt"}, func(ctx context.Context) error { return boom })
	l.debounce = 10 * time.Millisecond
	l.limiter = rate.NewLimiter(rate.Inf, 1)

	events := make(chan fsnotify.Event, 1)
	reported := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.loop(ctx, events, nil, func(err error) { reported <- err })

	events <- fsnotify.Event{Name: "/data/city.txt", Op: fsnotify.Write}
	select {
	case err := <-reported:
		if !errors.Is(err, boom) {
			t.Errorf("reported %v, want %v", err, boom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run error was not reported")
	}
}

func TestRerunLoop_StopsWhenEventsClose(t *testing.T) {
	l := newRerunLoop(nil, func(ctx context.Context) error { return nil })
	events := make(chan fsnotify.Event)
	close(events)

	done := make(chan error, 1)
	go func() { done <- l.loop(context.Background(), events, nil, func(error) {}) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("loop() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestWatchedPaths(t *testing.T) {
	dir := t.TempDir()
	casePath := filepath.Join(dir, "city.txt")
	meshPath := filepath.Join(dir, "mesh.json")
	for _, p := range []string{casePath, meshPath} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Suite.TestCase = casePath
	cfg.Backend.Kind = "replay"
	cfg.Backend.Command = meshPath
	if got := watchedPaths(cfg); len(got) != 2 {
		t.Errorf("watchedPaths() = %v, want 2 paths", got)
	}

	cfg.Backend.Command = filepath.Join(dir, "missing.json")
	if got := watchedPaths(cfg); len(got) != 1 || got[0] != casePath {
		t.Errorf("watchedPaths() = %v, want only the test case", got)
	}
}

// =============================================================================
// DOCTOR TESTS (doctor.go)
// =============================================================================

func TestDoctorChecks(t *testing.T) {
	dir := t.TempDir()
	casePath := filepath.Join(dir, "square.txt")
	if err := os.WriteFile(casePath, []byte("0 0 1 0 1 1 0 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Suite.TestCase = casePath
	cfg.Output.Dir = filepath.Join(dir, "out")

	if c := checkTestCase(cfg); c.status != CheckPass {
		t.Errorf("checkTestCase: %s %s", c.Status, c.Message)
	}
	if c := checkOutputDir(cfg); c.status != CheckPass {
		t.Errorf("checkOutputDir: %s %s", c.Status, c.Message)
	}
	if c := checkBackend(cfg); c.status != CheckFail {
		t.Errorf("checkBackend without a command: %s", c.Status)
	}

	cfg.Backend.Command = filepath.Join(dir, "no-such-backend")
	if c := checkBackend(cfg); c.status != CheckFail || c.Fix == "" {
		t.Errorf("checkBackend with a missing executable: %s fix=%q", c.Status, c.Fix)
	}

	cfg.History.Enabled = false
	if c := checkHistory(cfg); c.status != CheckWarn {
		t.Errorf("checkHistory disabled: %s", c.Status)
	}
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "history.db")
	if c := checkHistory(cfg); c.status != CheckPass {
		t.Errorf("checkHistory: %s %s", c.Status, c.Message)
	}

	cfg.Suite.TestCase = filepath.Join(dir, "missing.txt")
	if c := checkTestCase(cfg); c.status != CheckFail {
		t.Errorf("checkTestCase with a missing file: %s", c.Status)
	}
}

func TestCheckStatus(t *testing.T) {
	if CheckPass.String() != "pass" || CheckWarn.String() != "warn" || CheckFail.String() != "fail" {
		t.Error("unexpected status names")
	}
	c := fail("backend", "Backend missing", "install it")
	if !strings.Contains(c.Render(), "install it") {
		t.Errorf("Render() should include the fix: %q", c.Render())
	}
	if strings.Contains(pass("x", "fine").Render(), "->") {
		t.Error("passing checks show no fix")
	}
}

func TestConfigSet_BoolValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshbench.toml")
	args := Args{ConfigPath: path}

	set := func(key, value string) error {
		return configSet(args, NewArgParser([]string{"set", key, value}))
	}
	if err := set("output.write_vtu", "off"); err != nil {
		t.Fatalf("config set off: %v", err)
	}
	cfg, _, err := loadFileOnly(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.WriteVTU {
		t.Error("output.write_vtu should be false after setting off")
	}

	err = set("output.write_vtu", "maybe")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("config set maybe error = %v, want *ValidationError", err)
	}
}
