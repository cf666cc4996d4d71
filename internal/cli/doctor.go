// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - The doctor command: check that a run would find everything
// it needs before spending minutes on the battery.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/config"
	"github.com/jeranaias/meshbench/internal/detect"
	"github.com/jeranaias/meshbench/internal/history"
	"github.com/jeranaias/meshbench/internal/testcase"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates a problem that does not stop a run.
	CheckWarn
	// CheckFail indicates a run would fail.
	CheckFail
)

// String returns the JSON name of the status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the colored status tag.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	case CheckFail:
		return ErrorStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck is the result of one check.
type HealthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`

	status CheckStatus
}

func pass(name, msg string) *HealthCheck {
	return &HealthCheck{Name: name, Status: CheckPass.String(), Message: msg, status: CheckPass}
}

func warn(name, msg, fix string) *HealthCheck {
	return &HealthCheck{Name: name, Status: CheckWarn.String(), Message: msg, Fix: fix, status: CheckWarn}
}

func fail(name, msg, fix string) *HealthCheck {
	return &HealthCheck{Name: name, Status: CheckFail.String(), Message: msg, Fix: fix, status: CheckFail}
}

// Render formats the check for the terminal.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.status.Symbol(), ValueStyle.Render(c.Message))
	if c.status != CheckPass && c.Fix != "" {
		result += "\n" + DimStyle.Render("    -> "+c.Fix)
	}
	return result
}

// DoctorData is the data of the doctor command.
type DoctorData struct {
	Checks  []*HealthCheck `json:"checks"`
	Passed  int            `json:"passed"`
	Warned  int            `json:"warned"`
	Failed  int            `json:"failed"`
	Healthy bool           `json:"healthy"`
}

// =============================================================================
// COMMAND
// =============================================================================

// HandleDoctor handles the doctor command. It fails when any check fails.
func HandleDoctor(args Args) error {
	cfg, err := args.LoadConfig()
	var checks []*HealthCheck
	if err != nil {
		checks = append(checks, fail("config", "Config is invalid: "+err.Error(), "meshbench config show"))
		cfg = config.Default()
	} else {
		checks = append(checks, pass("config", "Config is valid"))
	}
	checks = append(checks, runAllChecks(context.Background(), cfg)...)

	data := DoctorData{Checks: checks}
	for _, c := range checks {
		switch c.status {
		case CheckPass:
			data.Passed++
		case CheckWarn:
			data.Warned++
		case CheckFail:
			data.Failed++
		}
	}
	data.Healthy = data.Failed == 0

	var result error
	if data.Failed > 0 {
		result = NewCommandError("doctor", "check", fmt.Sprintf("%d check(s) failed", data.Failed), nil)
	}

	if args.JSON {
		resp := NewJSONResponse("doctor", data)
		if result != nil {
			msg := result.Error()
			resp.Success = false
			resp.Error = &msg
		}
		if err := resp.Print(); err != nil {
			return err
		}
		if result != nil {
			os.Exit(ExitGeneralError)
		}
		return nil
	}

	fmt.Println(TitleStyle.Render("meshbench doctor"))
	fmt.Println(RenderSeparatorAdaptive())
	for _, c := range checks {
		fmt.Println(c.Render())
	}
	fmt.Println()
	parts := []string{fmt.Sprintf("%d passed", data.Passed)}
	if data.Warned > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d warning", data.Warned)))
	}
	if data.Failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", data.Failed)))
	}
	fmt.Println(DimStyle.Render(strings.Join(parts, ", ")))
	return result
}

// runAllChecks runs every check against cfg.
func runAllChecks(ctx context.Context, cfg *config.Config) []*HealthCheck {
	return []*HealthCheck{
		checkTestCase(cfg),
		checkBackend(cfg),
		checkOutputDir(cfg),
		checkHistory(cfg),
		checkToolchains(ctx),
	}
}

// =============================================================================
// CHECKS
// =============================================================================

func checkTestCase(cfg *config.Config) *HealthCheck {
	tc, err := testcase.Load(cfg.Suite.TestCase)
	if err != nil {
		return fail("testcase", "Test case "+cfg.Suite.TestCase+": "+err.Error(),
			"meshbench config set suite.testcase path/to/case.txt")
	}
	return pass("testcase", fmt.Sprintf("Test case %s: %d vertices, %d holes",
		tc.Name, tc.NumVertices(), len(tc.Inner)))
}

func checkBackend(cfg *config.Config) *HealthCheck {
	const fix = "meshbench config set backend.command ./my-backend"
	if cfg.Backend.Command == "" {
		return fail("backend", "No backend command configured", fix)
	}
	switch cfg.Backend.Kind {
	case "exec":
		path, err := exec.LookPath(cfg.Backend.Command)
		if err != nil {
			return fail("backend", "Backend "+cfg.Backend.Command+" is not executable: "+err.Error(), fix)
		}
		return pass("backend", "Backend executable "+path)
	default:
		if _, err := adapter.New(cfg.AdapterConfig()); err != nil {
			return fail("backend", err.Error(), fix)
		}
		return pass("backend", fmt.Sprintf("Backend %s (%s)", cfg.Backend.Command, cfg.Backend.Kind))
	}
}

func checkOutputDir(cfg *config.Config) *HealthCheck {
	dir := cfg.Output.Dir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail("output", "Cannot create output directory "+dir+": "+err.Error(), "meshbench config set output.dir results")
	}
	probe, err := os.CreateTemp(dir, ".meshbench-probe-*")
	if err != nil {
		return fail("output", "Output directory "+dir+" is not writable", "meshbench config set output.dir results")
	}
	probe.Close()
	os.Remove(probe.Name())
	abs, _ := filepath.Abs(dir)
	return pass("output", "Output directory "+abs+" is writable")
}

func checkHistory(cfg *config.Config) *HealthCheck {
	if !cfg.History.Enabled {
		return warn("history", "Run history is disabled", "meshbench config set history.enabled true")
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return warn("history", "No history path: "+err.Error(), "meshbench config set history.path ./history.db")
	}
	store, err := history.Open(path)
	if err != nil {
		return warn("history", "Cannot open history "+path+": "+err.Error(), "meshbench config set history.path ./history.db")
	}
	defer store.Close()
	return pass("history", "History database "+path)
}

// checkToolchains reports the backend toolchains recorded with each run.
func checkToolchains(ctx context.Context) *HealthCheck {
	host := detect.CollectCached(ctx)
	var found []string
	for _, tc := range detect.DefaultToolchains() {
		if v := host.Toolchains[tc.Key]; v != "" {
			found = append(found, v)
		}
	}
	if len(found) == 0 {
		return warn("toolchain", "No backend toolchain found; runs will not record compiler versions", "")
	}
	return pass("toolchain", strings.Join(found, ", "))
}
