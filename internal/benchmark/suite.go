// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/quality"
	"github.com/jeranaias/meshbench/internal/testcase"
)

// ErrNoTestCase is returned when a suite is run without a test case.
var ErrNoTestCase = errors.New("no test case loaded")

// ScenarioError reports the scenario that aborted a suite. It unwraps to the
// backend, validation or evaluation error that caused it.
type ScenarioError struct {
	Key         string
	Description string
	Err         error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario %s (%s): %v", e.Key, e.Description, e.Err)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SUITE ORCHESTRATOR
// =============================================================================

// Suite runs the standard battery against one backend.
type Suite struct {
	// Software identifies the backend in reports and file names.
	Software string
	Backend  adapter.Triangulator
	Case     *testcase.TestCase
	Params   Params
	// Meta is copied into the result as run metadata.
	Meta map[string]string

	// Runner defaults to NewRunner().
	Runner *Runner

	// OnScenarioStart and OnScenarioDone, when set, report progress.
	OnScenarioStart func(s Scenario)
	OnScenarioDone  func(r *ScenarioResult)
}

// Run executes every scenario in order and returns the complete result set.
// The first failing scenario aborts the battery; no partial result is
// returned.
func (s *Suite) Run(ctx context.Context) (*SuiteResult, error) {
	if s.Case == nil {
		return nil, ErrNoTestCase
	}
	if s.Backend == nil {
		return nil, fmt.Errorf("suite %s has no backend", s.Software)
	}
	if s.Params.Repeats < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRepeats, s.Params.Repeats)
	}
	runner := s.Runner
	if runner == nil {
		runner = NewRunner()
	}

	scenarios := GetStandardScenarios(s.Case, s.Params)
	result := &SuiteResult{
		RunID:       uuid.New().String(),
		Software:    s.Software,
		TestCase:    s.Case.Name,
		Fingerprint: s.Case.Fingerprint,
		Repeats:     s.Params.Repeats,
		Meta:        copyMeta(s.Meta),
		StartTime:   time.Now(),
		Scenarios:   make([]ScenarioResult, 0, len(scenarios)),
	}

	for _, sc := range scenarios {
		if s.OnScenarioStart != nil {
			s.OnScenarioStart(sc)
		}
		sr, err := runScenario(ctx, runner, s.Backend, sc, s.Params.Repeats)
		if err != nil {
			return nil, &ScenarioError{Key: sc.Key(), Description: sc.Description, Err: err}
		}
		result.Scenarios = append(result.Scenarios, *sr)
		if s.OnScenarioDone != nil {
			s.OnScenarioDone(sr)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result, nil
}

// runScenario validates, runs and evaluates a single scenario.
func runScenario(ctx context.Context, runner *Runner, t adapter.Triangulator, sc Scenario, repeats int) (*ScenarioResult, error) {
	if err := sc.Request.Validate(); err != nil {
		return nil, err
	}

	run, err := runner.Run(ctx, t, sc.Request, repeats)
	if err != nil {
		return nil, err
	}

	report, err := quality.Evaluate(sc.Key(), run.Mesh)
	if err != nil {
		return nil, err
	}

	sr := &ScenarioResult{
		Key:          sc.Key(),
		ID:           sc.ID,
		Description:  sc.Description,
		Name:         sc.Name,
		Options:      sc.Request.Options,
		NumPoints:    run.Mesh.NumPoints(),
		NumTriangles: run.Mesh.NumTriangles(),
		Elapsed:      run.Elapsed,
		Timings:      run.Timings,
		Throughput:   Throughput(run.Mesh.NumTriangles(), run.Elapsed),
		Quality:      report,
		Mesh:         run.Mesh,
	}
	if area := mesh.PolygonArea(sc.Request.Outer, sc.Request.Inner); area > 0 {
		sr.AreaCoverage = report.TotalArea / area
	}
	return sr, nil
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
