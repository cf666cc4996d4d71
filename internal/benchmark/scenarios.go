// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/testcase"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioID names one of the four scenario families.
type ScenarioID string

const (
	// ScenarioUnitSquare meshes the unit square with default parameters.
	ScenarioUnitSquare ScenarioID = "A"
	// ScenarioInnerLoop meshes the unit square with a square hole.
	ScenarioInnerLoop ScenarioID = "B"
	// ScenarioCase meshes the loaded test case at one size hint.
	ScenarioCase ScenarioID = "C"
	// ScenarioSweep meshes the loaded test case once per size hint.
	ScenarioSweep ScenarioID = "D"
)

// DefaultCaseMaxH is the size hint of scenario C.
const DefaultCaseMaxH = 100

// DefaultSizes returns the default size sweep of scenario D, coarsest first.
func DefaultSizes() []float64 {
	return []float64{100, 50, 20, 10, 5, 2, 1}
}

// Scenario is one entry of the battery.
type Scenario struct {
	ID ScenarioID
	// Index is the position in the size sweep for D, 0 otherwise.
	Index int
	// Description is the short label used in the aggregate reports.
	Description string
	// Name is the stem of the scenario's mesh file.
	Name    string
	Request adapter.Request
}

// Key returns the stable scenario key: A, B, C, D0, D1, ...
func (s Scenario) Key() string {
	if s.ID == ScenarioSweep {
		return fmt.Sprintf("%s%d", s.ID, s.Index)
	}
	return string(s.ID)
}

// Params are the tunable parts of the battery.
type Params struct {
	// CaseMaxH is the size hint of scenario C.
	CaseMaxH float64
	// Sizes are the size hints of scenario D, in run order.
	Sizes []float64
	// Repeats is the number of timed calls per scenario.
	Repeats int
	// MinAngle overrides the backend's angle threshold for C and D.
	MinAngle adapter.Optional
}

// DefaultParams returns the standard battery parameters.
func DefaultParams() Params {
	return Params{
		CaseMaxH: DefaultCaseMaxH,
		Sizes:    DefaultSizes(),
		Repeats:  DefaultRepeats,
	}
}

// UnitSquare returns the counter-clockwise unit square.
func UnitSquare() mesh.Loop {
	return mesh.NewLoop([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 1}, [2]float64{0, 1})
}

// InnerSquare returns the hole used by scenario B.
func InnerSquare() mesh.Loop {
	return mesh.NewLoop([2]float64{0.3, 0.3}, [2]float64{0.7, 0.3}, [2]float64{0.7, 0.7}, [2]float64{0.3, 0.7})
}

// =============================================================================
// STANDARD BATTERY
// =============================================================================

// GetStandardScenarios returns the battery in run order: A, B, C, then one
// D scenario per entry of p.Sizes. It always has 3 + len(p.Sizes) entries.
func GetStandardScenarios(tc *testcase.TestCase, p Params) []Scenario {
	name := tc.Name
	if name == "" {
		name = "case"
	}

	scenarios := make([]Scenario, 0, 3+len(p.Sizes))

	scenarios = append(scenarios,
		Scenario{
			ID:          ScenarioUnitSquare,
			Description: "unit_square_default",
			Name:        "A_unit_square_default",
			Request: adapter.Request{
				Outer:   UnitSquare(),
				Options: adapter.Options{Quality: adapter.TierDefault},
			},
		},
		Scenario{
			ID:          ScenarioInnerLoop,
			Description: "unit_square_with_inner",
			Name:        "B_unit_square_with_inner_polygon",
			Request: adapter.Request{
				Outer: UnitSquare(),
				Inner: []mesh.Loop{InnerSquare()},
				Options: adapter.Options{
					Quality:            adapter.TierDefault,
					EnforceConstraints: true,
				},
			},
		},
		Scenario{
			ID:          ScenarioCase,
			Description: fmt.Sprintf("%s_maxh_%s", name, formatSize(p.CaseMaxH)),
			Name:        fmt.Sprintf("C_%s_%s", name, formatSize(p.CaseMaxH)),
			Request:     caseRequest(tc, p.CaseMaxH, p.MinAngle),
		},
	)

	for i, size := range p.Sizes {
		scenarios = append(scenarios, Scenario{
			ID:          ScenarioSweep,
			Index:       i,
			Description: fmt.Sprintf("%s_maxh_%s", name, formatSize(size)),
			Name:        fmt.Sprintf("D_%s_%s", name, formatSize(size)),
			Request:     caseRequest(tc, size, p.MinAngle),
		})
	}

	return scenarios
}

func caseRequest(tc *testcase.TestCase, maxh float64, minAngle adapter.Optional) adapter.Request {
	return adapter.Request{
		Outer: tc.Outer,
		Inner: tc.Inner,
		Options: adapter.Options{
			MaxH:               adapter.Some(maxh),
			Quality:            adapter.TierModerate,
			EnforceConstraints: true,
			MinAngle:           minAngle,
		},
	}
}

func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
