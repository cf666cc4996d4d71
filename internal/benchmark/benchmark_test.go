// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/testcase"
)

// =============================================================================
// FAKES
// =============================================================================

// scriptedClock advances only when a fake backend tells it to.
type scriptedClock struct {
	t time.Time
}

func (c *scriptedClock) now() time.Time { return c.t }

// timedBackend takes durations[i] on its i-th call and returns a mesh with
// i+1 triangles, so the winning call can be identified.
func timedBackend(clock *scriptedClock, durations ...time.Duration) (adapter.Triangulator, *int) {
	calls := 0
	f := adapter.Func(func(ctx context.Context, req adapter.Request) (*mesh.Mesh, error) {
		i := calls
		calls++
		clock.t = clock.t.Add(durations[i%len(durations)])
		m := &mesh.Mesh{Points: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
		for k := 0; k <= i; k++ {
			m.Triangles = append(m.Triangles, [3]int{0, 1, 2})
		}
		return m, nil
	})
	return f, &calls
}

// squareBackend splits the request's outer loop bounding box into two
// right triangles, which is exact for the unit square.
func squareBackend() adapter.Triangulator {
	return adapter.Func(func(ctx context.Context, req adapter.Request) (*mesh.Mesh, error) {
		b := req.Outer.Bound()
		return &mesh.Mesh{
			Points: [][3]float64{
				{b.Min[0], b.Min[1], 0},
				{b.Max[0], b.Min[1], 0},
				{b.Max[0], b.Max[1], 0},
				{b.Min[0], b.Max[1], 0},
			},
			Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
		}, nil
	})
}

func testCase() *testcase.TestCase {
	return &testcase.TestCase{
		Name:  "city",
		Outer: mesh.NewLoop([2]float64{0, 0}, [2]float64{1000, 0}, [2]float64{1000, 800}, [2]float64{0, 800}),
	}
}

// =============================================================================
// RUNNER TESTS
// =============================================================================

func TestRunner_KeepsFastestCall(t *testing.T) {
	clock := &scriptedClock{t: time.Unix(0, 0)}
	backend, calls := timedBackend(clock, 30*time.Millisecond, 10*time.Millisecond, 20*time.Millisecond)

	res, err := NewRunner().WithClock(clock.now).Run(context.Background(), backend, adapter.Request{}, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, *calls)
	assert.Equal(t, 10*time.Millisecond, res.Elapsed)
	assert.Equal(t, 2, res.Mesh.NumTriangles(), "mesh must come from the second call")
	assert.Equal(t, []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond}, res.Timings)
	for _, d := range res.Timings {
		assert.LessOrEqual(t, res.Elapsed, d)
	}
}

func TestRunner_TieKeepsEarlierCall(t *testing.T) {
	clock := &scriptedClock{t: time.Unix(0, 0)}
	backend, _ := timedBackend(clock, 5*time.Millisecond)

	res, err := NewRunner().WithClock(clock.now).Run(context.Background(), backend, adapter.Request{}, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Mesh.NumTriangles())
}

func TestRunner_InvalidRepeats(t *testing.T) {
	backend, calls := timedBackend(&scriptedClock{}, time.Millisecond)
	for _, n := range []int{0, -1} {
		_, err := NewRunner().Run(context.Background(), backend, adapter.Request{}, n)
		assert.ErrorIs(t, err, ErrInvalidRepeats)
	}
	assert.Equal(t, 0, *calls)
}

func TestRunner_FailureAbortsRepeats(t *testing.T) {
	boom := &adapter.BackendError{Backend: "fake", ExitCode: 1}
	calls := 0
	backend := adapter.Func(func(ctx context.Context, req adapter.Request) (*mesh.Mesh, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return &mesh.Mesh{}, nil
	})

	_, err := NewRunner().Run(context.Background(), backend, adapter.Request{}, 5)
	assert.Same(t, boom, err, "backend error is returned unchanged")
	assert.Equal(t, 2, calls)
}

func TestRunner_NilMeshIsInvalidOutput(t *testing.T) {
	clock := &scriptedClock{t: time.Unix(0, 0)}
	calls := 0
	backend := adapter.Func(func(ctx context.Context, req adapter.Request) (*mesh.Mesh, error) {
		calls++
		if calls == 1 {
			clock.t = clock.t.Add(20 * time.Millisecond)
			return &mesh.Mesh{Triangles: [][3]int{{0, 1, 2}}}, nil
		}
		clock.t = clock.t.Add(time.Millisecond)
		return nil, nil
	})

	res, err := NewRunner().WithClock(clock.now).Run(context.Background(), backend, adapter.Request{}, 3)
	require.ErrorIs(t, err, adapter.ErrInvalidOutput)
	assert.Nil(t, res)
	assert.Equal(t, 2, calls, "remaining repeats are skipped")
}

func TestRunner_CancelledBeforeCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend, calls := timedBackend(&scriptedClock{}, time.Millisecond)

	_, err := NewRunner().Run(ctx, backend, adapter.Request{}, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, *calls)
}

func TestRunner_OnRepeat(t *testing.T) {
	clock := &scriptedClock{t: time.Unix(0, 0)}
	backend, _ := timedBackend(clock, time.Second)

	var seen []int
	r := NewRunner().WithClock(clock.now)
	r.OnRepeat = func(i int, d time.Duration) {
		seen = append(seen, i)
		assert.Equal(t, time.Second, d)
	}
	_, err := r.Run(context.Background(), backend, adapter.Request{}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestThroughput(t *testing.T) {
	assert.Equal(t, 0.0, Throughput(100, 0))
	assert.InDelta(t, 200.0, Throughput(100, 500*time.Millisecond), 1e-9)
}

// =============================================================================
// SCENARIO TESTS
// =============================================================================

func TestGetStandardScenarios_Order(t *testing.T) {
	p := DefaultParams()
	p.Sizes = []float64{50, 2.5}
	scenarios := GetStandardScenarios(testCase(), p)

	require.Len(t, scenarios, 3+len(p.Sizes))
	keys := make([]string, len(scenarios))
	for i, s := range scenarios {
		keys[i] = s.Key()
	}
	assert.Equal(t, []string{"A", "B", "C", "D0", "D1"}, keys)

	assert.Equal(t, "unit_square_default", scenarios[0].Description)
	assert.False(t, scenarios[0].Request.EnforceConstraints)
	assert.Empty(t, scenarios[0].Request.Inner)

	assert.Equal(t, "B_unit_square_with_inner_polygon", scenarios[1].Name)
	assert.True(t, scenarios[1].Request.EnforceConstraints)
	require.Len(t, scenarios[1].Request.Inner, 1)

	assert.Equal(t, "city_maxh_100", scenarios[2].Description)
	assert.Equal(t, "C_city_100", scenarios[2].Name)
	assert.Equal(t, adapter.TierModerate, scenarios[2].Request.Quality)

	assert.Equal(t, "D_city_2.5", scenarios[4].Name)
	maxh, ok := scenarios[4].Request.MaxH.Get()
	assert.True(t, ok)
	assert.Equal(t, 2.5, maxh)
}

func TestGetStandardScenarios_NoSizes(t *testing.T) {
	p := DefaultParams()
	p.Sizes = nil
	assert.Len(t, GetStandardScenarios(testCase(), p), 3)
}

// =============================================================================
// SUITE TESTS
// =============================================================================

func TestSuite_UnitSquareEndToEnd(t *testing.T) {
	p := DefaultParams()
	p.Sizes = []float64{20, 10}
	p.Repeats = 2

	var started []string
	suite := &Suite{
		Software:        "fake",
		Backend:         squareBackend(),
		Case:            testCase(),
		Params:          p,
		Meta:            map[string]string{"os": "test"},
		OnScenarioStart: func(s Scenario) { started = append(started, s.Key()) },
	}
	res, err := suite.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Scenarios, 5)
	assert.Equal(t, []string{"A", "B", "C", "D0", "D1"}, started)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "city", res.TestCase)
	assert.Equal(t, "test", res.Meta["os"])

	a := res.Scenarios[0]
	assert.Equal(t, "A", a.Key)
	assert.Equal(t, 2, a.NumTriangles)
	assert.Len(t, a.Timings, 2)
	require.NotNil(t, a.Quality)
	assert.Equal(t, "A", a.Quality.Key)
	assert.InDelta(t, 1.0, a.Quality.TotalArea, 1e-12)
	assert.InDelta(t, 45.0, float64(a.Quality.MinAngle.Mean), 1e-9)
	assert.InDelta(t, 1.0, a.AreaCoverage, 1e-12)
	assert.NotNil(t, a.Mesh)

	// The fake ignores the hole, so B covers more than the holed polygon.
	assert.InDelta(t, 1.0/0.84, res.Scenarios[1].AreaCoverage, 1e-9)

	d1 := res.Scenarios[4]
	assert.Equal(t, "city_maxh_10", d1.Description)
	maxh, ok := d1.MaxH()
	assert.True(t, ok)
	assert.Equal(t, 10.0, maxh)
}

func TestSuite_ScenarioFailureAborts(t *testing.T) {
	boom := errors.New("refinement failed")
	calls := 0
	backend := adapter.Func(func(ctx context.Context, req adapter.Request) (*mesh.Mesh, error) {
		calls++
		if len(req.Inner) > 0 {
			return nil, boom
		}
		return squareBackend().Triangulate(ctx, req)
	})

	suite := &Suite{Software: "fake", Backend: backend, Case: testCase(), Params: DefaultParams()}
	res, err := suite.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)

	var se *ScenarioError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "B", se.Key)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultRepeats+1, calls, "A runs fully, B stops at its first call")
}

func TestSuite_MalformedLoopFailsBeforeBackend(t *testing.T) {
	tc := testCase()
	tc.Outer = mesh.NewLoop([2]float64{0, 0}, [2]float64{math.NaN(), 1}, [2]float64{1, 1})

	backend, _ := timedBackend(&scriptedClock{}, time.Millisecond)
	suite := &Suite{Software: "fake", Backend: backend, Case: tc, Params: DefaultParams()}
	_, err := suite.Run(context.Background())

	var se *ScenarioError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "C", se.Key)
	assert.ErrorIs(t, err, mesh.ErrMalformed)
}

func TestSuite_MalformedMeshIsAnError(t *testing.T) {
	backend := adapter.Func(func(ctx context.Context, req adapter.Request) (*mesh.Mesh, error) {
		return &mesh.Mesh{Points: [][3]float64{{0, 0, 0}}, Triangles: [][3]int{{0, 1, 2}}}, nil
	})
	suite := &Suite{Software: "fake", Backend: backend, Case: testCase(), Params: DefaultParams()}
	_, err := suite.Run(context.Background())
	assert.ErrorIs(t, err, mesh.ErrMalformed)
}

func TestSuite_InvalidParams(t *testing.T) {
	suite := &Suite{Software: "fake", Backend: squareBackend(), Case: testCase(), Params: Params{}}
	_, err := suite.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidRepeats)

	suite = &Suite{Software: "fake", Backend: squareBackend(), Params: DefaultParams()}
	_, err = suite.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoTestCase)
}

// =============================================================================
// STORAGE AND COMPARISON TESTS
// =============================================================================

func runFake(t *testing.T, software string) *SuiteResult {
	t.Helper()
	p := DefaultParams()
	p.Sizes = []float64{10}
	p.Repeats = 1
	res, err := (&Suite{Software: software, Backend: squareBackend(), Case: testCase(), Params: p}).Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestSaveLoadSuite(t *testing.T) {
	res := runFake(t, "fake")
	path := filepath.Join(t.TempDir(), "suite_fake.json")
	require.NoError(t, SaveSuite(res, path))

	loaded, err := LoadSuite(path)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, loaded.RunID)
	require.Len(t, loaded.Scenarios, len(res.Scenarios))
	assert.Nil(t, loaded.Scenarios[0].Mesh)
	assert.Equal(t, res.Scenarios[3].Options, loaded.Scenarios[3].Options)
	assert.Equal(t, res.Scenarios[0].Quality.MinAngle.Distribution, loaded.Scenarios[0].Quality.MinAngle.Distribution)
}

func TestCompare(t *testing.T) {
	base := runFake(t, "base")
	other := runFake(t, "other")
	for i := range base.Scenarios {
		base.Scenarios[i].Elapsed = 40 * time.Millisecond
		other.Scenarios[i].Elapsed = 10 * time.Millisecond
	}
	other.Scenarios = other.Scenarios[:3]

	c, err := Compare(base, other)
	require.NoError(t, err)
	assert.Len(t, c.Rows, 3)
	assert.Equal(t, []string{"D0"}, c.Unmatched)
	assert.InDelta(t, 4.0, c.Rows[0].Speedup, 1e-9)
	assert.InDelta(t, 4.0, c.GeoMeanSpeedup(), 1e-9)
	assert.Contains(t, c.Summary(), "other is 4.00x faster")
}

func TestCompare_NothingInCommon(t *testing.T) {
	_, err := Compare(&SuiteResult{}, &SuiteResult{})
	assert.ErrorIs(t, err, ErrNoScenarios)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "N/A"},
		{500 * time.Microsecond, "500µs"},
		{1500 * time.Microsecond, "1.5ms"},
		{2500 * time.Millisecond, "2.50s"},
		{90 * time.Second, "1m 30s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestFormatThroughput(t *testing.T) {
	assert.Equal(t, "N/A", FormatThroughput(0))
	assert.Equal(t, "950 tri/s", FormatThroughput(950))
	assert.Equal(t, "12.5k tri/s", FormatThroughput(12500))
	assert.Equal(t, "3.20M tri/s", FormatThroughput(3.2e6))
}
