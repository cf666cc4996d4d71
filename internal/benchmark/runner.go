// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/mesh"
)

// DefaultRepeats is the number of timed calls per scenario.
const DefaultRepeats = 3

// ErrInvalidRepeats is returned when fewer than one repeat is requested.
var ErrInvalidRepeats = errors.New("repeats must be at least 1")

// =============================================================================
// BENCHMARK RUNNER
// =============================================================================

// Runner times repeated calls to a backend and keeps the fastest.
// Note: Runner is not thread-safe and should not be used concurrently
// from multiple goroutines.
type Runner struct {
	now func() time.Time

	// OnRepeat, when set, is called after every successful call with its
	// 0-based index and elapsed time.
	OnRepeat func(repeat int, elapsed time.Duration)
}

// NewRunner creates a runner using the monotonic wall clock.
func NewRunner() *Runner {
	return &Runner{now: time.Now}
}

// WithClock replaces the clock. Tests use it to script elapsed times.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// RunResult is the outcome of a best-of-N run.
type RunResult struct {
	// Mesh is the output of the fastest call.
	Mesh *mesh.Mesh
	// Elapsed is the time of the fastest call.
	Elapsed time.Duration
	// Timings holds every call's time in call order.
	Timings []time.Duration
}

// Run calls t with req repeats times, one after another, and returns the
// mesh and time of the fastest call. On a tie the earlier call wins.
//
// The first backend error aborts the remaining repeats and is returned
// unchanged. A call returning neither a mesh nor an error fails with
// adapter.ErrInvalidOutput. The context is checked before each call only; a call in
// progress is never interrupted by the runner.
func (r *Runner) Run(ctx context.Context, t adapter.Triangulator, req adapter.Request, repeats int) (*RunResult, error) {
	if repeats < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRepeats, repeats)
	}
	now := r.now
	if now == nil {
		now = time.Now
	}

	res := &RunResult{Timings: make([]time.Duration, 0, repeats)}
	for i := 0; i < repeats; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := now()
		m, err := t.Triangulate(ctx, req)
		elapsed := now().Sub(start)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("%w: repeat %d returned no mesh", adapter.ErrInvalidOutput, i+1)
		}

		res.Timings = append(res.Timings, elapsed)
		if i == 0 || elapsed < res.Elapsed {
			res.Mesh = m
			res.Elapsed = elapsed
		}
		if r.OnRepeat != nil {
			r.OnRepeat(i, elapsed)
		}
	}
	return res, nil
}

// Throughput returns triangles per second, or 0 when elapsed is not positive.
func Throughput(triangles int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(triangles) / elapsed.Seconds()
}
