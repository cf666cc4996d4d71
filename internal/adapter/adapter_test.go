// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshbench/internal/mesh"
)

const helperEnv = "MESHBENCH_HELPER_PROCESS"

func square() mesh.Loop {
	return mesh.NewLoop([2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 1}, [2]float64{0, 1})
}

// helperBackend re-executes the test binary as a fake triangulator.
func helperBackend(mode string) *ExecBackend {
	b := NewExecBackend("helper", os.Args[0], "-test.run=TestHelperProcess", "--")
	b.Env = []string{helperEnv + "=" + mode}
	return b
}

// TestHelperProcess is not a real test; it is the fake backend executable.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		return
	}
	defer os.Exit(0)

	in, _ := io.ReadAll(os.Stdin)
	var req map[string]any
	if err := json.Unmarshal(in, &req); err != nil {
		fmt.Fprintf(os.Stderr, "bad input: %v", err)
		os.Exit(2)
	}

	switch mode {
	case "ok":
		fmt.Println(`{"points":[[0,0,0],[1,0,0],[1,1,0],[0,1,0]],"triangles":[[0,1,2],[0,2,3]],"constraint_edges":[[0,1]]}`)
	case "fail":
		fmt.Fprint(os.Stderr, "refinement did not converge")
		os.Exit(3)
	case "garbage":
		fmt.Println("not json")
	case "null":
		fmt.Println("null")
	case "short-triangle":
		fmt.Println(`{"points":[[0,0,0],[1,0,0],[1,1,0],[0,1,0]],"triangles":[[0,1,2],[1,3]]}`)
	case "sleep":
		time.Sleep(10 * time.Second)
	}
}

func TestExecBackend_Success(t *testing.T) {
	m, err := helperBackend("ok").Triangulate(context.Background(), Request{Outer: square()})
	require.NoError(t, err)

	assert.Equal(t, 4, m.NumPoints())
	assert.Equal(t, 2, m.NumTriangles())
	assert.Equal(t, [][2]int{{0, 1}}, m.Edges)
	require.NoError(t, m.Validate())
}

func TestExecBackend_RequestWireFormat(t *testing.T) {
	req := Request{
		Outer: square(),
		Inner: []mesh.Loop{mesh.NewLoop([2]float64{0.3, 0.3}, [2]float64{0.7, 0.3}, [2]float64{0.7, 0.7})},
		Options: Options{
			MaxH:               Some(0),
			Quality:            TierModerate,
			EnforceConstraints: true,
		},
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, 0.0, wire["maxh"], "an explicit zero must not become null")
	assert.Nil(t, wire["min_angle"])
	assert.Equal(t, "moderate", wire["quality"])
	assert.Equal(t, true, wire["enforce_constraints"])
	assert.Len(t, wire["outer"], 4)
	assert.Len(t, wire["inner_loops"], 1)
}

func TestExecBackend_NonZeroExit(t *testing.T) {
	_, err := helperBackend("fail").Triangulate(context.Background(), Request{Outer: square()})
	require.Error(t, err)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 3, be.ExitCode)
	assert.Contains(t, be.Stderr, "did not converge")
	assert.Contains(t, err.Error(), "helper")
}

func TestExecBackend_MalformedOutput(t *testing.T) {
	for _, mode := range []string{"garbage", "null", "short-triangle"} {
		t.Run(mode, func(t *testing.T) {
			m, err := helperBackend(mode).Triangulate(context.Background(), Request{Outer: square()})
			require.ErrorIs(t, err, ErrInvalidOutput)
			assert.Nil(t, m)

			var be *BackendError
			assert.True(t, errors.As(err, &be))
		})
	}
}

func TestDecodeMesh(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		points int // -1 when decoding must fail
	}{
		{"valid", `{"points":[[0,0,0],[1,0,0],[0,1,0]],"triangles":[[0,1,2]],"constraint_edges":[[0,1]]}`, 3},
		{"2d points", `{"points":[[0,0],[1,0],[0,1]],"triangles":[[0,1,2]]}`, 3},
		{"empty mesh", `{"points":[],"triangles":[]}`, 0},
		{"null body", `null`, -1},
		{"missing points", `{"triangles":[[0,1,2]]}`, -1},
		{"missing triangles", `{"points":[[0,0,0]]}`, -1},
		{"null triangles", `{"points":[[0,0,0]],"triangles":null}`, -1},
		{"short triangle", `{"points":[[0,0,0],[1,0,0],[0,1,0],[1,1,0]],"triangles":[[0,1,2],[1,3]]}`, -1},
		{"long triangle", `{"points":[[0,0,0],[1,0,0],[0,1,0],[1,1,0]],"triangles":[[1,3,2,0]]}`, -1},
		{"short edge", `{"points":[[0,0,0],[1,0,0],[0,1,0]],"triangles":[[0,1,2]],"constraint_edges":[[0]]}`, -1},
		{"1d point", `{"points":[[0],[1,0,0],[0,1,0]],"triangles":[[0,1,2]]}`, -1},
		{"4d point", `{"points":[[0,0,0,0],[1,0,0],[0,1,0]],"triangles":[[0,1,2]]}`, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeMesh([]byte(tt.json))
			if tt.points < 0 {
				assert.ErrorIs(t, err, ErrInvalidOutput)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Len(t, m.Points, tt.points)
		})
	}
}

func TestDecodeMesh_PadsPlanarPoints(t *testing.T) {
	m, err := DecodeMesh([]byte(`{"points":[[1,2],[3,4],[5,6]],"triangles":[[0,1,2]]}`))
	require.NoError(t, err)
	assert.Equal(t, [3]float64{3, 4, 0}, m.Points[1])
	assert.Equal(t, [3]int{0, 1, 2}, m.Triangles[0])
	assert.Empty(t, m.Edges)
}

func TestReadMesh_RejectsWrongArity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"points":[[0,0,0],[1,0,0],[0,1,0],[1,1,0]],"triangles":[[0,1,2],[1,3],[1,3,2,0]],"constraint_edges":[[0]]}`), 0644))

	_, err := ReadMesh(path)
	require.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "triangle 1")

	_, err = New(Config{Kind: "replay", Command: path})
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExecBackend_Timeout(t *testing.T) {
	b := helperBackend("sleep")
	b.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := b.Triangulate(context.Background(), Request{Outer: square()})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecBackend_MissingExecutable(t *testing.T) {
	b := NewExecBackend("missing", filepath.Join(t.TempDir(), "no-such-backend"))
	_, err := b.Triangulate(context.Background(), Request{Outer: square()})

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "missing", be.Backend)
}

func TestOptional(t *testing.T) {
	v, ok := None().Get()
	assert.False(t, ok)
	assert.Equal(t, 0.0, v)

	v, ok = Some(0).Get()
	assert.True(t, ok, "zero is a supplied value")
	assert.Equal(t, 0.0, v)

	var o Optional
	require.NoError(t, json.Unmarshal([]byte("12.5"), &o))
	assert.Equal(t, Some(12.5), o)
	require.NoError(t, json.Unmarshal([]byte("null"), &o))
	assert.False(t, o.IsSet())
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, TierDefault, tier)

	tier, err = ParseTier("Moderate")
	require.NoError(t, err)
	assert.Equal(t, TierModerate, tier)

	_, err = ParseTier("extreme")
	assert.Error(t, err)
}

func TestOptions_String(t *testing.T) {
	o := Options{MaxH: Some(20), Quality: TierModerate, EnforceConstraints: true}
	assert.Equal(t, "quality=moderate maxh=20 constraints", o.String())
}

func TestNew_SelectsBackendByKind(t *testing.T) {
	tr, err := New(Config{Kind: "exec", Name: "x", Command: "x", Timeout: time.Second})
	require.NoError(t, err)
	eb, ok := tr.(*ExecBackend)
	require.True(t, ok)
	assert.Equal(t, time.Second, eb.Timeout)

	_, err = New(Config{Kind: "exec"})
	assert.Error(t, err)

	_, err = New(Config{Kind: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestReplayBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"points":[[0,0,0],[1,0,0],[0,1,0]],"triangles":[[0,1,2]],"constraint_edges":[]}`), 0644))

	tr, err := New(Config{Kind: "replay", Command: path})
	require.NoError(t, err)

	a, err := tr.Triangulate(context.Background(), Request{Outer: square()})
	require.NoError(t, err)
	b, err := tr.Triangulate(context.Background(), Request{Outer: square()})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	a.Points[0][0] = 42
	assert.NotEqual(t, a.Points[0], b.Points[0], "each call returns an independent copy")
}

func TestFunc(t *testing.T) {
	called := 0
	f := Func(func(ctx context.Context, req Request) (*mesh.Mesh, error) {
		called++
		return &mesh.Mesh{}, nil
	})
	_, err := f.Triangulate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, called)
}

func TestRegister_AddsKind(t *testing.T) {
	Register("Fixed", func(cfg Config) (Triangulator, error) {
		return Func(func(ctx context.Context, req Request) (*mesh.Mesh, error) {
			return &mesh.Mesh{}, nil
		}), nil
	})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, "fixed")
		registryMu.Unlock()
	})

	assert.Contains(t, Kinds(), "fixed")
	tr, err := New(Config{Kind: "FIXED"})
	require.NoError(t, err)
	_, err = tr.Triangulate(context.Background(), Request{Outer: square()})
	assert.NoError(t, err)
}
