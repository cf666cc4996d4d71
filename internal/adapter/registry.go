// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package adapter

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/meshbench/internal/mesh"
)

// =============================================================================
// BACKEND SELECTION
// =============================================================================

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend kind, e.g. "exec" or "replay".
	Kind string
	// Name identifies the software under test in reports.
	Name    string
	Command string
	Args    []string
	Env     []string
	Dir     string
	Timeout time.Duration
}

// Factory builds a Triangulator from its configuration.
type Factory func(cfg Config) (Triangulator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"exec":   newExec,
		"replay": newReplay,
	}
)

// Register makes a backend kind available to New. Registering an existing
// kind replaces it.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(kind)] = f
}

// Kinds returns the registered backend kinds in sorted order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds the backend named by cfg.Kind.
func New(cfg Config) (Triangulator, error) {
	registryMu.RLock()
	f, ok := registry[strings.ToLower(cfg.Kind)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q, must be one of: %s", ErrUnknownBackend, cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(cfg)
}

func newExec(cfg Config) (Triangulator, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("exec backend requires a command")
	}
	b := NewExecBackend(cfg.Name, cfg.Command, cfg.Args...)
	b.Env = cfg.Env
	b.Dir = cfg.Dir
	if cfg.Timeout > 0 {
		b.Timeout = cfg.Timeout
	}
	return b, nil
}

// =============================================================================
// REPLAY BACKEND
// =============================================================================

// ReplayBackend returns a copy of one recorded mesh for every request. It is
// used to evaluate saved backend output and to dry-run the suite.
type ReplayBackend struct {
	mesh *mesh.Mesh
}

// NewReplayBackend wraps an already decoded mesh.
func NewReplayBackend(m *mesh.Mesh) *ReplayBackend {
	return &ReplayBackend{mesh: m}
}

// LoadReplayBackend reads a mesh in the exec backend output format.
func LoadReplayBackend(path string) (*ReplayBackend, error) {
	m, err := ReadMesh(path)
	if err != nil {
		return nil, err
	}
	return NewReplayBackend(m), nil
}

func newReplay(cfg Config) (Triangulator, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("replay backend requires a mesh file as its command")
	}
	return LoadReplayBackend(cfg.Command)
}

// Triangulate returns a copy of the recorded mesh.
func (b *ReplayBackend) Triangulate(ctx context.Context, req Request) (*mesh.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := &mesh.Mesh{
		Points:    append([][3]float64(nil), b.mesh.Points...),
		Triangles: append([][3]int(nil), b.mesh.Triangles...),
		Edges:     append([][2]int(nil), b.mesh.Edges...),
	}
	return out, nil
}

// ReadMesh decodes a mesh JSON file ({"points", "triangles",
// "constraint_edges"}).
func ReadMesh(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mesh: %w", err)
	}
	m, err := DecodeMesh(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
