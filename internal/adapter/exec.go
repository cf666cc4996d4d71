// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jeranaias/meshbench/internal/mesh"
)

// DefaultTimeout bounds a single backend invocation.
const DefaultTimeout = 5 * time.Minute

// maxStderr caps how much backend stderr is kept in an error.
const maxStderr = 4096

// =============================================================================
// BACKEND ERROR
// =============================================================================

// BackendError reports a failed backend invocation. It unwraps to the
// underlying cause, which is ErrTimeout for a timeout.
type BackendError struct {
	Backend  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *BackendError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "backend %s failed", e.Backend)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// =============================================================================
// EXEC BACKEND
// =============================================================================

// ExecBackend runs an external triangulator executable once per call. The
// request is written to stdin as JSON:
//
//	{"outer": [[x, y], ...], "inner_loops": [[[x, y], ...]], "maxh": 10,
//	 "quality": "moderate", "enforce_constraints": true, "min_angle": null}
//
// and the mesh is read from stdout:
//
//	{"points": [[x, y, z], ...], "triangles": [[i, j, k], ...],
//	 "constraint_edges": [[i, j], ...]}
type ExecBackend struct {
	Name    string
	Command string
	Args    []string
	// Env entries are appended to the current environment.
	Env []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Timeout bounds one invocation; zero means DefaultTimeout.
	Timeout time.Duration
}

// NewExecBackend creates an exec backend with the default timeout.
func NewExecBackend(name, command string, args ...string) *ExecBackend {
	return &ExecBackend{
		Name:    name,
		Command: command,
		Args:    args,
		Timeout: DefaultTimeout,
	}
}

// Triangulate runs the executable and decodes its output.
func (b *ExecBackend) Triangulate(ctx context.Context, req Request) (*mesh.Mesh, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, b.Command, b.Args...)
	cmd.Dir = b.Dir
	if len(b.Env) > 0 {
		cmd.Env = append(os.Environ(), b.Env...)
	}
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &BackendError{
			Backend: b.name(),
			Stderr:  tail(stderr.String()),
			Err:     fmt.Errorf("%w after %s", ErrTimeout, timeout),
		}
	}
	if runErr != nil {
		be := &BackendError{Backend: b.name(), Stderr: tail(stderr.String()), Err: runErr}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			be.ExitCode = exitErr.ExitCode()
		}
		return nil, be
	}

	m, err := DecodeMesh(stdout.Bytes())
	if err != nil {
		return nil, &BackendError{
			Backend: b.name(),
			Stderr:  tail(stderr.String()),
			Err:     err,
		}
	}
	return m, nil
}

func (b *ExecBackend) name() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Command
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return "..." + s[len(s)-maxStderr:]
	}
	return s
}
