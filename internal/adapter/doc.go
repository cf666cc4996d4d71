// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package adapter defines the contract every triangulation backend meets
// and the backends meshbench ships with.
//
// # Key Types
//
//   - Triangulator: the single-method backend capability
//   - Request, Options: polygon input and refinement parameters
//   - Optional: a float with an explicit presence flag (maxh, min_angle)
//   - ExecBackend: runs an external triangulator over a JSON stdin/stdout protocol
//   - ReplayBackend: returns a recorded mesh, for dry runs
//
// # Usage
//
// Select a backend by configuration:
//
//	t, err := adapter.New(adapter.Config{
//	    Kind:    "exec",
//	    Name:    "spade",
//	    Command: "./spade-cli",
//	})
//	m, err := t.Triangulate(ctx, adapter.Request{
//	    Outer:   outer,
//	    Options: adapter.Options{MaxH: adapter.Some(10), Quality: adapter.TierModerate},
//	})
//
// Backend failures are returned as *BackendError and are never retried.
package adapter
