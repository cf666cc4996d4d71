// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mesh defines the input and output shapes exchanged with
// triangulation backends.
//
// # Key Types
//
//   - Loop: a closed polygon ring (closure implicit), backed by orb.Ring
//   - Mesh: points, triangles and constraint edges produced by a backend
//
// Both types are validated before any metric is computed so that a
// malformed input fails fast instead of producing wrong statistics.
package mesh
