// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect collects host and toolchain metadata recorded with every
// benchmark run.
//
// # Key Types
//
//   - HostInfo: OS, kernel, machine, CPU and toolchain versions
//   - Toolchain: An external tool whose version is probed
//
// # Probes
//
//   - Kernel release and machine via uname(2) on Unix
//   - CPU model from /proc/cpuinfo, sysctl or the environment
//   - rustc --version and cargo --version, each bounded by ProbeTimeout
//
// No probe is fatal: a missing tool only leaves its field out.
//
// # Usage
//
//	host := detect.Collect(ctx)
//	suite.Meta = host.Map()
package detect
