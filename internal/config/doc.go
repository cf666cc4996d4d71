// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for meshbench.
//
// Configuration is TOML, with defaults for every key, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - BackendConfig: Backend kind, command and timeout
//   - SuiteConfig: Test case and scenario parameters
//   - OutputConfig: Report directory and optional outputs
//   - HistoryConfig: Run history database
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MESHBENCH_*)
//   - ./meshbench.toml
//   - ~/.meshbench/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	backend, err := adapter.New(cfg.AdapterConfig())
//	params := cfg.Params()
package config
