// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the meshbench command line.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdRun:
//	    err = cli.HandleRun(args)
//	// ... other commands
//	}
//	if err != nil {
//	    cli.HandleErrorAndExit(cmd.String(), err, args.JSON)
//	}
//
// # Commands
//
//   - run: run the scenario battery against a backend and write reports
//   - metrics: evaluate quality of an existing mesh file
//   - compare: compare two suite results by file or history id
//   - history: list, show, trend, delete and prune recorded runs
//   - config: show, get, set and initialize configuration
//   - host: show the host metadata recorded with each run
//   - doctor: check that a run would find its inputs
//
// # Output
//
// Every command supports --json. In JSON mode stdout carries exactly one
// JSONResponse document and all progress goes to stderr.
package cli
