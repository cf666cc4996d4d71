// meshbench - A benchmark harness for 2D mesh generators.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"log"

	"github.com/jeranaias/meshbench/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate

	log.SetFlags(0)
	log.SetPrefix("meshbench: ")
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdRun:
		err = cli.HandleRun(args)
	case cli.CmdMetrics:
		err = cli.HandleMetrics(args)
	case cli.CmdCompare:
		err = cli.HandleCompare(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdHost:
		err = cli.HandleHost(args)
	case cli.CmdDoctor:
		err = cli.HandleDoctor(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		err = cli.HandleHelp()
	default:
		err = cli.HandleUnknown(args)
	}

	if err != nil {
		cli.HandleErrorAndExit(cmd.String(), err, args.JSON)
	}
}
