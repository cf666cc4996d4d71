// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing, usage text and the version command.

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/meshbench/internal/config"
)

// Version information (overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdRun Command = iota
	CmdMetrics
	CmdCompare
	CmdHistory
	CmdConfig
	CmdHost
	CmdDoctor
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name used in JSON output.
func (c Command) String() string {
	switch c {
	case CmdRun:
		return "run"
	case CmdMetrics:
		return "metrics"
	case CmdCompare:
		return "compare"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdHost:
		return "host"
	case CmdDoctor:
		return "doctor"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	NoColor    bool
	ConfigPath string

	// Name is the command word as typed.
	Name string

	// Subcommand is the first positional argument after the command.
	Subcommand string

	// Raw holds the command arguments with global flags removed.
	Raw []string
}

// Parser returns an ArgParser over the command arguments.
func (a Args) Parser(bools ...string) *ArgParser {
	return NewArgParser(a.Raw, bools...)
}

// LoadConfig loads --config when given, the default search path otherwise.
func (a Args) LoadConfig() (*config.Config, error) {
	if a.ConfigPath != "" {
		return config.LoadFromPath(a.ConfigPath)
	}
	return config.Load()
}

const usageText = `meshbench - benchmark harness for 2D mesh generators

Runs a fixed battery of triangulation scenarios against a backend,
measures best-of-N wall time, evaluates mesh quality and writes reports.

Usage:
  meshbench run [flags]              Run the scenario battery
  meshbench metrics <mesh>           Evaluate an existing mesh file
  meshbench compare <a> <b>          Compare two runs (suite JSON or run id)
  meshbench history [subcommand]     Past runs
  meshbench config [subcommand]      Configuration
  meshbench host                     Show host metadata
  meshbench doctor                   Check config, test case and backend
  meshbench version                  Show version
  meshbench help                     Show this help

Run Flags:
  --software NAME        Name used in reports and file names
  --backend CMD          Backend executable (exec kind) or mesh file (replay)
  --kind KIND            Backend kind: exec, replay
  --args A,B             Extra backend arguments
  --testcase FILE        Test case (.txt or .geojson)
  --out DIR              Output directory
  --repeats N            Calls per scenario, the fastest is kept
  --sizes 50,20,10       Sweep sizes for the D scenarios
  --min-angle DEG        Minimum angle passed to scenarios C and D
  --timeout SECS         Per-call backend timeout (0 uses 300)
  --no-vtu               Skip VTU mesh files
  --no-history           Do not record the run in the history database
  --plain                Plain progress lines instead of the live view
  --watch                Re-run when the test case or backend changes

History Commands:
  meshbench history list             List recorded runs
    --software NAME                  Only runs of one backend
    --testcase NAME                  Only runs of one test case
    --limit N                        Show at most N runs (default: 20)
  meshbench history show <id>        Show one run (id prefix of 4+ chars)
  meshbench history trend <key>      Timing of one scenario across runs
    --software NAME                  Backend to follow (required)
  meshbench history delete <id>      Delete a run
  meshbench history prune --keep N   Keep only the newest N runs

Config Commands:
  meshbench config show              Show the effective configuration
  meshbench config get <key>         Show one value (e.g. suite.repeats)
  meshbench config set <key> <val>   Set a value in ./meshbench.toml
  meshbench config keys              List all keys
  meshbench config path              Show the config search path
  meshbench config init              Interactive setup of ./meshbench.toml

Global Flags:
  --json                 Output one JSON document on stdout
  --config FILE          Use this config file
  --no-color             Disable colors
  -q, --quiet            Only print errors and the final table
  -v, --verbose          Log per-repeat timings

Environment:
  MESHBENCH_SOFTWARE, MESHBENCH_BACKEND, MESHBENCH_BACKEND_KIND,
  MESHBENCH_TESTCASE, MESHBENCH_OUTDIR, MESHBENCH_REPEATS,
  MESHBENCH_TIMEOUT override the config file. NO_COLOR disables colors.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "meshbench version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s\n", runtime.Version())
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv without the program name. With no command it
// returns CmdHelp.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)
	if args.NoColor {
		ForceColorsEnabled(false)
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if len(remaining) == 0 {
		return CmdHelp, args
	}

	args.Name = strings.ToLower(remaining[0])
	args.Raw = remaining[1:]
	for _, a := range args.Raw {
		if !isFlag(a) {
			args.Subcommand = a
			break
		}
	}

	switch args.Name {
	case "run", "bench":
		return CmdRun, args
	case "metrics", "quality":
		return CmdMetrics, args
	case "compare", "diff":
		return CmdCompare, args
	case "history", "runs":
		return CmdHistory, args
	case "config":
		return CmdConfig, args
	case "host", "sysinfo":
		return CmdHost, args
	case "doctor", "check":
		return CmdDoctor, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	}
	return CmdUnknown, args
}

// parseGlobalFlags extracts global flags from anywhere in argv.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--no-color":
			args.NoColor = true
		case "--config":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				args.ConfigPath = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}
	return remaining, args
}

// =============================================================================
// SIMPLE COMMANDS
// =============================================================================

// HandleVersion handles the version command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	PrintVersion(os.Stdout)
	return nil
}

// HandleHelp handles the help command.
func HandleHelp() error {
	PrintUsage(os.Stdout)
	return nil
}

// HandleUnknown reports an unknown command.
func HandleUnknown(args Args) error {
	example := "meshbench help"
	if s := SuggestCommand(args.Name); s != "" {
		example = "meshbench " + s
	}
	return &ValidationError{
		Field:   "command",
		Value:   args.Name,
		Reason:  "unknown command",
		Example: example,
	}
}
