// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, exit codes and error display for CLI commands.
//
// Handlers return errors; main decides how to display them and which exit
// code to use.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/config"
	"github.com/jeranaias/meshbench/internal/history"
	"github.com/jeranaias/meshbench/internal/mesh"
	"github.com/jeranaias/meshbench/internal/testcase"
	"github.com/jeranaias/meshbench/internal/vtk"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitInputError indicates a malformed test case or mesh file
	ExitInputError = 4
	// ExitBackendError indicates the backend failed or produced bad output
	ExitBackendError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates a backend call timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "history"
	Action  string // e.g. "prune"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a bad flag or argument.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// ErrInvalidFormat creates an error for a value in the wrong format.
func ErrInvalidFormat(field, value, expected string) error {
	return &ValidationError{Field: field, Value: value, Reason: "invalid format", Example: expected}
}

// ErrUnknownSubcommand creates an error for an unknown subcommand.
func ErrUnknownSubcommand(command, sub string, valid []string) error {
	return &ValidationError{
		Field:   command + " subcommand",
		Value:   sub,
		Reason:  "unknown subcommand",
		Example: fmt.Sprintf("valid subcommands: %v", valid),
	}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var notFoundErr *NotFoundError
	var configErrs config.ValidateErrors
	var configErr config.ValidationError
	var backendErr *adapter.BackendError

	switch {
	case errors.As(err, &validationErr):
		return ExitUsageError
	case errors.As(err, &configErrs), errors.As(err, &configErr):
		return ExitConfigError
	case errors.As(err, &notFoundErr), errors.Is(err, history.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return ExitNotFoundError
	case errors.Is(err, adapter.ErrTimeout):
		return ExitTimeoutError
	case errors.As(err, &backendErr), errors.Is(err, adapter.ErrInvalidOutput), errors.Is(err, adapter.ErrUnknownBackend):
		return ExitBackendError
	case errors.Is(err, mesh.ErrMalformed), errors.Is(err, testcase.ErrEmpty), errors.Is(err, vtk.ErrFormat),
		errors.Is(err, benchmark.ErrNoScenarios):
		return ExitInputError
	}
	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, command, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var scenarioErr *benchmark.ScenarioError
	if errors.As(err, &scenarioErr) {
		fmt.Fprintf(w, "%s\n", DimStyle.Render("  failed scenario: "+scenarioErr.Key+" "+scenarioErr.Description))
	}
}

// DisplayErrorJSON writes err as a JSON error response with structured
// details where available.
func DisplayErrorJSON(w io.Writer, command string, err error) {
	output := map[string]interface{}{
		"success":   false,
		"command":   command,
		"error":     err.Error(),
		"exit_code": GetExitCode(err),
	}

	var validationErr *ValidationError
	var scenarioErr *benchmark.ScenarioError
	var backendErr *adapter.BackendError
	var configErrs config.ValidateErrors
	switch {
	case errors.As(err, &validationErr):
		output["error_type"] = "validation_error"
		output["field"] = validationErr.Field
		if validationErr.Example != "" {
			output["example"] = validationErr.Example
		}
	case errors.As(err, &configErrs):
		output["error_type"] = "config_error"
		fields := make([]string, len(configErrs))
		for i, e := range configErrs {
			fields[i] = e.Field
		}
		output["fields"] = fields
	case errors.As(err, &scenarioErr):
		output["error_type"] = "scenario_error"
		output["scenario"] = scenarioErr.Key
		if errors.As(err, &backendErr) {
			output["backend_stderr"] = backendErr.Stderr
		}
	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}

// HandleErrorAndExit displays err and exits with its exit code. Errors go to
// stdout in JSON mode so machine readers see one document.
func HandleErrorAndExit(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayError(os.Stdout, command, err, true)
	} else {
		DisplayError(os.Stderr, command, err, false)
	}
	os.Exit(GetExitCode(err))
}
