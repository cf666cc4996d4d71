// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive history operations.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// RequireConfirmation asks before a destructive action. With confirmFlag
// set it proceeds without asking. In JSON mode, or without a terminal, the
// flag is required.
//
// Example:
//
//	confirmed, err := RequireConfirmation(p.BoolFlag("confirm"), "delete run 3f2a9c1e", args.JSON)
//	if err != nil {
//	    return err
//	}
//	if !confirmed {
//	    ShowCancellationMessage()
//	    return nil
//	}
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}
	if jsonMode {
		return false, NewValidationError("--confirm", "", "required to "+action+" in JSON mode")
	}
	if !IsTTY() {
		return false, NewValidationError("--confirm", "", "required to "+action+" when stdin is not a terminal")
	}
	return promptYesNo(os.Stdin, os.Stdout, fmt.Sprintf("Are you sure you want to %s?", action))
}

// promptYesNo asks question on out and reads the answer from in. Only "y"
// and "yes" confirm.
func promptYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}

// ShowCancellationMessage reports that the user declined.
func ShowCancellationMessage() {
	fmt.Println(DimStyle.Render("Cancelled."))
}
