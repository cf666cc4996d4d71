// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !unix

package detect

// uname is unavailable; callers fall back to runtime values.
func uname() unameInfo {
	return unameInfo{}
}
