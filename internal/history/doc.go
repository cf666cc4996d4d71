// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps past suite runs in a SQLite database.
//
// Each run is stored whole as JSON, plus one row per scenario so timings can
// be followed across runs without decoding every result.
//
// # Key Types
//
//   - Store: The database handle
//   - RunSummary: One line of the run list
//   - TrendPoint: One scenario measurement of a past run
//
// # Usage
//
//	store, err := history.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	err = store.Record(ctx, result)
//	runs, err := store.List(ctx, history.ListOptions{Software: "triangle"})
package history
