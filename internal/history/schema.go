// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema creates the run history tables.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per suite run. result holds the complete suite JSON.
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    software TEXT NOT NULL,
    test_case TEXT NOT NULL,
    fingerprint TEXT NOT NULL DEFAULT '',
    repeats INTEGER NOT NULL,
    start_ns INTEGER NOT NULL,      -- Unix nanoseconds
    duration_ns INTEGER NOT NULL,
    total_triangles INTEGER NOT NULL,
    result TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_software ON runs(software, start_ns);
CREATE INDEX IF NOT EXISTS idx_runs_test_case ON runs(test_case, start_ns);

-- Per-scenario figures, for trends without decoding the result JSON.
CREATE TABLE IF NOT EXISTS scenarios (
    run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    key TEXT NOT NULL,
    description TEXT NOT NULL,
    maxh REAL,                      -- NULL when no size hint was given
    num_points INTEGER NOT NULL,
    num_triangles INTEGER NOT NULL,
    elapsed_ns INTEGER NOT NULL,
    throughput REAL NOT NULL,
    min_angle_min REAL,
    min_angle_mean REAL,
    aspect_median REAL,             -- NULL when infinite
    area_coverage REAL NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_scenarios_key ON scenarios(key);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
