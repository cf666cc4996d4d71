// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/meshbench/internal/benchmark"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound      = errors.New("run not found")
	ErrAmbiguous     = errors.New("run id prefix is ambiguous")
	ErrDuplicate     = errors.New("run already recorded")
	ErrDatabaseError = errors.New("database error")
)

// MinPrefix is the shortest run id prefix Get accepts.
const MinPrefix = 4

// =============================================================================
// STORE
// =============================================================================

// Store is the run history database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// RunSummary is one line of the run list.
type RunSummary struct {
	RunID          string
	Software       string
	TestCase       string
	Fingerprint    string
	Repeats        int
	StartTime      time.Time
	Duration       time.Duration
	TotalTriangles int
	NumScenarios   int
}

// ListOptions filters List. Empty fields match everything.
type ListOptions struct {
	Software string
	TestCase string
	// Limit caps the number of runs; 0 means no limit.
	Limit int
}

// TrendPoint is one scenario measurement of a past run.
type TrendPoint struct {
	RunID        string
	StartTime    time.Time
	Elapsed      time.Duration
	NumTriangles int
	Throughput   float64
	// MinAngleMean is NaN when the run had no angle statistics.
	MinAngleMean float64
}

// Open opens or creates the history database at path. ":memory:" opens a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// WRITING
// =============================================================================

// Record stores a suite result. Meshes are not stored.
func (s *Store) Record(ctx context.Context, r *benchmark.SuiteResult) error {
	if r == nil || r.RunID == "" {
		return fmt.Errorf("%w: result has no run id", ErrDatabaseError)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE run_id = ?", r.RunID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, r.RunID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, software, test_case, fingerprint, repeats, start_ns, duration_ns, total_triangles, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Software, r.TestCase, r.Fingerprint, r.Repeats,
		r.StartTime.UnixNano(), int64(r.Duration), r.TotalTriangles(), string(data))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range r.Scenarios {
		sc := &r.Scenarios[i]
		var maxh, angleMin, angleMean, aspect sql.NullFloat64
		if v, ok := sc.MaxH(); ok {
			maxh = nullable(v)
		}
		if q := sc.Quality; q != nil && q.MinAngle.Count > 0 {
			angleMin = nullable(float64(q.MinAngle.Min))
			angleMean = nullable(float64(q.MinAngle.Mean))
		}
		if q := sc.Quality; q != nil && q.AspectRatio.Count > 0 {
			aspect = nullable(float64(q.AspectRatio.Median))
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO scenarios (run_id, seq, key, description, maxh, num_points, num_triangles,
				elapsed_ns, throughput, min_angle_min, min_angle_mean, aspect_median, area_coverage)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, i, sc.Key, sc.Description, maxh, sc.NumPoints, sc.NumTriangles,
			int64(sc.Elapsed), sc.Throughput, angleMin, angleMean, aspect, sc.AreaCoverage)
		if err != nil {
			return fmt.Errorf("failed to insert scenario %s: %w", sc.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// nullable maps non-finite values to NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Delete removes a run by id or unique prefix.
func (s *Store) Delete(ctx context.Context, id string) error {
	runID, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Prune keeps the newest keep runs and deletes the rest. It returns the
// number of runs deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY start_ns DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return res.RowsAffected()
}

// =============================================================================
// READING
// =============================================================================

// List returns run summaries, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]RunSummary, error) {
	query := `
		SELECT r.run_id, r.software, r.test_case, r.fingerprint, r.repeats, r.start_ns,
			r.duration_ns, r.total_triangles,
			(SELECT COUNT(*) FROM scenarios s WHERE s.run_id = r.run_id)
		FROM runs r`

	var where []string
	var args []any
	if opts.Software != "" {
		where = append(where, "r.software = ?")
		args = append(args, opts.Software)
	}
	if opts.TestCase != "" {
		where = append(where, "r.test_case = ?")
		args = append(args, opts.TestCase)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.start_ns DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var startNS, durationNS int64
		if err := rows.Scan(&rs.RunID, &rs.Software, &rs.TestCase, &rs.Fingerprint, &rs.Repeats,
			&startNS, &durationNS, &rs.TotalTriangles, &rs.NumScenarios); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		rs.StartTime = time.Unix(0, startNS)
		rs.Duration = time.Duration(durationNS)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Get returns the stored result of a run, by full id or a unique prefix of
// at least MinPrefix characters.
func (s *Store) Get(ctx context.Context, id string) (*benchmark.SuiteResult, error) {
	runID, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	var data string
	err = s.db.QueryRowContext(ctx, "SELECT result FROM runs WHERE run_id = ?", runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return decode(data)
}

// Latest returns the newest run of software, optionally restricted to a test
// case.
func (s *Store) Latest(ctx context.Context, software, testCase string) (*benchmark.SuiteResult, error) {
	runs, err := s.List(ctx, ListOptions{Software: software, TestCase: testCase, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no runs for %q", ErrNotFound, software)
	}
	return s.Get(ctx, runs[0].RunID)
}

// Trend returns the measurements of one scenario key across the runs of
// software, newest first.
func (s *Store) Trend(ctx context.Context, software, key string, limit int) ([]TrendPoint, error) {
	query := `
		SELECT r.run_id, r.start_ns, s.elapsed_ns, s.num_triangles, s.throughput, s.min_angle_mean
		FROM scenarios s JOIN runs r ON r.run_id = s.run_id
		WHERE r.software = ? AND s.key = ?
		ORDER BY r.start_ns DESC`
	args := []any{software, key}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var p TrendPoint
		var startNS, elapsedNS int64
		var mean sql.NullFloat64
		if err := rows.Scan(&p.RunID, &startNS, &elapsedNS, &p.NumTriangles, &p.Throughput, &mean); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		p.StartTime = time.Unix(0, startNS)
		p.Elapsed = time.Duration(elapsedNS)
		p.MinAngleMean = math.NaN()
		if mean.Valid {
			p.MinAngleMean = mean.Float64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// resolve expands a run id prefix to the full id.
func (s *Store) resolve(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if len(id) < MinPrefix {
		return "", fmt.Errorf("%w: %q is shorter than %d characters", ErrNotFound, id, MinPrefix)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id FROM runs WHERE substr(run_id, 1, ?) = ? LIMIT 2", len(id), id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		ids = append(ids, runID)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrAmbiguous, id)
}

func decode(data string) (*benchmark.SuiteResult, error) {
	var r benchmark.SuiteResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	return &r, nil
}
