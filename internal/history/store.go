// Package history keeps a SQLite ledger of capture batches.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// timeLayout sorts lexically, which RFC3339Nano does not.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Run struct {
	ID        string
	StartedAt time.Time
	Elapsed   time.Duration
	Total     int
	Failed    int
	Error     string
}

type Capture struct {
	Path       string
	OutputPath string
	Elapsed    time.Duration
	Error      string
}

// Store manages the capture ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores one batch and each of its captures in a single
// transaction.
func (s *Store) RecordRun(ctx context.Context, report core.CaptureReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, elapsed_ms, total, failed, error) VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Started.UTC().Format(timeLayout),
		report.Elapsed.Milliseconds(),
		len(report.Results),
		report.Failed(),
		errorText(report.Err),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, res := range report.Results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO captures (run_id, path, output_path, elapsed_ms, error) VALUES (?, ?, ?, ?, ?)`,
			report.RunID,
			res.Spec.Path,
			res.OutputPath,
			res.Elapsed.Milliseconds(),
			errorText(res.Err),
		)
		if err != nil {
			return fmt.Errorf("insert capture %s: %w", res.Spec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, elapsed_ms, total, failed, error FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			startedAt string
			elapsedMS int64
			errText   sql.NullString
		)
		if err := rows.Scan(&run.ID, &startedAt, &elapsedMS, &run.Total, &run.Failed, &errText); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		run.Error = errText.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Captures(ctx context.Context, runID string) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, output_path, elapsed_ms, error FROM captures WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var (
			c         Capture
			elapsedMS int64
			errText   sql.NullString
		)
		if err := rows.Scan(&c.Path, &c.OutputPath, &elapsedMS, &errText); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		c.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		c.Error = errText.String
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

func errorText(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}
