// Package store handles SQLite persistence of extraction runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/cbminer/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNoRuns is returned when the database holds no extraction run.
var ErrNoRuns = errors.New("no extraction runs stored")

// Store wraps SQLite access for extraction results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			dataset TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			issues INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			run_id TEXT NOT NULL,
			term TEXT NOT NULL,
			class INTEGER NOT NULL,
			student INTEGER NOT NULL,
			activity INTEGER NOT NULL,
			exercise INTEGER NOT NULL,
			submissions INTEGER NOT NULL,
			tests INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			exec_time REAL,
			final_grade REAL,
			accepted INTEGER NOT NULL,
			malformed INTEGER NOT NULL,
			accepted_source TEXT,
			total_ms INTEGER,
			focused_ms INTEGER,
			code_origin TEXT NOT NULL,
			metrics TEXT,
			tokens TEXT,
			PRIMARY KEY (run_id, term, class, student, activity, exercise)
		);`,
		`CREATE TABLE IF NOT EXISTS attempt_errors (
			run_id TEXT NOT NULL,
			term TEXT NOT NULL,
			class INTEGER NOT NULL,
			student INTEGER NOT NULL,
			activity INTEGER NOT NULL,
			exercise INTEGER NOT NULL,
			error_type TEXT NOT NULL,
			occurrences INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempt_issues (
			run_id TEXT NOT NULL,
			term TEXT NOT NULL,
			class INTEGER NOT NULL,
			student INTEGER NOT NULL,
			activity INTEGER NOT NULL,
			exercise INTEGER NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS classes (
			run_id TEXT NOT NULL,
			term TEXT NOT NULL,
			code INTEGER NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (run_id, term, code)
		);`,
		`CREATE TABLE IF NOT EXISTS activities (
			run_id TEXT NOT NULL,
			term TEXT NOT NULL,
			class INTEGER NOT NULL,
			code INTEGER NOT NULL,
			title TEXT NOT NULL,
			starts_at TEXT NOT NULL,
			ends_at TEXT NOT NULL,
			kind TEXT NOT NULL,
			weight REAL,
			PRIMARY KEY (run_id, term, class, code)
		);`,
		`CREATE TABLE IF NOT EXISTS students (
			run_id TEXT NOT NULL,
			term TEXT NOT NULL,
			class INTEGER NOT NULL,
			code INTEGER NOT NULL,
			course_id TEXT NOT NULL,
			course_name TEXT NOT NULL,
			institution_id TEXT NOT NULL,
			high_school_name TEXT NOT NULL,
			school_type TEXT NOT NULL,
			school_shift TEXT NOT NULL,
			graduation_year TEXT NOT NULL,
			sex TEXT NOT NULL,
			birth_year TEXT NOT NULL,
			civil_status TEXT NOT NULL,
			has_kids TEXT NOT NULL,
			PRIMARY KEY (run_id, term, class, code)
		);`,
		`CREATE TABLE IF NOT EXISTS solutions (
			run_id TEXT NOT NULL,
			exercise INTEGER NOT NULL,
			path TEXT NOT NULL,
			metrics TEXT NOT NULL,
			tokens TEXT NOT NULL,
			PRIMARY KEY (run_id, exercise)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_attempt_errors_run ON attempt_errors(run_id, error_type);`,
		`CREATE INDEX IF NOT EXISTS idx_attempt_issues_run ON attempt_issues(run_id, kind);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun records a new extraction run and returns its id.
func (s *Store) BeginRun(ctx context.Context, dataset string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, dataset) VALUES (?, ?, ?)`,
		id, startedAt.Format(time.RFC3339Nano), dataset)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun stores the totals of a completed run.
func (s *Store) FinishRun(ctx context.Context, id string, finishedAt time.Time, attempts, issues int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, attempts = ?, issues = ? WHERE id = ?`,
		finishedAt.Format(time.RFC3339Nano), attempts, issues, id)
	return err
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, dataset, attempts, issues FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Dataset, &run.Attempts, &run.Issues); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		run.StartedAt = parsed
		if finishedAt.Valid {
			parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String)
			if err != nil {
				return nil, err
			}
			run.FinishedAt = &parsed
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ResolveRun returns id when set, otherwise the id of the newest run.
func (s *Store) ResolveRun(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	var latest string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", err
	}
	return latest, nil
}
