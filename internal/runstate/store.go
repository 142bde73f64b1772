package runstate

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"surfbatch/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users clear the database after a mismatch.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run-state database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "runstate.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginRun records a new batch run and returns it.
func (s *Store) BeginRun(ctx context.Context, outputDir string, totalSubjects int) (*Run, error) {
	run := &Run{
		ID:            uuid.NewString(),
		OutputDir:     outputDir,
		StartedAt:     time.Now().UTC(),
		TotalSubjects: totalSubjects,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, output_dir, started_at, total_subjects) VALUES (?, ?, ?, ?)`,
		run.ID, run.OutputDir, run.StartedAt.Format(time.RFC3339Nano), run.TotalSubjects,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's completion time and final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, succeeded, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, succeeded_subjects = ?, failed_subjects = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), succeeded, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// StartSubject records a subject entering processing and returns the record ID.
func (s *Store) StartSubject(ctx context.Context, runID, subjectID, outputDir string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subject_results (run_id, subject_id, output_dir, status, started_at)
         VALUES (?, ?, ?, ?, ?)`,
		runID, subjectID, outputDir, StatusProcessing, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert subject result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishSubject records a subject's final outcome.
func (s *Store) FinishSubject(ctx context.Context, id int64, status Status, attempted, succeeded, failed int, errorMessage string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE subject_results
         SET status = ?, attempted_units = ?, succeeded_units = ?, failed_units = ?,
             error_message = ?, finished_at = ?
         WHERE id = ?`,
		status, attempted, succeeded, failed, errorMessage,
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("finish subject result: %w", err)
	}
	return nil
}

// WasCompleted reports whether the subject has a completed record with zero
// failed units for the same output tree in any prior run.
func (s *Store) WasCompleted(ctx context.Context, subjectID, outputDir string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM subject_results
         WHERE subject_id = ? AND output_dir = ? AND status = ? AND failed_units = 0`,
		subjectID, outputDir, StatusCompleted,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query completed subject: %w", err)
	}
	return count > 0, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, output_dir, started_at, finished_at, total_subjects, succeeded_subjects, failed_subjects
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.OutputDir, &startedAt, &finishedAt,
			&run.TotalSubjects, &run.SucceededSubjects, &run.FailedSubjects); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse run started_at: %w", err)
		}
		if finishedAt.Valid {
			parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse run finished_at: %w", err)
			}
			run.FinishedAt = &parsed
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SubjectsForRun returns all subject records for a run in insertion order.
func (s *Store) SubjectsForRun(ctx context.Context, runID string) ([]SubjectRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, subject_id, output_dir, status, attempted_units,
                succeeded_units, failed_units, error_message, started_at, finished_at
         FROM subject_results WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subject results: %w", err)
	}
	defer rows.Close()

	var records []SubjectRecord
	for rows.Next() {
		var (
			rec        SubjectRecord
			status     string
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.SubjectID, &rec.OutputDir, &status,
			&rec.AttemptedUnits, &rec.SucceededUnits, &rec.FailedUnits,
			&rec.ErrorMessage, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan subject result: %w", err)
		}
		if parsed, ok := ParseStatus(status); ok {
			rec.Status = parsed
		} else {
			rec.Status = StatusFailed
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse subject started_at: %w", err)
		}
		if finishedAt.Valid {
			parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse subject finished_at: %w", err)
			}
			rec.FinishedAt = &parsed
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
