// Package history persists migration runs to SQLite so past batches can
// be listed and audited after the process exits.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stackshift/internal/engine"
	"stackshift/internal/migration"
	"stackshift/internal/rules"
)

type Store struct {
	db *sql.DB
}

// NewStore creates or opens the run database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source_framework TEXT,
			target_framework TEXT,
			total_files INTEGER,
			successful INTEGER,
			requires_review INTEGER,
			files_with_errors INTEGER,
			average_confidence REAL,
			total_warnings INTEGER,
			warnings JSON,
			plan JSON
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT,
			path TEXT,
			new_path TEXT,
			confidence REAL,
			risk_score REAL,
			requires_review INTEGER,
			success INTEGER,
			violations JSON,
			warnings JSON,
			applied JSON,
			diff TEXT,
			PRIMARY KEY (run_id, path)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Run is one recorded batch, as listed by ListRuns.
type Run struct {
	ID              string
	CreatedAt       time.Time
	SourceFramework string
	TargetFramework string
	Stats           engine.BatchStats
	Warnings        []string
}

// Result is one recorded file outcome within a run.
type Result struct {
	RunID          string
	Path           string
	NewPath        string
	Confidence     float64
	RiskScore      float64
	RequiresReview bool
	Success        bool
	Violations     []rules.Violation
	Warnings       []string
	Applied        []string
	Diff           string
}

// SaveRun records a batch and all its per-file results in one
// transaction. Saving the same job id again replaces the earlier record.
func (s *Store) SaveRun(ctx context.Context, spec *migration.Specification, batch *engine.BatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	warnings, _ := json.Marshal(batch.Warnings)
	plan, _ := json.Marshal(batch.PlanActions)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, source_framework, target_framework,
			total_files, successful, requires_review, files_with_errors,
			average_confidence, total_warnings, warnings, plan)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at=excluded.created_at,
			source_framework=excluded.source_framework,
			target_framework=excluded.target_framework,
			total_files=excluded.total_files,
			successful=excluded.successful,
			requires_review=excluded.requires_review,
			files_with_errors=excluded.files_with_errors,
			average_confidence=excluded.average_confidence,
			total_warnings=excluded.total_warnings,
			warnings=excluded.warnings,
			plan=excluded.plan
	`, batch.JobID, time.Now().UTC().Format(time.RFC3339), spec.Source.Framework, spec.Target.Framework,
		batch.Stats.TotalFiles, batch.Stats.Successful, batch.Stats.RequiresReview, batch.Stats.FilesWithErrors,
		batch.Stats.AverageConfidence, batch.Stats.TotalWarnings, warnings, plan)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM results WHERE run_id = ?", batch.JobID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, path, new_path, confidence, risk_score,
			requires_review, success, violations, warnings, applied, diff)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for path, r := range batch.Results {
		violations, _ := json.Marshal(r.Violations)
		fileWarnings, _ := json.Marshal(r.Warnings)
		applied, _ := json.Marshal(r.Metadata.Applied)
		if _, err := stmt.Exec(batch.JobID, path, r.NewPath,
			r.Metadata.Confidence, r.Metadata.RiskScore, r.Metadata.RequiresReview,
			r.Success, violations, fileWarnings, applied, r.Diff); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source_framework, target_framework,
			total_files, successful, requires_review, files_with_errors,
			average_confidence, total_warnings, warnings
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		var warnings []byte
		if err := rows.Scan(&r.ID, &createdAt, &r.SourceFramework, &r.TargetFramework,
			&r.Stats.TotalFiles, &r.Stats.Successful, &r.Stats.RequiresReview, &r.Stats.FilesWithErrors,
			&r.Stats.AverageConfidence, &r.Stats.TotalWarnings, &warnings); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		if len(warnings) > 0 {
			_ = json.Unmarshal(warnings, &r.Warnings)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns every file outcome recorded for a run, ordered by path.
func (s *Store) RunResults(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, path, new_path, confidence, risk_score,
			requires_review, success, violations, warnings, applied, diff
		FROM results WHERE run_id = ? ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var violations, warnings, applied []byte
		if err := rows.Scan(&r.RunID, &r.Path, &r.NewPath, &r.Confidence, &r.RiskScore,
			&r.RequiresReview, &r.Success, &violations, &warnings, &applied, &r.Diff); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if len(violations) > 0 {
			_ = json.Unmarshal(violations, &r.Violations)
		}
		if len(warnings) > 0 {
			_ = json.Unmarshal(warnings, &r.Warnings)
		}
		if len(applied) > 0 {
			_ = json.Unmarshal(applied, &r.Applied)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
