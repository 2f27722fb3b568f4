// Package store persists comparison jobs and their results in PostgreSQL.
//
// It requires a `compare_jobs` table:
//
//	CREATE TABLE compare_jobs (
//	    id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//	    tuple_size   INT NOT NULL,
//	    synonyms     TEXT NOT NULL,
//	    reference    TEXT NOT NULL,
//	    candidate    TEXT NOT NULL,
//	    status       TEXT NOT NULL DEFAULT 'PENDING',
//	    percent      TEXT,
//	    ratio        DOUBLE PRECISION,
//	    matched      INT,
//	    total        INT,
//	    failure      TEXT,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    completed_at TIMESTAMPTZ
//	);
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/jobs"
	apperrors "github.com/synocheck/synocheck/pkg/errors"
	"github.com/synocheck/synocheck/pkg/postgres"
)

// JobRecord is one row of comparison history.
type JobRecord struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	TupleSize   int        `json:"tuple_size"`
	Percent     string     `json:"percent,omitempty"`
	Ratio       float64    `json:"ratio"`
	Matched     int        `json:"matched"`
	Total       int        `json:"total"`
	Failure     string     `json:"failure,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Store persists comparison jobs in PostgreSQL.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a job store.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "job-store"),
	}
}

// CreateJob inserts a PENDING job row and returns its generated id.
func (s *Store) CreateJob(ctx context.Context, req *compare.Request) (string, error) {
	var id string
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`INSERT INTO compare_jobs (tuple_size, synonyms, reference, candidate, status)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			req.TupleSize, req.Synonyms, req.Reference, req.Candidate, jobs.StatusPending,
		).Scan(&id)
	})
	if err != nil {
		return "", fmt.Errorf("inserting compare job: %w", err)
	}
	return id, nil
}

// MarkCompleted stores a finished report and flips the job to DONE.
func (s *Store) MarkCompleted(ctx context.Context, id string, report *compare.Report) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE compare_jobs
		 SET status = $1, percent = $2, ratio = $3, matched = $4, total = $5, completed_at = NOW()
		 WHERE id = $6`,
		jobs.StatusDone, report.Percent, report.Ratio, report.Matched, report.Total, id,
	)
	if err != nil {
		return fmt.Errorf("marking job %s completed: %w", id, err)
	}
	return nil
}

// MarkFailed records a failure reason and flips the job to FAILED.
func (s *Store) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE compare_jobs
		 SET status = $1, failure = $2, completed_at = NOW()
		 WHERE id = $3`,
		jobs.StatusFailed, reason, id,
	)
	if err != nil {
		return fmt.Errorf("marking job %s failed: %w", id, err)
	}
	return nil
}

// GetJob loads one job by id. Returns ErrJobNotFound for unknown ids.
func (s *Store) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	row := s.db.DB.QueryRowContext(ctx,
		`SELECT id, status, tuple_size, percent, ratio, matched, total, failure, created_at, completed_at
		 FROM compare_jobs WHERE id = $1`, id)
	rec, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.Newf(apperrors.ErrJobNotFound, 404, "job %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying job %s: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns the newest jobs first, up to limit.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]JobRecord, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, status, tuple_size, percent, ratio, matched, total, failure, created_at, completed_at
		 FROM compare_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*JobRecord, error) {
	var rec JobRecord
	var percent, failure sql.NullString
	var ratio sql.NullFloat64
	var matched, total sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(
		&rec.ID, &rec.Status, &rec.TupleSize,
		&percent, &ratio, &matched, &total, &failure,
		&rec.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Percent = percent.String
	rec.Ratio = ratio.Float64
	rec.Matched = int(matched.Int64)
	rec.Total = int(total.Int64)
	rec.Failure = failure.String
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}
