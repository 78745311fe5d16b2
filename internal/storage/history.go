package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/shopspring/decimal"
)

// SaveRun records the start of an import run.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.ImportRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run must have an ID")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, source, started_at, total_input)
		VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, run.StartedAt, run.TotalInput)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// CompleteRun records the final statistics for a finished run.
func (s *SQLiteStorage) CompleteRun(ctx context.Context, run *model.ImportRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run must have an ID")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE import_runs
		SET completed_at = ?, duplicates_removed = ?, transfers_found = ?, posted = ?, skipped = ?
		WHERE id = ?`,
		run.CompletedAt, run.DuplicatesRemoved, run.TransfersFound, run.Posted, run.Skipped, run.ID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", common.ErrNotFound, run.ID)
	}
	return nil
}

// GetRun fetches one import run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.ImportRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, started_at, completed_at, total_input,
		       duplicates_removed, transfers_found, posted, skipped
		FROM import_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, started_at, completed_at, total_input,
		       duplicates_removed, transfers_found, posted, skipped
		FROM import_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.ImportRun
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan run: %w", scanErr)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// RecordPosting remembers that a posting with this identity was submitted.
// Recording the same identity twice is a no-op, not an error.
func (s *SQLiteStorage) RecordPosting(ctx context.Context, runID string, posting model.Posting) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO posted_records
			(identity, run_id, posting_type, description, source_account, destination_account, category, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		posting.ExternalID, runID, string(posting.Type), posting.Description,
		posting.Source, posting.Destination, posting.Category, posting.Amount.StringFixed(2))
	if err != nil {
		return fmt.Errorf("failed to record posting: %w", err)
	}
	return nil
}

// WasPosted reports whether a posting with this identity was ever submitted.
func (s *SQLiteStorage) WasPosted(ctx context.Context, identity string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posted_records WHERE identity = ?`, identity).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check posting history: %w", err)
	}
	return count > 0, nil
}

// RecordSkipped adds a skipped record to the run's audit trail.
func (s *SQLiteStorage) RecordSkipped(ctx context.Context, runID, description, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skipped_records (run_id, description, reason)
		VALUES (?, ?, ?)`,
		runID, description, reason)
	if err != nil {
		return fmt.Errorf("failed to record skipped record: %w", err)
	}
	return nil
}

// PostingsForRun returns everything posted in one run, in submission order.
func (s *SQLiteStorage) PostingsForRun(ctx context.Context, runID string) ([]model.Posting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, posting_type, description, source_account, destination_account, category, amount
		FROM posted_records WHERE run_id = ? ORDER BY posted_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var postings []model.Posting
	for rows.Next() {
		var p model.Posting
		var postingType, amount string
		if err := rows.Scan(&p.ExternalID, &postingType, &p.Description,
			&p.Source, &p.Destination, &p.Category, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		p.Type = model.PostingType(postingType)
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.ImportRun, error) {
	var run model.ImportRun
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Source, &run.StartedAt, &completedAt,
		&run.TotalInput, &run.DuplicatesRemoved, &run.TransfersFound,
		&run.Posted, &run.Skipped)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return &run, nil
}
