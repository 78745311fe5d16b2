// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/gagneet/ledgerflow/internal/model"
)

// Storage defines the contract for the import-history audit trail. The
// reconciliation core never touches it; only the submission layer does.
type Storage interface {
	SaveRun(ctx context.Context, run *model.ImportRun) error
	CompleteRun(ctx context.Context, run *model.ImportRun) error
	GetRun(ctx context.Context, id string) (*model.ImportRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.ImportRun, error)

	RecordPosting(ctx context.Context, runID string, posting model.Posting) error
	WasPosted(ctx context.Context, identity string) (bool, error)
	RecordSkipped(ctx context.Context, runID, description, reason string) error

	Migrate(ctx context.Context) error
	Close() error
}

// PostingResult describes the ledger service's response to one posting.
type PostingResult struct {
	LedgerID  string
	Duplicate bool // The ledger already holds a posting with this external ID
}

// LedgerClient defines the contract for the external double-entry ledger
// service that receives reconciled postings.
type LedgerClient interface {
	TestConnection(ctx context.Context) error
	EnsureAccount(ctx context.Context, name string, classification model.AccountClassification) (string, error)
	CreatePosting(ctx context.Context, posting model.Posting) (*PostingResult, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
