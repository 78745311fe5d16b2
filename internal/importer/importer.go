// Package importer orchestrates a full import: reconcile the batch, ensure
// ledger accounts exist, and submit postings with the audit trail recorded.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/gagneet/ledgerflow/internal/ledger"
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/gagneet/ledgerflow/internal/reconcile"
	"github.com/gagneet/ledgerflow/internal/rules"
	"github.com/gagneet/ledgerflow/internal/service"
	"github.com/google/uuid"
)

// Importer coordinates reconciliation, classification, and submission.
type Importer struct {
	storage    service.Storage
	ledger     service.LedgerClient
	reconciler *reconcile.Reconciler
	classifier *ledger.Classifier
	categories []rules.CategoryRule
	retryOpts  service.RetryOptions
	progress   func(done, total int)
}

// Config holds configuration options for the importer.
type Config struct {
	Categories []rules.CategoryRule
	Retry      service.RetryOptions
	// Progress is called after every submitted posting; nil disables it.
	Progress func(done, total int)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Categories: rules.DefaultCategoryRules(),
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// RunStats summarizes one import run.
type RunStats struct {
	RunID             string
	TotalInput        int
	DuplicatesRemoved int
	TransfersFound    int
	Posted            int
	LedgerDuplicates  int
	AlreadyPosted     int
	Skipped           int
	Errors            int
}

// New creates an importer with default configuration.
func New(storage service.Storage, client service.LedgerClient, reconciler *reconcile.Reconciler, classifier *ledger.Classifier) *Importer {
	return NewWithConfig(storage, client, reconciler, classifier, DefaultConfig())
}

// NewWithConfig creates an importer with custom configuration.
func NewWithConfig(storage service.Storage, client service.LedgerClient, reconciler *reconcile.Reconciler, classifier *ledger.Classifier, config Config) *Importer {
	if config.Categories == nil {
		config.Categories = rules.DefaultCategoryRules()
	}
	return &Importer{
		storage:    storage,
		ledger:     client,
		reconciler: reconciler,
		classifier: classifier,
		categories: config.Categories,
		retryOpts:  config.Retry,
		progress:   config.Progress,
	}
}

// Run reconciles and imports one batch, recording the run in the audit
// trail. Individual posting failures are counted, not fatal; the run only
// fails outright when the ledger is unreachable or the audit trail cannot
// be written.
func (i *Importer) Run(ctx context.Context, source string, batch []model.Transaction) (*RunStats, error) {
	if err := i.ledger.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("ledger connection check failed: %w", err)
	}

	run := &model.ImportRun{
		ID:         uuid.NewString(),
		Source:     source,
		StartedAt:  time.Now(),
		TotalInput: len(batch),
	}
	if err := i.storage.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record import run: %w", err)
	}

	result := i.reconciler.Reconcile(batch)

	stats := &RunStats{
		RunID:             run.ID,
		TotalInput:        result.Stats.TotalInput,
		DuplicatesRemoved: result.Stats.ExactDuplicatesRemoved,
		TransfersFound:    result.Stats.TransfersFound,
	}

	if err := i.ensureAccounts(ctx, result); err != nil {
		return nil, err
	}

	total := len(result.Transfers) + len(result.Unique)
	done := 0

	for _, pair := range result.Transfers {
		i.submit(ctx, run.ID, i.classifier.ClassifyTransfer(pair), stats)
		done++
		i.reportProgress(done, total)
	}

	for _, txn := range result.Unique {
		// Zero-amount records (fee waivers and the like) carry no value
		if txn.Amount.IsZero() {
			slog.Info("Skipping zero-amount record", "description", txn.Description)
			stats.Skipped++
			if err := i.storage.RecordSkipped(ctx, run.ID, txn.Description, "zero amount"); err != nil {
				slog.Warn("Failed to record skipped record", "error", err)
			}
			done++
			i.reportProgress(done, total)
			continue
		}

		if txn.Category == "" {
			txn.Category = rules.Categorize(txn, i.categories)
		}

		classification := i.classifier.ClassifyAccount(txn.Account)
		i.submit(ctx, run.ID, i.classifier.ClassifyTransaction(txn, classification), stats)
		done++
		i.reportProgress(done, total)
	}

	run.CompletedAt = time.Now()
	run.DuplicatesRemoved = stats.DuplicatesRemoved
	run.TransfersFound = stats.TransfersFound
	run.Posted = stats.Posted
	run.Skipped = stats.Skipped
	if err := i.storage.CompleteRun(ctx, run); err != nil {
		slog.Warn("Failed to mark run complete", "run_id", run.ID, "error", err)
	}

	slog.Info("Import run finished",
		"run_id", run.ID,
		"posted", stats.Posted,
		"ledger_duplicates", stats.LedgerDuplicates,
		"already_posted", stats.AlreadyPosted,
		"skipped", stats.Skipped,
		"errors", stats.Errors)

	return stats, nil
}

// submit posts one record, consulting the local history first so re-imports
// never hit the ledger twice for the same identity.
func (i *Importer) submit(ctx context.Context, runID string, posting model.Posting, stats *RunStats) {
	posted, err := i.storage.WasPosted(ctx, posting.ExternalID)
	if err != nil {
		slog.Warn("History lookup failed, deferring to ledger dedup",
			"external_id", posting.ExternalID,
			"error", err)
	}
	if posted {
		stats.AlreadyPosted++
		return
	}

	var result *service.PostingResult
	err = common.WithRetry(ctx, func() error {
		var opErr error
		result, opErr = i.ledger.CreatePosting(ctx, posting)
		return opErr
	}, i.retryOpts)
	if err != nil {
		slog.Error("Failed to submit posting",
			"description", posting.Description,
			"external_id", posting.ExternalID,
			"error", err)
		stats.Errors++
		return
	}

	if result.Duplicate {
		stats.LedgerDuplicates++
	} else {
		stats.Posted++
	}

	if err := i.storage.RecordPosting(ctx, runID, posting); err != nil {
		slog.Warn("Failed to record posting in history",
			"external_id", posting.ExternalID,
			"error", err)
	}
}

// ensureAccounts creates every statement account the batch touches before
// any posting is submitted.
func (i *Importer) ensureAccounts(ctx context.Context, result reconcile.Result) error {
	seen := make(map[string]bool)
	var names []string

	collect := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, txn := range result.Unique {
		collect(txn.Account)
	}
	for _, pair := range result.Transfers {
		collect(pair.Outflow.Account)
		collect(pair.Inflow.Account)
	}

	for _, name := range names {
		classification := i.classifier.ClassifyAccount(name)
		if !classification.Matched {
			slog.Debug("Account matched no rule, defaulting to asset", "account", name)
		}
		if _, err := i.ledger.EnsureAccount(ctx, name, classification); err != nil {
			return fmt.Errorf("failed to ensure account %q: %w", name, err)
		}
	}

	return nil
}

func (i *Importer) reportProgress(done, total int) {
	if i.progress != nil {
		i.progress(done, total)
	}
}
