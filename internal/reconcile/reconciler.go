package reconcile

import (
	"log/slog"

	"github.com/gagneet/ledgerflow/internal/model"
)

// Stats summarizes one reconciliation run.
type Stats struct {
	TotalInput             int
	ExactDuplicatesRemoved int
	TransfersFound         int
	FinalUniqueCount       int
}

// Result holds the full outcome of reconciling one batch.
type Result struct {
	// Unique holds deduplicated records with transfer legs removed; this is
	// the set posted as withdrawals and deposits.
	Unique []model.Transaction
	// AllClean holds deduplicated records including transfer legs.
	AllClean   []model.Transaction
	Duplicates []model.DuplicatePair
	Transfers  []model.TransferPair
	Stats      Stats
}

// Reconciler runs the duplicate detector and transfer matcher over a batch.
// It holds no state across batches; identical input and configuration yield
// identical output.
type Reconciler struct {
	cfg Config
}

// New creates a reconciler, validating the configuration up front.
func New(cfg Config) (*Reconciler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Reconciler{cfg: cfg}, nil
}

// Config returns the reconciler's configuration.
func (r *Reconciler) Config() Config {
	return r.cfg
}

// Reconcile partitions a batch into unique records, exact duplicates, and
// transfer pairs. Re-running it on a previous run's AllClean output finds
// zero new duplicates and zero new transfers among already-resolved pairs,
// so overlapping statement imports are safe to repeat.
func (r *Reconciler) Reconcile(batch []model.Transaction) Result {
	allClean, duplicates := FindDuplicates(batch)
	transfers := FindTransfers(allClean, r.cfg)

	transferLegs := make(map[string]bool, len(transfers)*2)
	for _, pair := range transfers {
		transferLegs[pair.Outflow.Identity] = true
		transferLegs[pair.Inflow.Identity] = true
	}

	unique := make([]model.Transaction, 0, len(allClean))
	for _, txn := range allClean {
		if !transferLegs[txn.Identity] {
			unique = append(unique, txn)
		}
	}

	stats := Stats{
		TotalInput:             len(batch),
		ExactDuplicatesRemoved: len(duplicates),
		TransfersFound:         len(transfers),
		FinalUniqueCount:       len(unique),
	}

	slog.Info("Reconciled batch",
		"total_input", stats.TotalInput,
		"duplicates_removed", stats.ExactDuplicatesRemoved,
		"transfers_found", stats.TransfersFound,
		"final_unique", stats.FinalUniqueCount)

	return Result{
		Unique:     unique,
		AllClean:   allClean,
		Duplicates: duplicates,
		Transfers:  transfers,
		Stats:      stats,
	}
}
