package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/gagneet/ledgerflow/internal/firefly"
	"github.com/gagneet/ledgerflow/internal/importer"
	"github.com/gagneet/ledgerflow/internal/ingest"
	"github.com/gagneet/ledgerflow/internal/ledger"
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/gagneet/ledgerflow/internal/ofx"
	"github.com/gagneet/ledgerflow/internal/reconcile"
	"github.com/gagneet/ledgerflow/internal/rules"
	"github.com/gagneet/ledgerflow/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Reconcile statement exports and post them to the ledger",
		Long: `Import transactions from OFX/QFX or CSV statement exports.

Records are deduplicated, internal transfers are paired into single
ledger transfers, and everything else is posted as a withdrawal or
deposit with liability sign handling applied.

Examples:
  # Import one statement
  ledgerflow import ~/Downloads/ubank_april.ofx

  # Import several exports in one run
  ledgerflow import ~/statements/*.qfx ~/statements/amex.csv

  # Preview without posting anything
  ledgerflow import --dry-run ~/statements/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Reconcile and report without posting to the ledger")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	batch, err := loadTransactions(ctx, args)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return common.NewUserError("no transactions found in any file", nil)
	}

	reconciler, err := newReconciler()
	if err != nil {
		return err
	}

	if dryRun {
		result := reconciler.Reconcile(batch)
		fmt.Print(reconcile.BuildReport(result))
		slog.Info("Dry run complete - nothing posted")
		return nil
	}

	classifier, err := ledger.NewClassifier(rules.DefaultAccountRules(), rules.DefaultMerchantRules())
	if err != nil {
		return err
	}

	client, err := firefly.NewClient(viper.GetString("firefly.url"), viper.GetString("firefly.token"))
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(expandPath(viper.GetString("database.path")))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var bar *progressbar.ProgressBar
	config := importer.DefaultConfig()
	config.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "posting")
		}
		_ = bar.Set(done)
	}

	imp := importer.NewWithConfig(store, client, reconciler, classifier, config)

	source := strings.Join(baseNames(args), ",")
	stats, err := imp.Run(ctx, source, batch)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Import complete:")
	fmt.Printf("  Run ID:            %s\n", stats.RunID)
	fmt.Printf("  Total input:       %d\n", stats.TotalInput)
	fmt.Printf("  Duplicates removed: %d\n", stats.DuplicatesRemoved)
	fmt.Printf("  Transfers paired:  %d\n", stats.TransfersFound)
	fmt.Printf("  Posted:            %d\n", stats.Posted)
	fmt.Printf("  Ledger duplicates: %d\n", stats.LedgerDuplicates)
	fmt.Printf("  Already posted:    %d\n", stats.AlreadyPosted)
	fmt.Printf("  Skipped:           %d\n", stats.Skipped)
	if stats.Errors > 0 {
		fmt.Printf("  Errors:            %d\n", stats.Errors)
	}

	return nil
}

// newReconciler builds a reconciler from the configured tolerances.
func newReconciler() (*reconcile.Reconciler, error) {
	cfg := reconcile.DefaultConfig()
	cfg.DateToleranceDays = viper.GetInt("reconcile.date_tolerance_days")

	if raw := viper.GetString("reconcile.amount_tolerance"); raw != "" {
		tolerance, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid amount tolerance %q: %w", raw, err)
		}
		cfg.AmountTolerance = tolerance
	}

	if keywords := viper.GetStringSlice("reconcile.transfer_keywords"); len(keywords) > 0 {
		cfg.TransferKeywords = keywords
	}

	return reconcile.New(cfg)
}

// loadTransactions reads every file, routing by extension, and merges the
// results with cross-file deduplication by identity.
func loadTransactions(ctx context.Context, patterns []string) ([]model.Transaction, error) {
	var allFiles []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return nil, common.NewUserError("no files found to import", nil)
	}

	var all []model.Transaction
	seen := make(map[string]bool)

	for _, path := range allFiles {
		transactions, err := loadFile(ctx, path)
		if err != nil {
			slog.Error("Failed to load file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, txn := range transactions {
			if !seen[txn.Identity] {
				seen[txn.Identity] = true
				all = append(all, txn)
				added++
			}
		}

		slog.Info("Loaded file",
			"file", filepath.Base(path),
			"transactions", len(transactions),
			"added", added,
			"cross_file_duplicates", len(transactions)-added)
	}

	return all, nil
}

func loadFile(ctx context.Context, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return ofx.NewParser().ParseFile(ctx, f)
	case ".csv":
		records, err := ingest.ReadCSV(f)
		if err != nil {
			return nil, err
		}
		result := ingest.NormalizeBatch(records)
		return result.Transactions, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}
