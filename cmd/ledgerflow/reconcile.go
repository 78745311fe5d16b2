package main

import (
	"fmt"

	"github.com/gagneet/ledgerflow/internal/reconcile"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [files...]",
		Short: "Reconcile statement exports and print the report",
		Long: `Run duplicate detection and transfer pairing over statement exports
and print the reconciliation report. Nothing is posted anywhere; this
is the inspection tool for checking what an import would do.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := loadTransactions(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(batch) == 0 {
				return fmt.Errorf("no transactions found in any file")
			}

			reconciler, err := newReconciler()
			if err != nil {
				return err
			}

			result := reconciler.Reconcile(batch)
			fmt.Print(reconcile.BuildReport(result))
			return nil
		},
	}
}
