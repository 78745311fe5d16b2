package main

import (
	"fmt"

	"github.com/gagneet/ledgerflow/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent import runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := storage.NewSQLiteStorage(expandPath(viper.GetString("database.path")))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No import runs recorded yet.")
				return nil
			}

			fmt.Printf("%-36s %-19s %-25s %6s %6s %6s %6s\n",
				"RUN ID", "STARTED", "SOURCE", "INPUT", "DUPS", "XFERS", "POSTED")
			for _, run := range runs {
				source := run.Source
				if len(source) > 25 {
					source = source[:22] + "..."
				}
				fmt.Printf("%-36s %-19s %-25s %6d %6d %6d %6d\n",
					run.ID,
					run.StartedAt.Format("2006-01-02 15:04:05"),
					source,
					run.TotalInput,
					run.DuplicatesRemoved,
					run.TransfersFound,
					run.Posted)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	return cmd
}
