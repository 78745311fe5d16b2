package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/gagneet/ledgerflow/internal/ofx"
	"github.com/gagneet/ledgerflow/internal/rules"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts [names or statement files...]",
		Short: "Show how account names classify for the ledger",
		Long: `Classify account names against the built-in rule table and show the
ledger account type each would be created as. Names matching no rule
default to asset accounts.

Arguments ending in .ofx or .qfx are treated as statement exports and
scanned for the account IDs they carry.

Examples:
  ledgerflow accounts CBA-MasterCard-6233 CBA-HomeLoan-466297723 uBank
  ledgerflow accounts ~/statements/april.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := rules.DefaultAccountRules()
			if err := rules.ValidateAccountRules(table); err != nil {
				return err
			}

			names, err := collectAccountNames(cmd.Context(), args)
			if err != nil {
				return err
			}

			fmt.Printf("%-35s %-10s %-10s %s\n", "ACCOUNT", "CLASS", "SUBTYPE", "MATCHED")
			for _, name := range names {
				classification := rules.ClassifyAccount(name, table)
				fmt.Printf("%-35s %-10s %-10s %v\n",
					name,
					classification.Class,
					subtypeLabel(classification.Subtype),
					classification.Matched)
			}
			return nil
		},
	}
}

// collectAccountNames resolves OFX/QFX arguments to the account IDs found
// inside them; everything else is taken as a literal account name.
func collectAccountNames(ctx context.Context, args []string) ([]string, error) {
	var names []string
	for _, arg := range args {
		switch strings.ToLower(filepath.Ext(arg)) {
		case ".ofx", ".qfx":
			found, err := scanStatementAccounts(ctx, arg)
			if err != nil {
				return nil, err
			}
			names = append(names, found...)
		default:
			names = append(names, arg)
		}
	}
	return names, nil
}

func scanStatementAccounts(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	accounts, err := ofx.NewParser().GetAccounts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return accounts, nil
}

func subtypeLabel(subtype model.AccountSubtype) string {
	if subtype == model.SubtypeNone {
		return "-"
	}
	return string(subtype)
}
