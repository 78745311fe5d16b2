// Package rules models account-classification, merchant-normalization, and
// category tables as ordered, first-match-wins data rather than branching
// code, so precedence bugs are caught by tests over the tables themselves.
package rules

import (
	"fmt"
	"strings"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/gagneet/ledgerflow/internal/model"
)

// AccountRule maps a case-insensitive keyword to an account classification.
type AccountRule struct {
	Keyword string
	Class   model.AccountClass
	Subtype model.AccountSubtype
}

// DefaultAccountRules returns the built-in classification table. Order
// matters: mortgage keywords come before the generic "loan" keyword so a
// home loan is never misrouted to the personal-loan subtype.
func DefaultAccountRules() []AccountRule {
	return []AccountRule{
		// Credit cards
		{Keyword: "amex", Class: model.ClassLiability, Subtype: model.SubtypeDebt},
		{Keyword: "american express", Class: model.ClassLiability, Subtype: model.SubtypeDebt},
		{Keyword: "mastercard", Class: model.ClassLiability, Subtype: model.SubtypeDebt},
		{Keyword: "visa", Class: model.ClassLiability, Subtype: model.SubtypeDebt},
		{Keyword: "credit card", Class: model.ClassLiability, Subtype: model.SubtypeDebt},
		{Keyword: "diamond", Class: model.ClassLiability, Subtype: model.SubtypeDebt},
		{Keyword: "platinum", Class: model.ClassLiability, Subtype: model.SubtypeDebt},
		{Keyword: "cashback", Class: model.ClassLiability, Subtype: model.SubtypeDebt},

		// Mortgages, before generic loans
		{Keyword: "home loan", Class: model.ClassLiability, Subtype: model.SubtypeMortgage},
		{Keyword: "homeloan", Class: model.ClassLiability, Subtype: model.SubtypeMortgage},
		{Keyword: "mortgage", Class: model.ClassLiability, Subtype: model.SubtypeMortgage},

		// Loans
		{Keyword: "personal loan", Class: model.ClassLiability, Subtype: model.SubtypeLoan},
		{Keyword: "car loan", Class: model.ClassLiability, Subtype: model.SubtypeLoan},
		{Keyword: "-pl-", Class: model.ClassLiability, Subtype: model.SubtypeLoan},
		{Keyword: "loan", Class: model.ClassLiability, Subtype: model.SubtypeLoan},
	}
}

// ValidateAccountRules rejects an unusable rule table at construction time.
func ValidateAccountRules(table []AccountRule) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: account rule table must not be empty", common.ErrInvalidConfig)
	}
	for i, rule := range table {
		if strings.TrimSpace(rule.Keyword) == "" {
			return fmt.Errorf("%w: account rule %d has a blank keyword", common.ErrInvalidConfig, i)
		}
		if rule.Class != model.ClassAsset && rule.Class != model.ClassLiability {
			return fmt.Errorf("%w: account rule %q has unknown class %q", common.ErrInvalidConfig, rule.Keyword, rule.Class)
		}
	}
	return nil
}

// ClassifyAccount evaluates the table against a case-insensitive view of the
// account name, first match wins. An unmatched name is not an error: it
// defaults to an asset account, flagged for audit via Matched=false.
func ClassifyAccount(name string, table []AccountRule) model.AccountClassification {
	lower := strings.ToLower(name)

	for _, rule := range table {
		if strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			return model.AccountClassification{
				Class:   rule.Class,
				Subtype: rule.Subtype,
				Matched: true,
			}
		}
	}

	return model.AccountClassification{
		Class:   model.ClassAsset,
		Subtype: model.SubtypeNone,
	}
}
