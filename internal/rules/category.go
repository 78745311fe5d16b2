package rules

import (
	"strings"

	"github.com/gagneet/ledgerflow/internal/model"
)

// CategoryRule maps description keywords to an advisory category label.
// The reconciliation core never reads the label; it rides along for the
// ledger's benefit.
type CategoryRule struct {
	Category   string
	Keywords   []string
	InflowOnly bool // Only applies to positive amounts (e.g. salary)
}

// DefaultCategoryRules returns the built-in category table, evaluated in
// order with first match winning.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: "Groceries", Keywords: []string{"woolworths", "coles", "aldi", "iga", "costco", "supermarket"}},
		{Category: "Dining Out", Keywords: []string{"restaurant", "cafe", "pizza", "sushi", "mcdonald", "subway", "guzman"}},
		{Category: "Utilities", Keywords: []string{"origin energy", "electricity", "gas", "water", "internet"}},
		{Category: "Transport", Keywords: []string{"petrol", "fuel", "parking", "uber", "toll"}},
		{Category: "Shopping", Keywords: []string{"ikea", "kmart", "target", "myer", "big w", "bunnings"}},
		{Category: "Income", Keywords: []string{"salary", "wage", "payroll"}, InflowOnly: true},
		{Category: "Transfer", Keywords: []string{"transfer", "payment to", "payment from"}},
	}
}

// Categorize returns the advisory category for a transaction, or
// "Uncategorized" when nothing matches.
func Categorize(txn model.Transaction, table []CategoryRule) string {
	desc := strings.ToLower(txn.Description)

	for _, rule := range table {
		if rule.InflowOnly && txn.Amount.Sign() <= 0 {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Category
			}
		}
	}

	return "Uncategorized"
}
