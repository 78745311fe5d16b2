package reconcile

import (
	"fmt"
	"strings"
)

const reportRule = "============================================================"
const reportSubRule = "------------------------------------------------------------"

// BuildReport renders a human-readable summary of a reconciliation result,
// listing the duplicate pairs and transfer pairs that were resolved.
func BuildReport(result Result) string {
	var b strings.Builder

	b.WriteString(reportRule + "\n")
	b.WriteString("TRANSACTION RECONCILIATION REPORT\n")
	b.WriteString(reportRule + "\n\n")

	fmt.Fprintf(&b, "Total transactions processed: %d\n", result.Stats.TotalInput)
	fmt.Fprintf(&b, "Exact duplicates removed: %d\n", result.Stats.ExactDuplicatesRemoved)
	fmt.Fprintf(&b, "Transfer pairs identified: %d\n", result.Stats.TransfersFound)
	fmt.Fprintf(&b, "Final unique transactions: %d\n\n", result.Stats.FinalUniqueCount)

	if len(result.Duplicates) > 0 {
		b.WriteString(reportSubRule + "\n")
		b.WriteString("DUPLICATE TRANSACTIONS FOUND:\n")
		b.WriteString(reportSubRule + "\n")
		for _, pair := range result.Duplicates {
			fmt.Fprintf(&b, "  %s | %-40s | $%9s\n",
				pair.Original.Date.Format("2006-01-02"),
				truncate(pair.Original.Description, 40),
				pair.Original.Amount.StringFixed(2))
			fmt.Fprintf(&b, "  %s | %-40s | $%9s\n\n",
				pair.Duplicate.Date.Format("2006-01-02"),
				truncate(pair.Duplicate.Description, 40),
				pair.Duplicate.Amount.StringFixed(2))
		}
	}

	if len(result.Transfers) > 0 {
		b.WriteString(reportSubRule + "\n")
		b.WriteString("INTERNAL TRANSFERS IDENTIFIED:\n")
		b.WriteString(reportSubRule + "\n")
		for _, pair := range result.Transfers {
			fmt.Fprintf(&b, "  FROM: %-20s | %s | $%9s\n",
				pair.Outflow.Account,
				pair.Outflow.Date.Format("2006-01-02"),
				pair.Amount().StringFixed(2))
			fmt.Fprintf(&b, "  TO:   %-20s | %s | $%9s\n",
				pair.Inflow.Account,
				pair.Inflow.Date.Format("2006-01-02"),
				pair.Inflow.Amount.Abs().StringFixed(2))
			fmt.Fprintf(&b, "        %s\n\n", pair.Outflow.Description)
		}
	}

	b.WriteString(reportRule + "\n")
	return b.String()
}

// truncate shortens to n runes so multi-byte text is never cut mid-rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
