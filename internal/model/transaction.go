// Package model defines the core data structures for the ledgerflow application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single financial transaction extracted from a
// bank or credit-card statement.
type Transaction struct {
	Date        time.Time
	Description string // Raw statement text, used verbatim
	Account     string // Owning statement account, not yet classified
	Category    string // Advisory label; reconciliation ignores it
	Identity    string
	Amount      decimal.Decimal // Negative = outflow, positive = inflow
}

// GenerateIdentity creates a deterministic fingerprint for duplicate
// detection. The signed amount participates so a refund never collides with
// the purchase it reverses; re-uploads of the same record always collide.
func (t *Transaction) GenerateIdentity() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Description,
		t.Amount.StringFixed(2),
		t.Account)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:16])
}
