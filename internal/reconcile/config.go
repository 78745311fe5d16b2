// Package reconcile implements the batch reconciliation engine: exact
// duplicate detection over identity fingerprints and transfer pairing
// between the user's own accounts.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/shopspring/decimal"
)

// Config holds the matching tolerances and keyword set for a reconciler.
type Config struct {
	AmountTolerance   decimal.Decimal
	TransferKeywords  []string
	DateToleranceDays int
}

// DefaultConfig returns the default reconciliation configuration.
func DefaultConfig() Config {
	return Config{
		DateToleranceDays: 2,
		AmountTolerance:   decimal.New(1, -2), // 0.01
		TransferKeywords: []string{
			"transfer",
			"payment to",
			"payment from",
			"internal transfer",
		},
	}
}

// Validate checks the configuration before any batch processing begins.
func (c Config) Validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("%w: date tolerance must be >= 0 days, got %d",
			common.ErrInvalidConfig, c.DateToleranceDays)
	}
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("%w: amount tolerance must be >= 0, got %s",
			common.ErrInvalidConfig, c.AmountTolerance)
	}
	if len(c.TransferKeywords) == 0 {
		return fmt.Errorf("%w: at least one transfer keyword is required",
			common.ErrInvalidConfig)
	}
	for _, kw := range c.TransferKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: transfer keywords must not be blank",
				common.ErrInvalidConfig)
		}
	}
	return nil
}
