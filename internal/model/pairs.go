package model

import "github.com/shopspring/decimal"

// DuplicatePair links a record to the earlier record it duplicates. The
// original is always the first occurrence in batch order.
type DuplicatePair struct {
	Original  Transaction
	Duplicate Transaction
}

// TransferPair links the two legs of a movement between two of the user's
// own accounts. The outflow leg carries the negative amount.
type TransferPair struct {
	Outflow Transaction
	Inflow  Transaction
}

// Amount returns the magnitude of the transfer, taken from the outflow leg.
// A small discrepancy against the inflow leg is tolerated, not corrected.
func (p TransferPair) Amount() decimal.Decimal {
	return p.Outflow.Amount.Abs()
}
