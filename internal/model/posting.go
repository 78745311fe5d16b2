package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingType is the ledger-level transaction kind.
type PostingType string

// Posting type constants.
const (
	PostingWithdrawal PostingType = "withdrawal"
	PostingDeposit    PostingType = "deposit"
	PostingTransfer   PostingType = "transfer"
)

// Posting is a ledger-ready record: type, source and destination roles, and
// a positive amount, derived from a reconciled transaction or transfer pair.
type Posting struct {
	Date        time.Time
	Type        PostingType
	Description string
	Source      string
	Destination string
	Account     string // Originating statement account, kept for notes/tags
	Category    string
	ExternalID  string // Identity fingerprint of the underlying record
	Amount      decimal.Decimal
}
