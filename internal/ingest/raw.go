// Package ingest validates raw transaction tuples produced by statement
// extraction and turns them into fingerprinted transactions. A malformed
// record is skipped with a reason; it never aborts the batch.
package ingest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/shopspring/decimal"
)

// RawRecord is a transaction tuple as handed over by the extraction layer.
type RawRecord struct {
	Date        string
	Description string
	Amount      string
	Account     string
	Category    string
}

// SkippedRecord pairs a rejected raw record with the reason it was rejected.
type SkippedRecord struct {
	Record RawRecord
	Reason string
}

// Result holds the accepted transactions and the records skipped on the way.
type Result struct {
	Transactions []model.Transaction
	Skipped      []SkippedRecord
}

// Normalize validates one raw record and constructs a Transaction with its
// identity fingerprint assigned.
func Normalize(raw RawRecord) (model.Transaction, error) {
	if strings.TrimSpace(raw.Description) == "" {
		return model.Transaction{}, fmt.Errorf("%w: empty description", common.ErrMalformedRecord)
	}
	if strings.TrimSpace(raw.Account) == "" {
		return model.Transaction{}, fmt.Errorf("%w: empty account", common.ErrMalformedRecord)
	}

	date, err := time.Parse("2006-01-02", raw.Date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: unparseable date %q", common.ErrMalformedRecord, raw.Date)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(raw.Amount))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: non-numeric amount %q", common.ErrMalformedRecord, raw.Amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return model.Transaction{}, fmt.Errorf("%w: amount %q has more than two fractional digits", common.ErrMalformedRecord, raw.Amount)
	}

	txn := model.Transaction{
		Date:        date,
		Description: raw.Description,
		Amount:      amount,
		Account:     raw.Account,
		Category:    raw.Category,
	}
	txn.Identity = txn.GenerateIdentity()

	return txn, nil
}

// NormalizeBatch processes every raw record, collecting skipped records with
// reasons instead of failing the batch.
func NormalizeBatch(raws []RawRecord) Result {
	result := Result{
		Transactions: make([]model.Transaction, 0, len(raws)),
	}

	for _, raw := range raws {
		txn, err := Normalize(raw)
		if err != nil {
			slog.Warn("Skipping malformed record",
				"date", raw.Date,
				"description", raw.Description,
				"reason", err)
			result.Skipped = append(result.Skipped, SkippedRecord{
				Record: raw,
				Reason: err.Error(),
			})
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	return result
}
