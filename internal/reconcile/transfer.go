package reconcile

import (
	"strings"
	"time"

	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/shopspring/decimal"
)

// FindTransfers identifies pairs of records representing one real-world
// movement between two of the user's accounts, recorded once on each side.
//
// Matching is greedy and order-stable: records are considered in batch
// order, each record picks its best remaining candidate (smallest date
// difference, then smallest amount difference, then earliest batch
// position), and both legs leave candidacy once paired. A record therefore
// belongs to at most one pair, and the result is deterministic for a given
// input order and configuration.
func FindTransfers(unique []model.Transaction, cfg Config) []model.TransferPair {
	if len(unique) < 2 {
		return nil
	}

	keywords := make([]string, len(cfg.TransferKeywords))
	for i, kw := range cfg.TransferKeywords {
		keywords[i] = strings.ToLower(kw)
	}

	// Bucket positions by date so each record only inspects candidates
	// within the tolerance window rather than the full cross product.
	byDate := make(map[string][]int, len(unique))
	for i, txn := range unique {
		key := txn.Date.Format("2006-01-02")
		byDate[key] = append(byDate[key], i)
	}

	consumed := make([]bool, len(unique))
	var pairs []model.TransferPair

	for i := range unique {
		if consumed[i] {
			continue
		}

		best := -1
		bestDateDiff := 0
		bestAmountDiff := decimal.Zero

		for offset := -cfg.DateToleranceDays; offset <= cfg.DateToleranceDays; offset++ {
			key := unique[i].Date.AddDate(0, 0, offset).Format("2006-01-02")
			for _, j := range byDate[key] {
				if j == i || consumed[j] {
					continue
				}
				if !isTransferCandidate(unique[i], unique[j], cfg.AmountTolerance, keywords) {
					continue
				}

				dateDiff := absDaysBetween(unique[i].Date, unique[j].Date)
				amountDiff := unique[i].Amount.Abs().Sub(unique[j].Amount.Abs()).Abs()

				if best == -1 || betterCandidate(dateDiff, amountDiff, j, bestDateDiff, bestAmountDiff, best) {
					best = j
					bestDateDiff = dateDiff
					bestAmountDiff = amountDiff
				}
			}
		}

		if best == -1 {
			continue
		}

		consumed[i] = true
		consumed[best] = true
		pairs = append(pairs, orientPair(unique[i], unique[best]))
	}

	return pairs
}

// isTransferCandidate applies the matching predicate to an ordered candidate
// pair. Date proximity is checked by the caller's bucket walk.
func isTransferCandidate(a, b model.Transaction, tolerance decimal.Decimal, keywords []string) bool {
	if a.Account == b.Account {
		return false
	}
	if a.Amount.Sign()*b.Amount.Sign() >= 0 {
		return false
	}
	if a.Amount.Abs().Sub(b.Amount.Abs()).Abs().GreaterThan(tolerance) {
		return false
	}

	descA := strings.ToLower(a.Description)
	descB := strings.ToLower(b.Description)

	for _, kw := range keywords {
		if strings.Contains(descA, kw) || strings.Contains(descB, kw) {
			return true
		}
	}

	// No keyword: accept when one side's description names the other account.
	return strings.Contains(descA, strings.ToLower(b.Account)) ||
		strings.Contains(descB, strings.ToLower(a.Account))
}

// betterCandidate reports whether candidate j beats the current best under
// the tie-break policy: date difference, then amount difference, then batch
// position.
func betterCandidate(dateDiff int, amountDiff decimal.Decimal, pos, bestDateDiff int, bestAmountDiff decimal.Decimal, bestPos int) bool {
	if dateDiff != bestDateDiff {
		return dateDiff < bestDateDiff
	}
	if !amountDiff.Equal(bestAmountDiff) {
		return amountDiff.LessThan(bestAmountDiff)
	}
	return pos < bestPos
}

// orientPair arranges a matched pair so the outflow leg comes first.
func orientPair(a, b model.Transaction) model.TransferPair {
	if a.Amount.Sign() < 0 {
		return model.TransferPair{Outflow: a, Inflow: b}
	}
	return model.TransferPair{Outflow: b, Inflow: a}
}

// absDaysBetween returns the whole-day distance between two calendar dates,
// ignoring any time-of-day component.
func absDaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(bd.Sub(ad).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
