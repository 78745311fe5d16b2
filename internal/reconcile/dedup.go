package reconcile

import (
	"github.com/gagneet/ledgerflow/internal/model"
)

// FindDuplicates partitions a batch into first-seen records and exact
// duplicates in a single left-to-right pass over identity fingerprints.
// The unique slice preserves first-occurrence order. Records arriving
// without a fingerprint get one assigned, so later stages can key on it.
//
// Two legitimately distinct same-day, same-amount purchases at the same
// merchant on the same account are indistinguishable from true duplicates
// under this exact-match contract. That is an accepted limitation; no fuzzy
// heuristics belong here.
func FindDuplicates(batch []model.Transaction) ([]model.Transaction, []model.DuplicatePair) {
	seen := make(map[string]model.Transaction, len(batch))
	unique := make([]model.Transaction, 0, len(batch))
	var duplicates []model.DuplicatePair

	for _, txn := range batch {
		if txn.Identity == "" {
			txn.Identity = txn.GenerateIdentity()
		}

		if first, ok := seen[txn.Identity]; ok {
			duplicates = append(duplicates, model.DuplicatePair{
				Original:  first,
				Duplicate: txn,
			})
			continue
		}

		seen[txn.Identity] = txn
		unique = append(unique, txn)
	}

	return unique, duplicates
}

// Deduplicate returns only the first-seen records of a batch. Applying it to
// its own output is a no-op.
func Deduplicate(batch []model.Transaction) []model.Transaction {
	unique, _ := FindDuplicates(batch)
	return unique
}
