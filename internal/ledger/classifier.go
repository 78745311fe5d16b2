// Package ledger maps reconciled transactions onto double-entry postings,
// inverting sign semantics for liability accounts.
package ledger

import (
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/gagneet/ledgerflow/internal/rules"
)

// Classifier turns reconciled records into ledger-ready postings. It is a
// pure function of its rule tables; nothing is cached between calls.
type Classifier struct {
	normalizer   *rules.Normalizer
	accountRules []rules.AccountRule
}

// NewClassifier validates the rule tables and builds a classifier.
func NewClassifier(accountRules []rules.AccountRule, merchantRules []rules.MerchantRule) (*Classifier, error) {
	if err := rules.ValidateAccountRules(accountRules); err != nil {
		return nil, err
	}
	normalizer, err := rules.NewNormalizer(merchantRules)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		accountRules: accountRules,
		normalizer:   normalizer,
	}, nil
}

// ClassifyAccount resolves an account name against the rule table.
func (c *Classifier) ClassifyAccount(name string) model.AccountClassification {
	return rules.ClassifyAccount(name, c.accountRules)
}

// ClassifyTransaction determines the posting type and the source and
// destination roles for one record.
//
// On an asset account an outflow is a withdrawal from the account and an
// inflow a deposit into it. On a liability account the rule inverts: a
// positive amount is a payment that reduces debt (withdrawal from the
// account's perspective) and a negative amount is a purchase that increases
// debt (deposit into the account). The posted amount is always the
// magnitude.
func (c *Classifier) ClassifyTransaction(txn model.Transaction, classification model.AccountClassification) model.Posting {
	counterparty := c.normalizer.Normalize(txn.Description)

	posting := model.Posting{
		Date:        txn.Date,
		Description: txn.Description,
		Account:     txn.Account,
		Category:    txn.Category,
		ExternalID:  txn.Identity,
		Amount:      txn.Amount.Abs(),
	}

	outflow := txn.Amount.Sign() < 0
	if classification.IsLiability() {
		outflow = txn.Amount.Sign() > 0
	}

	if outflow {
		posting.Type = model.PostingWithdrawal
		posting.Source = txn.Account
		posting.Destination = counterparty
	} else {
		posting.Type = model.PostingDeposit
		posting.Source = counterparty
		posting.Destination = txn.Account
	}

	return posting
}

// ClassifyTransfer maps a transfer pair onto a single linked posting. The
// outflow leg's account is always the source and its magnitude the posted
// amount; a discrepancy within the matcher's tolerance is carried as-is.
func (c *Classifier) ClassifyTransfer(pair model.TransferPair) model.Posting {
	return model.Posting{
		Date:        pair.Outflow.Date,
		Type:        model.PostingTransfer,
		Description: pair.Outflow.Description,
		Source:      pair.Outflow.Account,
		Destination: pair.Inflow.Account,
		Account:     pair.Outflow.Account,
		Category:    pair.Outflow.Category,
		ExternalID:  pair.Outflow.Identity,
		Amount:      pair.Amount(),
	}
}
