// Package ofx parses OFX/QFX statement exports into raw transactions for
// the reconciliation pipeline.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/shopspring/decimal"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ToUpper(match)
	})

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file and returns fingerprinted transactions.
// Amounts keep the OFX sign convention: negative for debits, positive for
// credits, which matches the reconciliation model directly.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	processedContent := p.preprocessOFX(string(content))

	resp, err := ofxgo.ParseResponse(strings.NewReader(processedContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			account := string(stmt.BankAcctFrom.AcctID)
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convertTransaction(ofxTx, account))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			account := string(stmt.CCAcctFrom.AcctID)
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convertTransaction(ofxTx, account))
			}
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// convertTransaction converts an OFX transaction to the reconciliation model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, account string) model.Transaction {
	description := string(ofxTx.Name)
	if description == "" && ofxTx.Memo != "" {
		description = string(ofxTx.Memo)
	}

	amount := decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2)

	txn := model.Transaction{
		Date:        ofxTx.DtPosted.Time,
		Description: description,
		Amount:      amount,
		Account:     account,
	}

	// OFX carries no categories; a few transaction types imply one.
	switch fmt.Sprintf("%v", ofxTx.TrnType) {
	case "INT":
		txn.Category = "Income"
	case "FEE":
		txn.Category = "Bank Fees"
	case "ATM":
		txn.Category = "Cash & ATM"
	}

	txn.Identity = txn.GenerateIdentity()

	return txn
}

// GetAccounts extracts unique account IDs from the OFX file, in the order
// they first appear.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	processedContent := p.preprocessOFX(string(content))

	resp, err := ofxgo.ParseResponse(strings.NewReader(processedContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	seen := make(map[string]bool)
	var accounts []string

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			id := string(stmt.BankAcctFrom.AcctID)
			if id != "" && !seen[id] {
				seen[id] = true
				accounts = append(accounts, id)
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			id := string(stmt.CCAcctFrom.AcctID)
			if id != "" && !seen[id] {
				seen[id] = true
				accounts = append(accounts, id)
			}
		}
	}

	return accounts, nil
}
