package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250415120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>AUD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>ING-Everyday-64015854
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20250401120000[0:GMT]
<DTEND>20250430120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250405120000[0:GMT]
<TRNAMT>-49.66
<FITID>2025040501
<NAME>WOOLWORTHS 1234 BELCONNEN AUS
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250410120000[0:GMT]
<TRNAMT>2701.40
<FITID>2025041001
<NAME>Salary SAI GLOBAL PAYRO 006064
</STMTTRN>
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20250412120000[0:GMT]
<TRNAMT>-5.00
<FITID>2025041201
<NAME>Monthly Account Fee
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20250430120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250415120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>AUD
<CCACCTFROM>
<ACCTID>CBA-MasterCard-6233
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20250401120000[0:GMT]
<DTEND>20250430120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250408120000[0:GMT]
<TRNAMT>-45.30
<FITID>CC2025040801
<NAME>Coles 0779 Belconnen
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250414120000[0:GMT]
<TRNAMT>120.00
<FITID>CC2025041401
<NAME>Payment Received Thank You
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20250430120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
			expectedError: false,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
			expectedError: false,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedCount: 0,
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedCount: 0,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			reader := strings.NewReader(tt.ofxData)

			transactions, err := parser.ParseFile(context.Background(), reader)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, transactions, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleBankOFX)

	transactions, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	// Debits keep their negative sign
	tx1 := transactions[0]
	assert.Equal(t, "WOOLWORTHS 1234 BELCONNEN AUS", tx1.Description)
	assert.True(t, tx1.Amount.Equal(decimal.RequireFromString("-49.66")))
	assert.Equal(t, "ING-Everyday-64015854", tx1.Account)
	assert.NotEmpty(t, tx1.Identity)
	// Compare just the date components, ignoring timezone
	assert.Equal(t, 2025, tx1.Date.Year())
	assert.Equal(t, time.April, tx1.Date.Month())
	assert.Equal(t, 5, tx1.Date.Day())

	// Credits stay positive
	tx2 := transactions[1]
	assert.Equal(t, "Salary SAI GLOBAL PAYRO 006064", tx2.Description)
	assert.True(t, tx2.Amount.Equal(decimal.RequireFromString("2701.40")))

	// FEE transaction type carries an advisory category
	tx3 := transactions[2]
	assert.Equal(t, "Monthly Account Fee", tx3.Description)
	assert.Equal(t, "Bank Fees", tx3.Category)
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleCreditCardOFX)

	transactions, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	tx1 := transactions[0]
	assert.Equal(t, "Coles 0779 Belconnen", tx1.Description)
	assert.True(t, tx1.Amount.Equal(decimal.RequireFromString("-45.30")))
	assert.Equal(t, "CBA-MasterCard-6233", tx1.Account)

	tx2 := transactions[1]
	assert.Equal(t, "Payment Received Thank You", tx2.Description)
	assert.True(t, tx2.Amount.Equal(decimal.RequireFromString("120.00")))
}

func TestParseFile_IdentityDistinguishesSign(t *testing.T) {
	parser := NewParser()

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.NotEqual(t, transactions[0].Identity, transactions[1].Identity)
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser()

	reader := strings.NewReader(sampleBankOFX)
	accounts, err := parser.GetAccounts(context.Background(), reader)
	require.NoError(t, err)
	assert.Contains(t, accounts, "ING-Everyday-64015854")

	reader = strings.NewReader(sampleCreditCardOFX)
	accounts, err = parser.GetAccounts(context.Background(), reader)
	require.NoError(t, err)
	assert.Contains(t, accounts, "CBA-MasterCard-6233")
}
