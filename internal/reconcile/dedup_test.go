package reconcile

import (
	"testing"
	"time"

	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTxn(t *testing.T, date, description, amount, account string) model.Transaction {
	t.Helper()

	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)

	amt, err := decimal.NewFromString(amount)
	require.NoError(t, err)

	txn := model.Transaction{
		Date:        d,
		Description: description,
		Amount:      amt,
		Account:     account,
	}
	txn.Identity = txn.GenerateIdentity()
	return txn
}

func TestFindDuplicates_ExactDuplicate(t *testing.T) {
	batch := []model.Transaction{
		makeTxn(t, "2025-04-05", "Woolworths Belconnen", "-49.66", "AMEX"),
		makeTxn(t, "2025-04-05", "Woolworths Belconnen", "-49.66", "AMEX"),
	}

	unique, duplicates := FindDuplicates(batch)

	require.Len(t, unique, 1)
	require.Len(t, duplicates, 1)
	assert.Equal(t, batch[0].Identity, duplicates[0].Original.Identity)
	assert.Equal(t, batch[1].Identity, duplicates[0].Duplicate.Identity)
}

func TestFindDuplicates_Conservation(t *testing.T) {
	batch := []model.Transaction{
		makeTxn(t, "2025-04-03", "Salary Deposit", "2701.40", "ING Orange"),
		makeTxn(t, "2025-04-05", "Woolworths Belconnen", "-49.66", "AMEX"),
		makeTxn(t, "2025-04-05", "Woolworths Belconnen", "-49.66", "AMEX"),
		makeTxn(t, "2025-04-05", "Woolworths Belconnen", "-49.66", "AMEX"),
		makeTxn(t, "2025-04-06", "Coles 0779 Belconnen", "-31.20", "AMEX"),
	}

	unique, duplicates := FindDuplicates(batch)

	// Each duplicate pair removes exactly one record relative to input.
	assert.Equal(t, len(batch), len(unique)+len(duplicates))
	assert.Len(t, unique, 3)
	assert.Len(t, duplicates, 2)
}

func TestFindDuplicates_PreservesFirstOccurrenceOrder(t *testing.T) {
	batch := []model.Transaction{
		makeTxn(t, "2025-04-06", "Coles 0779 Belconnen", "-31.20", "AMEX"),
		makeTxn(t, "2025-04-03", "Salary Deposit", "2701.40", "ING Orange"),
		makeTxn(t, "2025-04-06", "Coles 0779 Belconnen", "-31.20", "AMEX"),
		makeTxn(t, "2025-04-01", "Bunnings 475000 Majura", "-120.00", "AMEX"),
	}

	unique, _ := FindDuplicates(batch)

	require.Len(t, unique, 3)
	assert.Equal(t, "Coles 0779 Belconnen", unique[0].Description)
	assert.Equal(t, "Salary Deposit", unique[1].Description)
	assert.Equal(t, "Bunnings 475000 Majura", unique[2].Description)
}

func TestFindDuplicates_RefundIsNotADuplicate(t *testing.T) {
	batch := []model.Transaction{
		makeTxn(t, "2021-04-26", "Target 5123 Belconnen", "-20.00", "CommBank Diamond"),
		makeTxn(t, "2021-04-26", "Target 5123 Belconnen", "20.00", "CommBank Diamond"),
	}

	unique, duplicates := FindDuplicates(batch)

	assert.Len(t, unique, 2)
	assert.Empty(t, duplicates)
}

func TestFindDuplicates_ZeroAmountNoSpecialCase(t *testing.T) {
	batch := []model.Transaction{
		makeTxn(t, "2025-04-10", "Monthly Fee Waiver", "0.00", "CBA-EveryDayOffset-7964"),
		makeTxn(t, "2025-04-10", "Monthly Fee Waiver", "0.00", "CBA-EveryDayOffset-7964"),
	}

	unique, duplicates := FindDuplicates(batch)

	assert.Len(t, unique, 1)
	assert.Len(t, duplicates, 1)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	batch := []model.Transaction{
		makeTxn(t, "2025-04-03", "Salary Deposit", "2701.40", "ING Orange"),
		makeTxn(t, "2025-04-05", "Woolworths Belconnen", "-49.66", "AMEX"),
		makeTxn(t, "2025-04-05", "Woolworths Belconnen", "-49.66", "AMEX"),
	}

	once := Deduplicate(batch)
	twice := Deduplicate(once)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, once[i].Identity, twice[i].Identity, "element %d changed", i)
	}
}

func TestFindDuplicates_AssignsMissingFingerprints(t *testing.T) {
	date, err := time.Parse("2006-01-02", "2025-04-05")
	require.NoError(t, err)

	batch := []model.Transaction{
		{Date: date, Description: "Woolworths Belconnen", Amount: decimal.RequireFromString("-49.66"), Account: "AMEX"},
		{Date: date, Description: "Woolworths Belconnen", Amount: decimal.RequireFromString("-49.66"), Account: "AMEX"},
		{Date: date, Description: "Salary Deposit", Amount: decimal.RequireFromString("2701.40"), Account: "ING Orange"},
	}

	unique, duplicates := FindDuplicates(batch)

	require.Len(t, unique, 2)
	require.Len(t, duplicates, 1)
	assert.NotEmpty(t, unique[0].Identity)
	assert.NotEmpty(t, unique[1].Identity)
	assert.NotEqual(t, unique[0].Identity, unique[1].Identity)
	assert.Equal(t, unique[0].Identity, duplicates[0].Duplicate.Identity)
}

func TestFindDuplicates_EmptyBatch(t *testing.T) {
	unique, duplicates := FindDuplicates(nil)
	assert.Empty(t, unique)
	assert.Empty(t, duplicates)
}
