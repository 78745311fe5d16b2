package importer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagneet/ledgerflow/internal/common"
	"github.com/gagneet/ledgerflow/internal/ledger"
	"github.com/gagneet/ledgerflow/internal/model"
	"github.com/gagneet/ledgerflow/internal/reconcile"
	"github.com/gagneet/ledgerflow/internal/rules"
	"github.com/gagneet/ledgerflow/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStorage is an in-memory Storage for importer tests.
type mockStorage struct {
	mu       sync.Mutex
	runs     map[string]*model.ImportRun
	postings []model.Posting
	posted   map[string]bool
	skipped  []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		runs:   make(map[string]*model.ImportRun),
		posted: make(map[string]bool),
	}
}

func (m *mockStorage) SaveRun(_ context.Context, run *model.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *mockStorage) CompleteRun(_ context.Context, run *model.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *mockStorage) GetRun(_ context.Context, id string) (*model.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return run, nil
}

func (m *mockStorage) ListRuns(_ context.Context, _ int) ([]model.ImportRun, error) {
	return nil, nil
}

func (m *mockStorage) RecordPosting(_ context.Context, _ string, posting model.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = append(m.postings, posting)
	m.posted[posting.ExternalID] = true
	return nil
}

func (m *mockStorage) WasPosted(_ context.Context, identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posted[identity], nil
}

func (m *mockStorage) RecordSkipped(_ context.Context, _, description, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped = append(m.skipped, description)
	return nil
}

func (m *mockStorage) Migrate(_ context.Context) error { return nil }
func (m *mockStorage) Close() error                    { return nil }

// mockLedger is an in-memory LedgerClient for importer tests.
type mockLedger struct {
	mu             sync.Mutex
	accounts       map[string]model.AccountClassification
	postings       []model.Posting
	duplicateIDs   map[string]bool
	connectionErr  error
	postingErr     error
	postingErrOnce bool
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		accounts:     make(map[string]model.AccountClassification),
		duplicateIDs: make(map[string]bool),
	}
}

func (m *mockLedger) TestConnection(_ context.Context) error {
	return m.connectionErr
}

func (m *mockLedger) EnsureAccount(_ context.Context, name string, classification model.AccountClassification) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[name] = classification
	return name, nil
}

func (m *mockLedger) CreatePosting(_ context.Context, posting model.Posting) (*service.PostingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postingErr != nil {
		err := m.postingErr
		if m.postingErrOnce {
			m.postingErr = nil
		}
		return nil, err
	}
	if m.duplicateIDs[posting.ExternalID] {
		return &service.PostingResult{Duplicate: true}, nil
	}
	m.postings = append(m.postings, posting)
	return &service.PostingResult{LedgerID: posting.ExternalID}, nil
}

func newTestImporter(t *testing.T, storage *mockStorage, client *mockLedger) *Importer {
	t.Helper()
	reconciler, err := reconcile.New(reconcile.DefaultConfig())
	require.NoError(t, err)
	classifier, err := ledger.NewClassifier(rules.DefaultAccountRules(), rules.DefaultMerchantRules())
	require.NoError(t, err)

	config := DefaultConfig()
	config.Retry = service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
	}
	return NewWithConfig(storage, client, reconciler, classifier, config)
}

func makeTxn(date, description, account, amount string) model.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	txn := model.Transaction{
		Date:        d,
		Description: description,
		Account:     account,
		Amount:      decimal.RequireFromString(amount),
	}
	txn.Identity = txn.GenerateIdentity()
	return txn
}

func TestRun_FullBatch(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	imp := newTestImporter(t, storage, client)

	batch := []model.Transaction{
		makeTxn("2025-04-05", "WOOLWORTHS 1234 BELCONNEN AUS", "ING-Everyday-64015854", "-49.66"),
		makeTxn("2025-04-05", "WOOLWORTHS 1234 BELCONNEN AUS", "ING-Everyday-64015854", "-49.66"),
		makeTxn("2025-04-08", "Payment to CommBank", "uBank", "-5839.13"),
		makeTxn("2025-04-08", "Payment from uBank", "CommBank", "5839.13"),
		makeTxn("2025-04-10", "Salary SAI GLOBAL PAYRO 006064", "ING-Everyday-64015854", "2701.40"),
	}

	stats, err := imp.Run(context.Background(), "april.pdf", batch)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalInput)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 1, stats.TransfersFound)
	// One transfer posting plus two unique records
	assert.Equal(t, 3, stats.Posted)
	assert.Zero(t, stats.Errors)

	// Accounts on both transfer legs were ensured
	assert.Contains(t, client.accounts, "uBank")
	assert.Contains(t, client.accounts, "CommBank")
	assert.Contains(t, client.accounts, "ING-Everyday-64015854")

	// The run is recorded and completed
	run, err := storage.GetRun(context.Background(), stats.RunID)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Posted)
	assert.False(t, run.CompletedAt.IsZero())
}

func TestRun_SkipsZeroAmountRecords(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	imp := newTestImporter(t, storage, client)

	batch := []model.Transaction{
		makeTxn("2025-04-05", "Fee Waiver", "uBank", "0.00"),
		makeTxn("2025-04-06", "Coles 0779 Belconnen", "uBank", "-31.20"),
	}

	stats, err := imp.Run(context.Background(), "april.pdf", batch)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Posted)
	assert.Equal(t, 1, stats.Skipped)
	assert.Contains(t, storage.skipped, "Fee Waiver")
}

func TestRun_SkipsAlreadyPostedIdentities(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	imp := newTestImporter(t, storage, client)

	txn := makeTxn("2025-04-06", "Coles 0779 Belconnen", "uBank", "-31.20")
	storage.posted[txn.Identity] = true

	stats, err := imp.Run(context.Background(), "april.pdf", []model.Transaction{txn})
	require.NoError(t, err)

	assert.Zero(t, stats.Posted)
	assert.Equal(t, 1, stats.AlreadyPosted)
	assert.Empty(t, client.postings)
}

func TestRun_LedgerDuplicateIsCounted(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	imp := newTestImporter(t, storage, client)

	txn := makeTxn("2025-04-06", "Coles 0779 Belconnen", "uBank", "-31.20")
	client.duplicateIDs[txn.Identity] = true

	stats, err := imp.Run(context.Background(), "april.pdf", []model.Transaction{txn})
	require.NoError(t, err)

	assert.Zero(t, stats.Posted)
	assert.Equal(t, 1, stats.LedgerDuplicates)
	assert.Zero(t, stats.Errors)
}

func TestRun_PostingErrorIsCountedNotFatal(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	client.postingErr = common.ErrLedgerRejected
	imp := newTestImporter(t, storage, client)

	batch := []model.Transaction{
		makeTxn("2025-04-06", "Coles 0779 Belconnen", "uBank", "-31.20"),
	}

	stats, err := imp.Run(context.Background(), "april.pdf", batch)
	require.NoError(t, err)

	assert.Zero(t, stats.Posted)
	assert.Equal(t, 1, stats.Errors)
}

func TestRun_RetriesTransientFailures(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	client.postingErr = common.ErrRateLimit
	client.postingErrOnce = true
	imp := newTestImporter(t, storage, client)

	batch := []model.Transaction{
		makeTxn("2025-04-06", "Coles 0779 Belconnen", "uBank", "-31.20"),
	}

	stats, err := imp.Run(context.Background(), "april.pdf", batch)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Posted)
	assert.Zero(t, stats.Errors)
}

func TestRun_UnreachableLedgerFailsFast(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	client.connectionErr = common.ErrLedgerConnection
	imp := newTestImporter(t, storage, client)

	_, err := imp.Run(context.Background(), "april.pdf", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrLedgerConnection)
}

func TestRun_FillsMissingCategories(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()
	imp := newTestImporter(t, storage, client)

	batch := []model.Transaction{
		makeTxn("2025-04-06", "WOOLWORTHS 1234 BELCONNEN", "uBank", "-31.20"),
	}

	_, err := imp.Run(context.Background(), "april.pdf", batch)
	require.NoError(t, err)

	require.Len(t, client.postings, 1)
	assert.Equal(t, "Groceries", client.postings[0].Category)
}

func TestRun_ReportsProgress(t *testing.T) {
	storage := newMockStorage()
	client := newMockLedger()

	reconciler, err := reconcile.New(reconcile.DefaultConfig())
	require.NoError(t, err)
	classifier, err := ledger.NewClassifier(rules.DefaultAccountRules(), rules.DefaultMerchantRules())
	require.NoError(t, err)

	var calls [][2]int
	config := DefaultConfig()
	config.Progress = func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}
	imp := NewWithConfig(storage, client, reconciler, classifier, config)

	batch := []model.Transaction{
		makeTxn("2025-04-06", "Coles 0779 Belconnen", "uBank", "-31.20"),
		makeTxn("2025-04-07", "Kmart Belconnen", "uBank", "-12.00"),
	}

	_, err = imp.Run(context.Background(), "april.pdf", batch)
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, [2]int{1, 2}, calls[0])
	assert.Equal(t, [2]int{2, 2}, calls[1])
}
