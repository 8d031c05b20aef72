package finance

import (
	"testing"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testBankAccount(t *testing.T, tenantID uuid.UUID) *finance.BankAccount {
	t.Helper()
	account, err := finance.NewBankAccount(tenantID, "Operating", "DE89370400440532013000", "Commerzbank", "EUR")
	require.NoError(t, err)
	account.PullDomainEvents()
	return account
}

func unreconciledTransaction(t *testing.T, account *finance.BankAccount, amt string) *finance.BankTransaction {
	t.Helper()
	tx, err := finance.NewBankTransaction(account, finance.BankTransactionTypeCredit, amount(amt), day(2025, 2, 15), "Customer transfer", "TRX-1")
	require.NoError(t, err)
	tx.PullDomainEvents()
	return tx
}

func TestBankService_CreateBankAccount(t *testing.T) {
	t.Run("linked to an asset account", func(t *testing.T) {
		h := newTestHarness()
		ledger := testAccount(t, h.tenantID, "1020", finance.AccountClassAsset)
		h.repos.bankAccounts.On("ExistsByAccountNumber", mock.Anything, h.tenantID, "12345678").Return(false, nil)
		h.repos.accounts.On("FindByID", mock.Anything, h.tenantID, ledger.ID).Return(ledger, nil)
		h.repos.bankAccounts.On("Save", mock.Anything, mock.AnythingOfType("*finance.BankAccount")).Return(nil)

		resp, err := NewBankService(h.deps()).CreateBankAccount(h.ctx, h.tenantID, CreateBankAccountRequest{
			Name:            "Payroll",
			AccountNumber:   "12345678",
			Currency:        "usd",
			LedgerAccountID: &ledger.ID,
		})

		require.NoError(t, err)
		assert.True(t, resp.IsActive)
		assert.Equal(t, "USD", resp.Currency)
		require.NotNil(t, resp.LedgerAccountID)
		assert.Equal(t, ledger.ID, *resp.LedgerAccountID)
		assert.Equal(t, []string{finance.EventTypeBankAccountCreated}, h.repos.outbox.types())
	})

	t.Run("linked to a non-asset account", func(t *testing.T) {
		h := newTestHarness()
		ledger := testAccount(t, h.tenantID, "4000", finance.AccountClassRevenue)
		h.repos.bankAccounts.On("ExistsByAccountNumber", mock.Anything, h.tenantID, "12345678").Return(false, nil)
		h.repos.accounts.On("FindByID", mock.Anything, h.tenantID, ledger.ID).Return(ledger, nil)

		_, err := NewBankService(h.deps()).CreateBankAccount(h.ctx, h.tenantID, CreateBankAccountRequest{
			Name: "Payroll", AccountNumber: "12345678", LedgerAccountID: &ledger.ID,
		})

		assert.Equal(t, "INVALID_ACCOUNT_CLASS", errCode(t, err))
	})

	t.Run("duplicate account number", func(t *testing.T) {
		h := newTestHarness()
		h.repos.bankAccounts.On("ExistsByAccountNumber", mock.Anything, h.tenantID, "12345678").Return(true, nil)

		_, err := NewBankService(h.deps()).CreateBankAccount(h.ctx, h.tenantID, CreateBankAccountRequest{
			Name: "Payroll", AccountNumber: "12345678",
		})

		assert.Equal(t, shared.ErrAlreadyExists.Code, errCode(t, err))
		h.repos.bankAccounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestBankService_RecordTransaction(t *testing.T) {
	t.Run("on an active account", func(t *testing.T) {
		h := newTestHarness()
		account := testBankAccount(t, h.tenantID)
		h.repos.bankAccounts.On("FindByID", mock.Anything, h.tenantID, account.ID).Return(account, nil)
		h.repos.bankTxs.On("Save", mock.Anything, mock.AnythingOfType("*finance.BankTransaction")).Return(nil)

		resp, err := NewBankService(h.deps()).RecordTransaction(h.ctx, h.tenantID, RecordBankTransactionRequest{
			BankAccountID:   account.ID,
			Type:            "debit",
			Amount:          "89.9",
			TransactionDate: day(2025, 2, 3),
			Description:     "Card fee",
		})

		require.NoError(t, err)
		assert.Equal(t, "unreconciled", resp.Status)
		assert.Equal(t, "89.90000000", resp.Amount)
		assert.Equal(t, "EUR", resp.Currency)
		assert.Equal(t, []string{finance.EventTypeBankTransactionRecorded}, h.repos.outbox.types())
	})

	t.Run("amount that rounds to zero", func(t *testing.T) {
		h := newTestHarness()
		account := testBankAccount(t, h.tenantID)

		_, err := NewBankService(h.deps()).RecordTransaction(h.ctx, h.tenantID, RecordBankTransactionRequest{
			BankAccountID: account.ID, Type: "credit", Amount: "0.000000001", TransactionDate: day(2025, 2, 3),
		})

		assert.Equal(t, shared.ErrValidationFailed.Code, errCode(t, err))
		h.repos.bankTxs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("on an inactive account", func(t *testing.T) {
		h := newTestHarness()
		account := testBankAccount(t, h.tenantID)
		require.NoError(t, account.Deactivate())
		h.repos.bankAccounts.On("FindByID", mock.Anything, h.tenantID, account.ID).Return(account, nil)

		_, err := NewBankService(h.deps()).RecordTransaction(h.ctx, h.tenantID, RecordBankTransactionRequest{
			BankAccountID: account.ID, Type: "credit", Amount: "10", TransactionDate: day(2025, 2, 3),
		})

		assert.Equal(t, "BANK_ACCOUNT_INACTIVE", errCode(t, err))
	})
}

func TestBankService_Reconcile(t *testing.T) {
	tests := []struct {
		name     string
		entry    func(t *testing.T, h *testHarness) *finance.JournalEntry
		wantCode string
	}{
		{
			name: "posted entry",
			entry: func(t *testing.T, h *testHarness) *finance.JournalEntry {
				return postedEntry(t, h.tenantID, q1Period(t, h.tenantID), day(2025, 2, 15), "100")
			},
		},
		{
			name: "reversed entry",
			entry: func(t *testing.T, h *testHarness) *finance.JournalEntry {
				period := q1Period(t, h.tenantID)
				entry := postedEntry(t, h.tenantID, period, day(2025, 2, 15), "100")
				reversal, err := entry.BuildReversal("REV-1", day(2025, 2, 16), "")
				require.NoError(t, err)
				require.NoError(t, entry.MarkReversed(reversal))
				return entry
			},
		},
		{
			name: "draft entry",
			entry: func(t *testing.T, h *testHarness) *finance.JournalEntry {
				return draftEntry(t, h.tenantID, day(2025, 2, 15), "100", "100")
			},
			wantCode: "JOURNAL_ENTRY_DRAFT",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHarness()
			tx := unreconciledTransaction(t, testBankAccount(t, h.tenantID), "100")
			entry := tc.entry(t, h)
			h.repos.bankTxs.On("FindByIDForUpdate", mock.Anything, h.tenantID, tx.ID).Return(tx, nil)
			h.repos.journals.On("FindByID", mock.Anything, h.tenantID, entry.ID).Return(entry, nil)
			h.repos.bankTxs.On("Save", mock.Anything, tx).Return(nil).Maybe()

			resp, err := NewBankService(h.deps()).Reconcile(h.ctx, h.tenantID, tx.ID, ReconcileRequest{JournalEntryID: entry.ID})

			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, errCode(t, err))
				assert.False(t, tx.IsReconciled())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "reconciled", resp.Status)
			require.NotNil(t, resp.JournalEntryID)
			assert.Equal(t, entry.ID, *resp.JournalEntryID)
			require.NotNil(t, tx.ReconciledBy)
			assert.Equal(t, h.userID, *tx.ReconciledBy)
			assert.Equal(t, []string{finance.EventTypeBankTransactionReconciled}, h.repos.outbox.types())
		})
	}
}

func TestBankService_Reconcile_OnlyOnce(t *testing.T) {
	h := newTestHarness()
	tx := unreconciledTransaction(t, testBankAccount(t, h.tenantID), "100")
	entry := postedEntry(t, h.tenantID, q1Period(t, h.tenantID), day(2025, 2, 15), "100")
	h.repos.bankTxs.On("FindByIDForUpdate", mock.Anything, h.tenantID, tx.ID).Return(tx, nil)
	h.repos.journals.On("FindByID", mock.Anything, h.tenantID, entry.ID).Return(entry, nil)
	h.repos.bankTxs.On("Save", mock.Anything, tx).Return(nil)
	svc := NewBankService(h.deps())

	_, err := svc.Reconcile(h.ctx, h.tenantID, tx.ID, ReconcileRequest{JournalEntryID: entry.ID})
	require.NoError(t, err)

	_, err = svc.Reconcile(h.ctx, h.tenantID, tx.ID, ReconcileRequest{JournalEntryID: entry.ID})
	assert.Equal(t, "TRANSACTION_ALREADY_RECONCILED", errCode(t, err))
	h.repos.bankTxs.AssertNumberOfCalls(t, "Save", 1)
}
