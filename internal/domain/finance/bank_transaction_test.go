package finance

import (
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBankAccount(t *testing.T, tenantID uuid.UUID) *BankAccount {
	ba, err := NewBankAccount(tenantID, "Operating", "000123456", "First Bank", "")
	require.NoError(t, err)
	return ba
}

func TestNewBankAccount(t *testing.T) {
	tenantID := uuid.New()

	ba := createTestBankAccount(t, tenantID)
	assert.True(t, ba.IsActive)
	assert.Equal(t, "USD", ba.Currency.String())
	require.Len(t, ba.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeBankAccountCreated, ba.GetDomainEvents()[0].EventType())

	_, err := NewBankAccount(tenantID, "", "1", "", "")
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_NAME", ""))
	_, err = NewBankAccount(tenantID, "Ops", "  ", "", "")
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_ACCOUNT_NUMBER", ""))
}

func TestNewBankTransaction(t *testing.T) {
	tenantID := uuid.New()
	ba := createTestBankAccount(t, tenantID)

	tx, err := NewBankTransaction(ba, BankTransactionTypeCredit, dec("120.5"), date(2025, 2, 3), "Deposit", "REF")
	require.NoError(t, err)
	assert.Equal(t, BankTransactionStatusUnreconciled, tx.Status)
	assert.Equal(t, tenantID, tx.TenantID)
	assert.Equal(t, "120.50000000", tx.Amount.StringFixed(8))

	_, err = NewBankTransaction(ba, BankTransactionTypeDebit, dec("0"), date(2025, 2, 3), "", "")
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_AMOUNT", ""))

	_, err = NewBankTransaction(ba, BankTransactionTypeCredit, dec("0.000000001"), date(2025, 2, 3), "", "")
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_AMOUNT", ""))

	_, err = NewBankTransaction(ba, BankTransactionType("wire"), dec("1"), date(2025, 2, 3), "", "")
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_TRANSACTION_TYPE", ""))

	require.NoError(t, ba.Deactivate())
	_, err = NewBankTransaction(ba, BankTransactionTypeCredit, dec("1"), date(2025, 2, 3), "", "")
	assert.ErrorIs(t, err, shared.NewDomainError("BANK_ACCOUNT_INACTIVE", ""))
}

func TestBankTransaction_Reconcile(t *testing.T) {
	tenantID := uuid.New()
	ba := createTestBankAccount(t, tenantID)
	period := createTestPeriod(t, tenantID)

	newTx := func() *BankTransaction {
		tx, err := NewBankTransaction(ba, BankTransactionTypeCredit, dec("10"), date(2025, 2, 3), "", "")
		require.NoError(t, err)
		return tx
	}
	newEntry := func() *JournalEntry {
		e, err := NewJournalEntry(tenantID, "JE-"+uuid.NewString()[:8], date(2025, 2, 3), "", twoLines("10", "10"))
		require.NoError(t, err)
		return e
	}

	t.Run("against posted entry", func(t *testing.T) {
		tx := newTx()
		entry := newEntry()
		require.NoError(t, entry.Post(period))
		userID := uuid.New()

		require.NoError(t, tx.Reconcile(entry, userID))
		assert.True(t, tx.IsReconciled())
		assert.Equal(t, entry.ID, *tx.JournalEntryID)
		assert.Equal(t, userID, *tx.ReconciledBy)

		err := tx.Reconcile(entry, userID)
		assert.ErrorIs(t, err, shared.NewDomainError("TRANSACTION_ALREADY_RECONCILED", ""))
	})

	t.Run("against draft entry", func(t *testing.T) {
		tx := newTx()
		err := tx.Reconcile(newEntry(), uuid.Nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.NewDomainError("JOURNAL_ENTRY_DRAFT", ""))
		assert.Contains(t, err.Error(), "draft journal entry")
		assert.False(t, tx.IsReconciled())
	})

	t.Run("against reversed entry", func(t *testing.T) {
		entry := newEntry()
		require.NoError(t, entry.Post(period))
		rev, err := entry.BuildReversal("R-"+uuid.NewString()[:8], date(2025, 2, 4), "")
		require.NoError(t, err)
		require.NoError(t, rev.Post(period))
		require.NoError(t, entry.MarkReversed(rev))

		assert.NoError(t, newTx().Reconcile(entry, uuid.Nil))
	})

	t.Run("entry of another tenant", func(t *testing.T) {
		other, err := NewJournalEntry(uuid.New(), "JE-X", date(2025, 2, 3), "", twoLines("1", "1"))
		require.NoError(t, err)
		assert.True(t, shared.IsNotFound(newTx().Reconcile(other, uuid.Nil)))
	})
}
