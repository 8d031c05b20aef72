package finance

import (
	"strings"
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func twoLines(debit, credit string) []JournalEntryLine {
	return []JournalEntryLine{
		{AccountID: uuid.New(), Debit: dec(debit), Credit: decimal.Zero},
		{AccountID: uuid.New(), Debit: decimal.Zero, Credit: dec(credit)},
	}
}

func TestNewJournalEntry(t *testing.T) {
	tenantID := uuid.New()

	t.Run("stores lines verbatim as draft", func(t *testing.T) {
		e, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "Office rent", twoLines("100", "90"))
		require.NoError(t, err)
		assert.Equal(t, JournalEntryStatusDraft, e.Status)
		require.Len(t, e.Lines, 2)
		assert.Equal(t, 1, e.Lines[0].LineNo)
		assert.Equal(t, e.ID, e.Lines[1].JournalEntryID)
		assert.False(t, e.IsBalanced())
		assert.Equal(t, "USD", e.Lines[0].Currency.String())

		events := e.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeJournalEntryCreated, events[0].EventType())
	})

	t.Run("requires two lines", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "", twoLines("1", "1")[:1])
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_LINES", ""))
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		lines := twoLines("1", "1")
		lines[0].Debit = dec("-1")
		_, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "", lines)
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_AMOUNT", ""))
	})

	t.Run("rejects amounts finer than the fixed scale", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "", twoLines("100.000000004", "100"))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_AMOUNT", ""))
		assert.Contains(t, err.Error(), "fractional digits")

		e, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "", twoLines("100.0000000100", "100.00000001"))
		require.NoError(t, err)
		assert.True(t, e.IsBalanced())
	})

	t.Run("requires reference", func(t *testing.T) {
		_, err := NewJournalEntry(tenantID, " ", date(2025, 2, 15), "", twoLines("1", "1"))
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_REFERENCE", ""))
	})
}

func TestJournalEntry_Post(t *testing.T) {
	tenantID := uuid.New()

	t.Run("balanced entry in open period", func(t *testing.T) {
		period := createTestPeriod(t, tenantID)
		e, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "", twoLines("500.00000000", "500.00000000"))
		require.NoError(t, err)
		e.ClearDomainEvents()

		require.NoError(t, e.Post(period))
		assert.Equal(t, JournalEntryStatusPosted, e.Status)
		assert.Equal(t, period.ID, *e.PeriodID)
		require.NotNil(t, e.PostedAt)

		events := e.GetDomainEvents()
		require.Len(t, events, 1)
		posted, ok := events[0].(*JournalEntryPostedEvent)
		require.True(t, ok)
		assert.Len(t, posted.Lines, 2)
		assert.True(t, posted.TotalAmount.Equal(dec("500")))
	})

	t.Run("unbalanced entry fails without event", func(t *testing.T) {
		period := createTestPeriod(t, tenantID)
		e, err := NewJournalEntry(tenantID, "JE-2", date(2025, 2, 15), "", twoLines("100.00000000", "90.00000000"))
		require.NoError(t, err)
		e.ClearDomainEvents()

		err = e.Post(period)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.NewDomainError("ENTRY_NOT_BALANCED", ""))
		assert.Contains(t, err.Error(), "not balanced")
		assert.Equal(t, JournalEntryStatusDraft, e.Status)
		assert.Empty(t, e.GetDomainEvents())
	})

	t.Run("imbalance in eighth digit is detected", func(t *testing.T) {
		period := createTestPeriod(t, tenantID)
		e, err := NewJournalEntry(tenantID, "JE-3", date(2025, 2, 15), "", twoLines("1.00000001", "1.00000000"))
		require.NoError(t, err)
		assert.ErrorIs(t, e.Post(period), shared.NewDomainError("ENTRY_NOT_BALANCED", ""))
	})

	t.Run("closed period fails", func(t *testing.T) {
		period := createTestPeriod(t, tenantID)
		require.NoError(t, period.Close(uuid.New()))
		e, err := NewJournalEntry(tenantID, "JE-4", date(2025, 2, 20), "", twoLines("10", "10"))
		require.NoError(t, err)

		err = e.Post(period)
		assert.ErrorIs(t, err, shared.NewDomainError("PERIOD_CLOSED", ""))
		assert.Contains(t, strings.ToLower(err.Error()), "closed accounting period")
	})

	t.Run("locked period fails", func(t *testing.T) {
		period := createTestPeriod(t, tenantID)
		require.NoError(t, period.Close(uuid.Nil))
		require.NoError(t, period.Lock(uuid.Nil))
		e, err := NewJournalEntry(tenantID, "JE-5", date(2025, 2, 20), "", twoLines("10", "10"))
		require.NoError(t, err)
		assert.ErrorIs(t, e.Post(period), shared.NewDomainError("PERIOD_CLOSED", ""))
	})

	t.Run("no covering period", func(t *testing.T) {
		e, err := NewJournalEntry(tenantID, "JE-6", date(2025, 5, 1), "", twoLines("10", "10"))
		require.NoError(t, err)
		assert.ErrorIs(t, e.Post(nil), shared.NewDomainError("NO_OPEN_PERIOD", ""))
		assert.ErrorIs(t, e.Post(createTestPeriod(t, tenantID)), shared.NewDomainError("NO_OPEN_PERIOD", ""))
	})

	t.Run("posting twice fails", func(t *testing.T) {
		period := createTestPeriod(t, tenantID)
		e, err := NewJournalEntry(tenantID, "JE-7", date(2025, 2, 15), "", twoLines("10", "10"))
		require.NoError(t, err)
		require.NoError(t, e.Post(period))
		assert.ErrorIs(t, e.Post(period), shared.NewDomainError("ENTRY_NOT_DRAFT", ""))
	})
}

func TestJournalEntry_UpdateDraft(t *testing.T) {
	tenantID := uuid.New()
	e, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "", twoLines("10", "5"))
	require.NoError(t, err)

	require.NoError(t, e.UpdateDraft(date(2025, 2, 16), "fixed", twoLines("10", "10")))
	assert.True(t, e.IsBalanced())
	assert.Equal(t, "fixed", e.Description)
	assert.Equal(t, date(2025, 2, 16), e.EntryDate)

	require.NoError(t, e.Post(createTestPeriod(t, tenantID)))
	assert.ErrorIs(t, e.UpdateDraft(date(2025, 2, 16), "again", twoLines("1", "1")), shared.NewDomainError("ENTRY_NOT_DRAFT", ""))
	assert.ErrorIs(t, e.EnsureDeletable(), shared.NewDomainError("ENTRY_NOT_DRAFT", ""))
}

func TestJournalEntry_Reversal(t *testing.T) {
	tenantID := uuid.New()
	period := createTestPeriod(t, tenantID)
	e, err := NewJournalEntry(tenantID, "JE-1", date(2025, 2, 15), "Sale", twoLines("250", "250"))
	require.NoError(t, err)

	_, err = e.BuildReversal("JE-1-R", date(2025, 2, 20), "")
	assert.ErrorIs(t, err, shared.NewDomainError("ENTRY_NOT_POSTED", ""))

	require.NoError(t, e.Post(period))
	reversal, err := e.BuildReversal("JE-1-R", date(2025, 2, 20), "")
	require.NoError(t, err)
	assert.Equal(t, e.ID, *reversal.ReversalOfID)
	assert.Equal(t, "Reversal of JE-1", reversal.Description)
	for i := range e.Lines {
		assert.True(t, e.Lines[i].Debit.Equal(reversal.Lines[i].Credit))
		assert.True(t, e.Lines[i].Credit.Equal(reversal.Lines[i].Debit))
		assert.Equal(t, e.Lines[i].AccountID, reversal.Lines[i].AccountID)
	}

	require.NoError(t, reversal.Post(period))
	require.NoError(t, e.MarkReversed(reversal))
	assert.Equal(t, JournalEntryStatusReversed, e.Status)
	assert.Equal(t, reversal.ID, *e.ReversedByID)

	_, err = e.BuildReversal("JE-1-R2", date(2025, 2, 21), "")
	assert.ErrorIs(t, err, shared.NewDomainError("ENTRY_NOT_POSTED", ""))
}

func TestJournalEntry_AccountIDs(t *testing.T) {
	acc := uuid.New()
	e, err := NewJournalEntry(uuid.New(), "JE-1", date(2025, 2, 15), "", []JournalEntryLine{
		{AccountID: acc, Debit: dec("5")},
		{AccountID: acc, Credit: dec("3")},
		{AccountID: uuid.New(), Credit: dec("2")},
	})
	require.NoError(t, err)
	assert.Len(t, e.AccountIDs(), 2)
}
