package persistence

import (
	"context"
	"testing"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormJournalEntryRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormJournalEntryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	cash, sales, rent := uuid.New(), uuid.New(), uuid.New()

	entry := newEntry(t, tenantID, "JE-001", cash, sales, "250.00")
	require.NoError(t, repo.Save(ctx, entry))
	require.NoError(t, repo.Save(ctx, newEntry(t, tenantID, "JE-002", rent, cash, "75.00")))

	t.Run("lines load in line order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, entry.ID)
		require.NoError(t, err)
		require.Len(t, found.Lines, 2)
		assert.Equal(t, 1, found.Lines[0].LineNo)
		assert.Equal(t, cash, found.Lines[0].AccountID)
		assert.True(t, found.Lines[0].Debit.Equal(dec("250")))
		assert.True(t, found.Lines[1].Credit.Equal(dec("250")))
		assert.True(t, found.IsBalanced())
	})

	t.Run("saving a draft replaces its lines", func(t *testing.T) {
		require.NoError(t, entry.UpdateDraft(entry.EntryDate, "corrected", []finance.JournalEntryLine{
			{AccountID: cash, Debit: dec("100")},
			{AccountID: sales, Credit: dec("60")},
			{AccountID: sales, Credit: dec("40")},
		}))
		require.NoError(t, repo.Save(ctx, entry))

		found, err := repo.FindByIDForUpdate(ctx, tenantID, entry.ID)
		require.NoError(t, err)
		assert.Len(t, found.Lines, 3)
		assert.Equal(t, "corrected", found.Description)
	})

	t.Run("filter by account", func(t *testing.T) {
		entries, total, err := repo.FindAll(ctx, tenantID, finance.JournalEntryFilter{AccountID: &rent})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "JE-002", entries[0].ReferenceNumber)

		entries, total, err = repo.FindAll(ctx, tenantID, finance.JournalEntryFilter{AccountID: &cash})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, entries, 2)
	})

	t.Run("reference lookup is tenant scoped", func(t *testing.T) {
		exists, err := repo.ExistsByReference(ctx, tenantID, "JE-001")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByReference(ctx, uuid.New(), "JE-001")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete removes the entry and its lines", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, tenantID, entry.ID))

		_, err := repo.FindByID(ctx, tenantID, entry.ID)
		assert.True(t, shared.IsNotFound(err))

		var lines int64
		require.NoError(t, db.Table("journal_entry_lines").Where("journal_entry_id = ?", entry.ID).Count(&lines).Error)
		assert.Zero(t, lines)

		assert.True(t, shared.IsNotFound(repo.Delete(ctx, tenantID, entry.ID)))
	})
}
