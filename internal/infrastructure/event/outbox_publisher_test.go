package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOutboxPublisher_PublishWithTx(t *testing.T) {
	db := newTestDB(t)
	pub := NewOutboxPublisher(newTestSerializer())
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("entries commit with the transaction", func(t *testing.T) {
		evt := newTestEvent(tenantID)
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return pub.PublishWithTx(ctx, tx, evt)
		}))

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])
	})

	t.Run("entries roll back with the transaction", func(t *testing.T) {
		rollback := errors.New("ledger write failed")
		err := db.Transaction(func(tx *gorm.DB) error {
			require.NoError(t, pub.PublishWithTx(ctx, tx, newTestEvent(tenantID), newTestEvent(tenantID)))
			return rollback
		})
		assert.ErrorIs(t, err, rollback)

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])
	})

	t.Run("no events writes nothing", func(t *testing.T) {
		assert.NoError(t, pub.PublishWithTx(ctx, db))
	})
}
