package persistence

import (
	"context"
	"errors"
	"testing"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/infrastructure/event"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScope(t *testing.T) (*GormTransactionScope, *GormLedgerAccountRepository, func() int64) {
	t.Helper()
	db := newTestDB(t)
	serializer := event.NewEventSerializer()
	event.RegisterFinanceEvents(serializer)
	scope := NewGormTransactionScope(db, event.NewOutboxPublisher(serializer))

	countOutbox := func() int64 {
		var n int64
		require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&n).Error)
		return n
	}
	return scope, NewGormLedgerAccountRepository(db), countOutbox
}

func TestGormTransactionScope_CommitsAggregateAndOutbox(t *testing.T) {
	scope, accounts, countOutbox := newTestScope(t)
	ctx := context.Background()
	tenantID := uuid.New()
	account := newAccount(t, tenantID, "1000", "Cash", finance.AccountClassAsset)

	err := scope.Execute(ctx, func(repos appfin.TransactionalRepositories) error {
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		return repos.Outbox().SaveEvents(ctx, account.PullDomainEvents()...)
	})
	require.NoError(t, err)

	_, err = accounts.FindByID(ctx, tenantID, account.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), countOutbox())
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	scope, accounts, countOutbox := newTestScope(t)
	ctx := context.Background()
	tenantID := uuid.New()
	account := newAccount(t, tenantID, "1000", "Cash", finance.AccountClassAsset)
	failure := errors.New("posting rejected")

	err := scope.Execute(ctx, func(repos appfin.TransactionalRepositories) error {
		require.NoError(t, repos.Accounts().Save(ctx, account))
		require.NoError(t, repos.Outbox().SaveEvents(ctx, account.PullDomainEvents()...))
		return failure
	})
	assert.ErrorIs(t, err, failure)

	_, err = accounts.FindByID(ctx, tenantID, account.ID)
	assert.Error(t, err)
	assert.Zero(t, countOutbox())
}
