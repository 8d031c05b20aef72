package event

import (
	"context"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveEntry(t *testing.T, repo *GormOutboxRepository, mutate func(*shared.OutboxEntry)) *shared.OutboxEntry {
	t.Helper()
	entry := shared.NewOutboxEntry(newTestEvent(uuid.New()), []byte(`{}`))
	if mutate != nil {
		mutate(entry)
	}
	require.NoError(t, repo.Save(context.Background(), entry))
	return entry
}

func TestGormOutboxRepository_FindPending(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	stale := saveEntry(t, repo, func(e *shared.OutboxEntry) { e.CreatedAt = now.Add(-time.Minute) })
	saveEntry(t, repo, nil)
	saveEntry(t, repo, func(e *shared.OutboxEntry) {
		e.CreatedAt = now.Add(-time.Minute)
		e.Status = shared.OutboxStatusSent
	})

	found, err := repo.FindPending(ctx, now.Add(-30*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
	assert.Equal(t, stale.EventID, found[0].EventID)
	assert.Equal(t, testEventType, found[0].EventType)
}

func TestGormOutboxRepository_FindRetryable(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	due := saveEntry(t, repo, func(e *shared.OutboxEntry) {
		e.MarkFailed("timeout")
		past := now.Add(-time.Second)
		e.NextRetryAt = &past
	})
	saveEntry(t, repo, func(e *shared.OutboxEntry) {
		e.MarkFailed("timeout")
		future := now.Add(time.Hour)
		e.NextRetryAt = &future
	})

	found, err := repo.FindRetryable(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.ID, found[0].ID)
	assert.Equal(t, 1, found[0].RetryCount)
	assert.Equal(t, "timeout", found[0].LastError)
}

func TestGormOutboxRepository_FindDead(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()

	for range 3 {
		saveEntry(t, repo, func(e *shared.OutboxEntry) { e.Status = shared.OutboxStatusDead })
	}
	saveEntry(t, repo, nil)

	page, total, err := repo.FindDead(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	page, _, err = repo.FindDead(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestGormOutboxRepository_FindByID(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()
	entry := saveEntry(t, repo, nil)

	found, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.EventID, found.EventID)

	_, err = repo.FindByID(ctx, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestGormOutboxRepository_MarkProcessing(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()

	pending := saveEntry(t, repo, nil)
	failed := saveEntry(t, repo, func(e *shared.OutboxEntry) { e.MarkFailed("x") })
	sent := saveEntry(t, repo, func(e *shared.OutboxEntry) { e.MarkSent() })

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID, failed.ID, sent.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, e := range claimed {
		assert.Equal(t, shared.OutboxStatusProcessing, e.Status)
	}

	again, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID, failed.ID})
	require.NoError(t, err)
	assert.Empty(t, again, "claimed rows cannot be claimed twice")

	stored, err := repo.FindByID(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
}

// ageClaim moves the last update of an entry into the past
func ageClaim(t *testing.T, repo *GormOutboxRepository, id uuid.UUID, age time.Duration) {
	t.Helper()
	require.NoError(t, repo.db.Model(&models.OutboxEntryModel{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now().Add(-age)).Error)
}

func TestGormOutboxRepository_ReclaimStaleProcessing(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()

	abandoned := saveEntry(t, repo, nil)
	active := saveEntry(t, repo, nil)
	pending := saveEntry(t, repo, nil)
	_, err := repo.MarkProcessing(ctx, []uuid.UUID{abandoned.ID, active.ID})
	require.NoError(t, err)
	ageClaim(t, repo, abandoned.ID, 10*time.Minute)
	ageClaim(t, repo, pending.ID, 10*time.Minute)

	reclaimed, err := repo.ReclaimStaleProcessing(ctx, time.Now().Add(-5*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, abandoned.ID, reclaimed[0].ID)
	assert.Equal(t, shared.OutboxStatusProcessing, reclaimed[0].Status)

	again, err := repo.ReclaimStaleProcessing(ctx, time.Now().Add(-5*time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, again, "a reclaimed row is not reclaimed twice within the timeout")
}

func TestGormOutboxRepository_MarkSentByEventIDs(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()

	pending := saveEntry(t, repo, nil)
	processing := saveEntry(t, repo, func(e *shared.OutboxEntry) { e.Status = shared.OutboxStatusProcessing })

	require.NoError(t, repo.MarkSentByEventIDs(ctx, []uuid.UUID{pending.EventID, processing.EventID}))

	got, err := repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, got.Status)
	assert.NotNil(t, got.ProcessedAt)

	got, err = repo.FindByID(ctx, processing.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusProcessing, got.Status, "rows owned by the relay are left alone")
}

func TestGormOutboxRepository_DeleteOlderThanAndCount(t *testing.T) {
	repo := NewGormOutboxRepository(newTestDB(t))
	ctx := context.Background()
	old := time.Now().Add(-8 * 24 * time.Hour)

	saveEntry(t, repo, func(e *shared.OutboxEntry) {
		e.MarkSent()
		e.ProcessedAt = &old
	})
	saveEntry(t, repo, func(e *shared.OutboxEntry) { e.MarkSent() })
	saveEntry(t, repo, nil)
	saveEntry(t, repo, func(e *shared.OutboxEntry) { e.Status = shared.OutboxStatusDead })

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[shared.OutboxStatus]int64{
		shared.OutboxStatusSent:    1,
		shared.OutboxStatusPending: 1,
		shared.OutboxStatusDead:    1,
	}, counts)
}
