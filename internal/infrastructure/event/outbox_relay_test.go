package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPublisher struct {
	mu        sync.Mutex
	err       error
	published []shared.DomainEvent
}

func (p *stubPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, events...)
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newTestRelay(t *testing.T, pub shared.EventPublisher) (*OutboxRelay, *GormOutboxRepository) {
	t.Helper()
	repo := NewGormOutboxRepository(newTestDB(t))
	cfg := DefaultOutboxRelayConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.CleanupInterval = 10 * time.Millisecond
	return NewOutboxRelay(repo, pub, newTestSerializer(), cfg, zap.NewNop()), repo
}

func saveStoredEvent(t *testing.T, repo *GormOutboxRepository, age time.Duration) (*testEvent, *shared.OutboxEntry) {
	t.Helper()
	evt := newTestEvent(uuid.New())
	payload, err := newTestSerializer().Serialize(evt)
	require.NoError(t, err)
	entry := shared.NewOutboxEntry(evt, payload)
	entry.CreatedAt = time.Now().Add(-age)
	require.NoError(t, repo.Save(context.Background(), entry))
	return evt, entry
}

func TestOutboxRelay_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers stale pending entries and leaves fresh ones", func(t *testing.T) {
		pub := &stubPublisher{}
		relay, repo := newTestRelay(t, pub)
		evt, stale := saveStoredEvent(t, repo, time.Minute)
		_, fresh := saveStoredEvent(t, repo, 0)

		assert.Equal(t, 1, relay.ProcessBatch(ctx))
		require.Equal(t, 1, pub.count())
		assert.Equal(t, evt.EventID(), pub.published[0].EventID())
		assert.IsType(t, &testEvent{}, pub.published[0])

		got, err := repo.FindByID(ctx, stale.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusSent, got.Status)
		got, err = repo.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusPending, got.Status)
	})

	t.Run("failed delivery schedules a retry", func(t *testing.T) {
		pub := &stubPublisher{err: errors.New("handler down")}
		relay, repo := newTestRelay(t, pub)
		_, entry := saveStoredEvent(t, repo, time.Minute)

		assert.Equal(t, 0, relay.ProcessBatch(ctx))

		got, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusFailed, got.Status)
		assert.Equal(t, 1, got.RetryCount)
		assert.Equal(t, "handler down", got.LastError)
		require.NotNil(t, got.NextRetryAt)
		assert.True(t, got.NextRetryAt.After(time.Now().Add(-time.Second)))
	})

	t.Run("retryable entries are delivered once their backoff elapses", func(t *testing.T) {
		pub := &stubPublisher{}
		relay, repo := newTestRelay(t, pub)
		_, entry := saveStoredEvent(t, repo, time.Minute)
		entry.MarkFailed("earlier failure")
		past := time.Now().Add(-time.Second)
		entry.NextRetryAt = &past
		require.NoError(t, repo.Update(ctx, entry))

		assert.Equal(t, 1, relay.ProcessBatch(ctx))
		got, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusSent, got.Status)
	})

	t.Run("the last failed attempt moves the entry to the dead letter state", func(t *testing.T) {
		pub := &stubPublisher{err: errors.New("still down")}
		relay, repo := newTestRelay(t, pub)
		_, entry := saveStoredEvent(t, repo, time.Minute)
		entry.RetryCount = entry.MaxRetries - 2
		entry.MarkFailed("earlier failure")
		past := time.Now().Add(-time.Second)
		entry.NextRetryAt = &past
		require.NoError(t, repo.Update(ctx, entry))

		relay.ProcessBatch(ctx)

		got, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusDead, got.Status)
		assert.Nil(t, got.NextRetryAt)
	})

	t.Run("entries abandoned mid-batch are re-delivered after the processing timeout", func(t *testing.T) {
		pub := &stubPublisher{}
		relay, repo := newTestRelay(t, pub)
		evt, entry := saveStoredEvent(t, repo, time.Minute)
		claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{entry.ID})
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		assert.Equal(t, 0, relay.ProcessBatch(ctx), "a fresh claim belongs to the relay that holds it")
		assert.Equal(t, 0, pub.count())

		ageClaim(t, repo, entry.ID, 10*time.Minute)

		assert.Equal(t, 1, relay.ProcessBatch(ctx))
		require.Equal(t, 1, pub.count())
		assert.Equal(t, evt.EventID(), pub.published[0].EventID())
		got, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusSent, got.Status)
	})

	t.Run("unknown event types fail without publishing", func(t *testing.T) {
		pub := &stubPublisher{}
		relay, repo := newTestRelay(t, pub)
		entry := shared.NewOutboxEntry(newTestEvent(uuid.New()), []byte(`{}`))
		entry.EventType = "Unregistered"
		entry.CreatedAt = time.Now().Add(-time.Minute)
		require.NoError(t, repo.Save(ctx, entry))

		relay.ProcessBatch(ctx)

		assert.Equal(t, 0, pub.count())
		got, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusFailed, got.Status)
		assert.Contains(t, got.LastError, "unknown event type")
	})
}

func TestOutboxRelay_Cleanup(t *testing.T) {
	relay, repo := newTestRelay(t, &stubPublisher{})
	ctx := context.Background()

	_, old := saveStoredEvent(t, repo, 0)
	old.MarkSent()
	processed := time.Now().Add(-8 * 24 * time.Hour)
	old.ProcessedAt = &processed
	require.NoError(t, repo.Update(ctx, old))
	_, recent := saveStoredEvent(t, repo, 0)
	recent.MarkSent()
	require.NoError(t, repo.Update(ctx, recent))

	relay.Cleanup(ctx)

	_, err := repo.FindByID(ctx, old.ID)
	assert.True(t, shared.IsNotFound(err))
	_, err = repo.FindByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestOutboxRelay_RunStopsOnCancel(t *testing.T) {
	pub := &stubPublisher{}
	relay, repo := newTestRelay(t, pub)
	saveStoredEvent(t, repo, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
