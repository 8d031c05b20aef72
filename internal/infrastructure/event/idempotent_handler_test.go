package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct{ shared.IdempotencyStore }

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis unavailable")
}

func newTestStore(t *testing.T) *cache.MemoryIdempotencyStore {
	t.Helper()
	store := cache.NewMemoryIdempotencyStore(0)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	inner := &recordingHandler{types: []string{testEventType}}
	h := NewIdempotentHandler(inner, newTestStore(t), zap.NewNop())
	evt := newTestEvent(uuid.New())

	require.NoError(t, h.Handle(ctx, evt))
	require.NoError(t, h.Handle(ctx, evt))

	assert.Equal(t, 1, inner.count())
	stats := h.Metrics().Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(1), stats.EventsDuplicate)
	assert.Equal(t, []string{testEventType}, h.EventTypes())
	assert.Same(t, inner, h.Unwrap())
}

func TestIdempotentHandler_KeysAreScopedPerHandler(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	first := &recordingHandler{}
	second := &recordingHandler{}
	h1 := NewIdempotentHandler(first, store, nil, WithHandlerName("invoice_projector"))
	h2 := NewIdempotentHandler(second, store, nil, WithHandlerName("journal_projector"))
	evt := newTestEvent(uuid.New())

	require.NoError(t, h1.Handle(ctx, evt))
	require.NoError(t, h2.Handle(ctx, evt))

	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
	assert.Equal(t, 2, store.Len())
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	inner := &recordingHandler{err: errors.New("period closed")}
	metrics := &IdempotencyMetrics{}
	h := NewIdempotentHandler(inner, store, zap.NewNop(), WithIdempotencyMetrics(metrics))
	evt := newTestEvent(uuid.New())

	assert.ErrorIs(t, h.Handle(ctx, evt), inner.err)
	assert.Equal(t, 0, store.Len())

	inner.err = nil
	require.NoError(t, h.Handle(ctx, evt))
	assert.Equal(t, 2, inner.count())
	assert.Equal(t, int64(1), metrics.Stats().EventsFailed)
	assert.Equal(t, int64(1), metrics.Stats().EventsProcessed)
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler(inner, failingStore{}, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newTestEvent(uuid.New())))
	assert.Equal(t, 1, inner.count())
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	inner := &recordingHandler{}
	store := newTestStore(t)
	h := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
	evt := newTestEvent(uuid.New())

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.Equal(t, 2, inner.count())
	assert.Equal(t, 0, store.Len())
}
