package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                         { return []string{testEventType} }

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to handlers subscribed to the type", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		matching := &recordingHandler{types: []string{testEventType}}
		other := &recordingHandler{types: []string{"SomethingElse"}}
		bus.Subscribe(matching)
		bus.Subscribe(other)

		require.NoError(t, bus.Publish(ctx, newTestEvent(uuid.New())))
		assert.Equal(t, 1, matching.count())
		assert.Equal(t, 0, other.count())
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		h := &recordingHandler{types: []string{"SomethingElse"}}
		bus.Subscribe(h, testEventType)

		require.NoError(t, bus.Publish(ctx, newTestEvent(uuid.New())))
		assert.Equal(t, 1, h.count())
	})

	t.Run("a failing handler does not stop the others", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{types: []string{testEventType}, err: errors.New("ledger unavailable")}
		ok := &recordingHandler{types: []string{testEventType}}
		bus.Subscribe(failing)
		bus.Subscribe(ok)

		evt := newTestEvent(uuid.New())
		err := bus.Publish(ctx, evt)
		require.Error(t, err)
		assert.ErrorIs(t, err, failing.err)
		assert.Contains(t, err.Error(), evt.EventID().String())
		assert.Equal(t, 1, ok.count())
	})

	t.Run("a panicking handler is reported as an error", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		after := &recordingHandler{types: []string{testEventType}}
		bus.Subscribe(panickingHandler{})
		bus.Subscribe(after)

		err := bus.Publish(ctx, newTestEvent(uuid.New()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "handler panicked: boom")
		assert.Equal(t, 1, after.count())
	})

	t.Run("no handlers is not an error", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		assert.NoError(t, bus.Publish(ctx, newTestEvent(uuid.New())))
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{testEventType}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent(uuid.New())))
	assert.Equal(t, 0, h.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	assert.False(t, bus.Running())
	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}
