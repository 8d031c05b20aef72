package finance

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxSentMarker marks outbox rows as delivered once their events have been
// published in-process
type OutboxSentMarker interface {
	MarkSentByEventIDs(ctx context.Context, eventIDs []uuid.UUID) error
}

// EventDispatcher publishes committed events synchronously on the in-process
// bus. Events whose publication fails stay pending in the outbox and are
// picked up by the relay.
type EventDispatcher struct {
	publisher shared.EventPublisher
	marker    OutboxSentMarker
	logger    *zap.Logger
}

// NewEventDispatcher creates a new EventDispatcher. marker may be nil, in
// which case the relay is responsible for every outbox row.
func NewEventDispatcher(publisher shared.EventPublisher, marker OutboxSentMarker, logger *zap.Logger) *EventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventDispatcher{
		publisher: publisher,
		marker:    marker,
		logger:    logger,
	}
}

// Dispatch must only be called after the unit of work that stored events has
// committed. It never fails the caller: the write has already succeeded.
func (d *EventDispatcher) Dispatch(ctx context.Context, events []shared.DomainEvent) {
	if d == nil || d.publisher == nil || len(events) == 0 {
		return
	}
	if err := d.publisher.Publish(ctx, events...); err != nil {
		d.logger.Warn("post-commit event publication failed, outbox relay will retry",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
		return
	}
	if d.marker == nil {
		return
	}
	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.EventID()
	}
	if err := d.marker.MarkSentByEventIDs(ctx, ids); err != nil {
		d.logger.Warn("failed to mark outbox entries as sent",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// LedgerRecorder receives business counters from the ledger services
type LedgerRecorder interface {
	JournalPosted(ctx context.Context, tenantID uuid.UUID, source string)
	PaymentRecorded(ctx context.Context, tenantID uuid.UUID, method string)
	ListenerSkipped(ctx context.Context, listener, reason string)
	ListenerFailed(ctx context.Context, listener, reason string)
}

// NoopRecorder discards every measurement
type NoopRecorder struct{}

func (NoopRecorder) JournalPosted(context.Context, uuid.UUID, string)   {}
func (NoopRecorder) PaymentRecorded(context.Context, uuid.UUID, string) {}
func (NoopRecorder) ListenerSkipped(context.Context, string, string)    {}
func (NoopRecorder) ListenerFailed(context.Context, string, string)     {}

var _ LedgerRecorder = NoopRecorder{}
