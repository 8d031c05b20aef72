package event

import (
	"context"
	"sync"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxRelayConfig holds configuration for the outbox relay
type OutboxRelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// PendingGrace is how long a pending entry is left to the in-process
	// dispatcher before the relay delivers it
	PendingGrace time.Duration
	// ProcessingTimeout is how long a claimed entry may stay processing
	// before another pass takes it over
	ProcessingTimeout time.Duration
	CleanupEnabled    bool
	CleanupRetention  time.Duration
	CleanupInterval   time.Duration
}

// DefaultOutboxRelayConfig returns default configuration
func DefaultOutboxRelayConfig() OutboxRelayConfig {
	return OutboxRelayConfig{
		BatchSize:         100,
		PollInterval:      5 * time.Second,
		PendingGrace:      30 * time.Second,
		ProcessingTimeout: 5 * time.Minute,
		CleanupEnabled:    true,
		CleanupRetention:  7 * 24 * time.Hour,
		CleanupInterval:   time.Hour,
	}
}

// OutboxRelay re-delivers outbox entries the in-process dispatcher did not
// mark sent, typically because the process stopped between commit and
// dispatch or a handler failed. Failed deliveries back off exponentially and
// end up in the dead letter state.
type OutboxRelay struct {
	repo       shared.OutboxRepository
	publisher  shared.EventPublisher
	serializer *EventSerializer
	config     OutboxRelayConfig
	logger     *zap.Logger
}

// NewOutboxRelay creates a new outbox relay
func NewOutboxRelay(
	repo shared.OutboxRepository,
	publisher shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxRelayConfig,
	logger *zap.Logger,
) *OutboxRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxRelay{
		repo:       repo,
		publisher:  publisher,
		serializer: serializer,
		config:     config,
		logger:     logger.Named("outbox_relay"),
	}
}

// Run polls until ctx is cancelled
func (r *OutboxRelay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay started",
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("poll_interval", r.config.PollInterval),
	)

	var wg sync.WaitGroup
	if r.config.CleanupEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.every(ctx, r.config.CleanupInterval, r.Cleanup)
		}()
	}
	r.every(ctx, r.config.PollInterval, func(ctx context.Context) { r.ProcessBatch(ctx) })
	wg.Wait()

	r.logger.Info("outbox relay stopped")
	return nil
}

func (r *OutboxRelay) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// ProcessBatch runs one delivery pass over the outbox, taking over claims
// older than ProcessingTimeout first. It returns the number of entries delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) int {
	now := time.Now()
	delivered := 0

	if r.config.ProcessingTimeout > 0 {
		abandoned, err := r.repo.ReclaimStaleProcessing(ctx, now.Add(-r.config.ProcessingTimeout), r.config.BatchSize)
		if err != nil {
			r.logger.Error("failed to reclaim processing entries", zap.Error(err))
		}
		for _, entry := range abandoned {
			r.logger.Warn("reclaiming abandoned outbox entry",
				zap.String("event_id", entry.EventID.String()),
				zap.String("event_type", entry.EventType),
			)
			if r.deliverOne(ctx, entry) {
				delivered++
			}
		}
	}

	pending, err := r.repo.FindPending(ctx, now.Add(-r.config.PendingGrace), r.config.BatchSize)
	if err != nil {
		r.logger.Error("failed to find pending entries", zap.Error(err))
		return delivered
	}
	delivered += r.deliver(ctx, pending)

	retryable, err := r.repo.FindRetryable(ctx, now, r.config.BatchSize)
	if err != nil {
		r.logger.Error("failed to find retryable entries", zap.Error(err))
		return delivered
	}
	return delivered + r.deliver(ctx, retryable)
}

func (r *OutboxRelay) deliver(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	claimed, err := r.repo.MarkProcessing(ctx, ids)
	if err != nil {
		r.logger.Error("failed to claim outbox entries", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, entry := range claimed {
		if r.deliverOne(ctx, entry) {
			delivered++
		}
	}
	return delivered
}

func (r *OutboxRelay) deliverOne(ctx context.Context, entry *shared.OutboxEntry) bool {
	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("tenant_id", entry.TenantID.String()),
	}

	evt, err := r.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = r.publisher.Publish(ctx, evt)
	}
	if err != nil {
		r.logger.Error("outbox delivery failed", append(fields, zap.Error(err))...)
		entry.MarkFailed(err.Error())
		if entry.IsDead() {
			r.logger.Warn("event moved to dead letter queue",
				append(fields,
					zap.String("aggregate_type", entry.AggregateType),
					zap.String("aggregate_id", entry.AggregateID.String()),
					zap.Int("retry_count", entry.RetryCount),
				)...,
			)
		}
		if updateErr := r.repo.Update(ctx, entry); updateErr != nil {
			r.logger.Error("failed to update outbox entry", append(fields, zap.Error(updateErr))...)
		}
		return false
	}

	entry.MarkSent()
	if err := r.repo.Update(ctx, entry); err != nil {
		r.logger.Error("failed to mark outbox entry as sent", append(fields, zap.Error(err))...)
		return false
	}
	r.logger.Debug("outbox entry delivered", fields...)
	return true
}

// Cleanup removes sent entries older than the retention window
func (r *OutboxRelay) Cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-r.config.CleanupRetention)
	deleted, err := r.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		r.logger.Error("failed to clean up outbox entries", zap.Error(err))
		return
	}
	if deleted > 0 {
		r.logger.Info("cleaned up outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
