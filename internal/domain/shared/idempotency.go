package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so redelivered events are skipped
type IdempotencyStore interface {
	// MarkProcessed records the event ID. It returns false when the ID was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// IsProcessed reports whether the event ID was recorded and has not expired
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Release forgets the event ID so a later delivery is handled again
	Release(ctx context.Context, eventID string) error
	// Close releases resources
	Close() error
}

// IdempotencyConfig holds idempotency settings for event handlers
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps processed IDs for 24 hours
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
