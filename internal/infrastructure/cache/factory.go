package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const memorySweepInterval = 5 * time.Minute

// NewIdempotencyStore builds the store selected by event.idempotency_backend.
// When Redis is selected but unreachable the store falls back to memory
// outside production, and fails in production.
func NewIdempotencyStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if cfg.Event.IdempotencyBackend != "redis" {
		return NewMemoryIdempotencyStore(memorySweepInterval), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if cfg.App.IsProduction() {
			return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
		}
		logger.Warn("redis unavailable, using in-memory idempotency store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		return NewMemoryIdempotencyStore(memorySweepInterval), nil
	}

	logger.Info("using redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil
}
