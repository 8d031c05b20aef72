package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func redisConfig(t *testing.T, mr *miniredis.Miniredis, env string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = env
	cfg.Event.IdempotencyBackend = "redis"
	cfg.Redis.Host = mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg.Redis.Port = port
	return cfg
}

func TestNewIdempotencyStore_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Event.IdempotencyBackend = "memory"

	store, err := NewIdempotencyStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &MemoryIdempotencyStore{}, store)
}

func TestNewIdempotencyStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewIdempotencyStore(context.Background(), redisConfig(t, mr, "development"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &RedisIdempotencyStore{}, store)
}

func TestNewIdempotencyStore_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfig(t, mr, "development")
	mr.Close()

	store, err := NewIdempotencyStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &MemoryIdempotencyStore{}, store, "falls back outside production")

	cfg.App.Env = "production"
	_, err = NewIdempotencyStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
