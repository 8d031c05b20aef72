package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRevocationPrefix is the key prefix the identity service writes under
const DefaultRevocationPrefix = "token:blacklist:"

// RevocationList holds tokens revoked before they expire. The identity
// service revokes single tokens on logout and every token of a user on a
// forced sign-out; the verifier consults both.
type RevocationList interface {
	// Revoke blocks the token with the given JWT ID for ttl
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether the token has been revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeUser blocks every token of the user issued up to now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	// IsUserRevokedSince reports whether tokens issued at issuedAt are blocked
	IsUserRevokedSince(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisRevocationList reads and writes revocations in Redis
type RedisRevocationList struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRevocationList uses client with the default key prefix
func NewRedisRevocationList(client redis.UniversalClient) *RedisRevocationList {
	return &RedisRevocationList{client: client, keyPrefix: DefaultRevocationPrefix}
}

func (l *RedisRevocationList) jtiKey(jti string) string {
	return l.keyPrefix + "jti:" + jti
}

func (l *RedisRevocationList) userKey(userID string) string {
	return l.keyPrefix + "user:" + userID
}

// Revoke implements RevocationList
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked implements RevocationList
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, l.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeUser stores the revocation time as a Unix timestamp
func (l *RedisRevocationList) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevokedSince implements RevocationList. Timestamps have second
// precision, so a token issued in the revocation second is blocked too.
func (l *RedisRevocationList) IsUserRevokedSince(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := l.client.Get(ctx, l.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp %q: %w", raw, err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ RevocationList = (*RedisRevocationList)(nil)

// MemoryRevocationList keeps revocations in process. Revocations are not
// shared between replicas.
type MemoryRevocationList struct {
	mu      sync.Mutex
	tokens  map[string]time.Time // jti -> expiry of the revocation
	users   map[string]time.Time // user -> revoked at
	nowFunc func() time.Time
}

// NewMemoryRevocationList creates an empty list
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{
		tokens:  make(map[string]time.Time),
		users:   make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

// Revoke implements RevocationList
func (l *MemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[jti] = l.nowFunc().Add(ttl)
	return nil
}

// IsRevoked implements RevocationList
func (l *MemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiry, ok := l.tokens[jti]
	if !ok {
		return false, nil
	}
	if l.nowFunc().After(expiry) {
		delete(l.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser implements RevocationList. The ttl is not tracked; user
// revocations stay until the process exits.
func (l *MemoryRevocationList) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[userID] = l.nowFunc()
	return nil
}

// IsUserRevokedSince implements RevocationList
func (l *MemoryRevocationList) IsUserRevokedSince(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	revokedAt, ok := l.users[userID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(revokedAt), nil
}

var _ RevocationList = (*MemoryRevocationList)(nil)

// NewRevocationList returns the list selected by jwt.revocation_check, or
// nil when revocation is not checked. An unreachable Redis is fatal in
// production and falls back to memory elsewhere.
func NewRevocationList(ctx context.Context, cfg *config.Config, logger *zap.Logger) (RevocationList, error) {
	if !cfg.JWT.RevocationCheck {
		return nil, nil
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
			return nil, fmt.Errorf("redis revocation list unavailable: %w", err)
		}
		logger.Warn("redis unavailable, using in-memory revocation list",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		return NewMemoryRevocationList(), nil
	}
	return NewRedisRevocationList(client), nil
}
