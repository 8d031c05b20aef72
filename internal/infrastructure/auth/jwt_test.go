package auth

import (
	"context"
	"testing"
	"time"

	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestVerifier(t *testing.T, opts ...VerifierOption) *TokenVerifier {
	t.Helper()
	v, err := NewTokenVerifier(config.JWTConfig{Secret: testSecret, Issuer: "erp-identity"}, opts...)
	require.NoError(t, err)
	return v
}

func newTestInput() TokenInput {
	return TokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "accountant",
		Permissions: []string{"finance:journal:*", "finance:invoice:read"},
	}
}

func signClaims(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "erp-identity",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:  uuid.NewString(),
		UserID:    uuid.NewString(),
		TokenType: TokenTypeAccess,
	}
}

func TestNewTokenVerifier_RequiresSecret(t *testing.T) {
	_, err := NewTokenVerifier(config.JWTConfig{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestVerify_RoundTrip(t *testing.T) {
	v := newTestVerifier(t)
	in := newTestInput()

	token, err := v.SignAccessToken(in)
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)

	tenantID, err := claims.TenantUUID()
	require.NoError(t, err)
	userID, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, in.TenantID, tenantID)
	assert.Equal(t, in.UserID, userID)
	assert.Equal(t, "accountant", claims.Username)
	assert.Equal(t, in.Permissions, claims.Permissions)
	assert.False(t, claims.IssuedAtTime().IsZero())
}

func TestVerify_Rejections(t *testing.T) {
	v := newTestVerifier(t)

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-token" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signClaims(t, validClaims(), "another-secret-key-of-32-characters")
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := validClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				c := validClaims()
				c.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				c := validClaims()
				c.ExpiresAt = nil
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := validClaims()
				c.Issuer = "someone-else"
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token",
			token: func(t *testing.T) string {
				c := validClaims()
				c.TokenType = TokenTypeRefresh
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrInvalidTokenType,
		},
		{
			name: "missing tenant",
			token: func(t *testing.T) string {
				c := validClaims()
				c.TenantID = ""
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrMissingTenantID,
		},
		{
			name: "missing user",
			token: func(t *testing.T) string {
				c := validClaims()
				c.UserID = ""
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrMissingUserID,
		},
		{
			name: "tenant not a uuid",
			token: func(t *testing.T) string {
				c := validClaims()
				c.TenantID = "acme"
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrInvalidClaims,
		},
		{
			name: "none algorithm",
			token: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return token
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify_Leeway(t *testing.T) {
	v, err := NewTokenVerifier(config.JWTConfig{Secret: testSecret, Issuer: "erp-identity", Leeway: time.Minute})
	require.NoError(t, err)

	c := validClaims()
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))

	_, err = v.Verify(context.Background(), signClaims(t, c, testSecret))
	assert.NoError(t, err)
}

func TestVerify_RevokedToken(t *testing.T) {
	list := NewMemoryRevocationList()
	v := newTestVerifier(t, WithRevocationList(list))
	ctx := context.Background()

	c := validClaims()
	token := signClaims(t, c, testSecret)

	_, err := v.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, list.Revoke(ctx, c.ID, time.Hour))
	_, err = v.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestVerify_RevokedUser(t *testing.T) {
	list := NewMemoryRevocationList()
	v := newTestVerifier(t, WithRevocationList(list))
	ctx := context.Background()

	c := validClaims()
	c.IssuedAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signClaims(t, c, testSecret)

	require.NoError(t, list.RevokeUser(ctx, c.UserID, time.Hour))
	_, err := v.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
