// Package middleware provides HTTP middleware for the accounting API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/infrastructure/auth"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth header and gin context keys
const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	PrincipalKey  = "principal"
)

// TokenVerifier validates a bearer token
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	Verifier TokenVerifier
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultAuthConfig leaves health and API docs public
func DefaultAuthConfig(verifier TokenVerifier) AuthConfig {
	return AuthConfig{
		Verifier:         verifier,
		SkipPaths:        []string{"/health"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// tokenErrors are verification failures caused by the token itself.
// Anything else is an infrastructure failure of the revocation check.
var tokenErrors = []error{
	auth.ErrInvalidToken,
	auth.ErrExpiredToken,
	auth.ErrInvalidTokenType,
	auth.ErrInvalidClaims,
	auth.ErrTokenNotYetValid,
	auth.ErrMissingTenantID,
	auth.ErrMissingUserID,
	auth.ErrTokenRevoked,
}

// Authenticate verifies the bearer token and attaches the caller's
// principal to the request context, where the services' authorizer reads it
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header format")
			return
		}

		ctx := c.Request.Context()
		claims, err := cfg.Verifier.Verify(ctx, token)
		if err != nil {
			handleVerifyError(c, log, err)
			return
		}

		principal, err := PrincipalFromClaims(claims)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token claims")
			return
		}

		ctx = appfin.ContextWithPrincipal(ctx, principal)
		reqLogger := logger.FromContext(ctx).With(
			zap.String("tenant_id", claims.TenantID),
			zap.String("user_id", claims.UserID),
		)
		ctx = logger.WithContext(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Set(PrincipalKey, principal)

		c.Next()
	}
}

func handleVerifyError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		abortAuth(c, http.StatusUnauthorized, dto.ErrCodeTokenExpired, "Token has expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		abortAuth(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Token has been revoked")
	case isTokenError(err):
		log.Debug("token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
		abortAuth(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token")
	default:
		log.Error("token verification unavailable", zap.Error(err))
		abortAuth(c, http.StatusServiceUnavailable, dto.ErrCodeAuthUnavailable, "Authentication is temporarily unavailable")
	}
}

func isTokenError(err error) bool {
	for _, target := range tokenErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func abortAuth(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(code, message, logger.RequestID(c.Request.Context())))
}

// PrincipalFromClaims converts verified claims into the principal the
// application layer authorizes against
func PrincipalFromClaims(claims *auth.Claims) (*appfin.Principal, error) {
	tenantID, err := claims.TenantUUID()
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, err
	}
	return &appfin.Principal{
		UserID:      userID,
		TenantID:    tenantID,
		Username:    claims.Username,
		Permissions: claims.Permissions,
	}, nil
}

// GetPrincipal returns the principal set by Authenticate
func GetPrincipal(c *gin.Context) (*appfin.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*appfin.Principal)
	return p, ok && p != nil
}
