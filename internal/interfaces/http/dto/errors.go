package dto

import (
	"net/http"

	"github.com/erp/accounting/internal/domain/shared"
)

// Transport error codes. Domain failures keep the code of their
// shared.DomainError; these cover requests that never reach a service.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "TOKEN_INVALID"
	ErrCodeAuthUnavailable = "AUTH_UNAVAILABLE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// domainCodeStatus lists the domain codes that do not map to 422
var domainCodeStatus = map[string]int{
	shared.ErrNotFound.Code:            http.StatusNotFound,
	shared.ErrForbidden.Code:           http.StatusForbidden,
	shared.ErrUnauthorized.Code:        http.StatusUnauthorized,
	shared.ErrConcurrencyConflict.Code: http.StatusConflict,
	shared.ErrAlreadyExists.Code:       http.StatusConflict,
}

// transportCodeStatus maps transport codes to status
var transportCodeStatus = map[string]int{
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeAuthUnavailable: http.StatusServiceUnavailable,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// DomainStatus returns the HTTP status for a domain error code. Every
// business rule violation not listed explicitly is 422.
func DomainStatus(code string) int {
	if status, ok := domainCodeStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}

// TransportStatus returns the HTTP status for a transport error code,
// 500 when the code is unknown
func TransportStatus(code string) int {
	if status, ok := transportCodeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
