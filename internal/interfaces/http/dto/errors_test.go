package dto

import (
	"net/http"
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestDomainStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"FORBIDDEN", http.StatusForbidden},
		{"UNAUTHORIZED", http.StatusUnauthorized},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"ALREADY_EXISTS", http.StatusConflict},
		{"ENTRY_NOT_BALANCED", http.StatusUnprocessableEntity},
		{"PERIOD_CLOSED", http.StatusUnprocessableEntity},
		{"PAYMENT_EXCEEDS_AMOUNT_DUE", http.StatusUnprocessableEntity},
		{"INVALID_INPUT", http.StatusUnprocessableEntity},
		{"VALIDATION_FAILED", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainStatus(tt.code))
		})
	}
}

func TestTransportStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, TransportStatus(ErrCodeInvalidJSON))
	assert.Equal(t, http.StatusRequestEntityTooLarge, TransportStatus(ErrCodePayloadTooLarge))
	assert.Equal(t, http.StatusUnauthorized, TransportStatus(ErrCodeTokenExpired))
	assert.Equal(t, http.StatusInternalServerError, TransportStatus("SOMETHING_ELSE"))
}

func TestNewPaginatedResponse(t *testing.T) {
	page := shared.NewPaginated([]string{"a", "b"}, 5, 1, 2)
	resp := NewPaginatedResponse(&page)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, &Meta{Total: 5, Page: 1, PageSize: 2, TotalPages: 3}, resp.Meta)

	empty := shared.NewPaginated[string](nil, 0, 1, 20)
	assert.Equal(t, []string{}, NewPaginatedResponse(&empty).Data)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("PERIOD_CLOSED", "cannot post to a closed accounting period", "req-1")
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, &ErrorInfo{Code: "PERIOD_CLOSED", Message: "cannot post to a closed accounting period", RequestID: "req-1"}, resp.Error)
}
