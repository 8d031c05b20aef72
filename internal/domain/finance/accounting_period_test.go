package finance

import (
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTestPeriod(t *testing.T, tenantID uuid.UUID) *AccountingPeriod {
	p, err := NewAccountingPeriod(tenantID, "Q1 2025", date(2025, 1, 1), date(2025, 3, 31), 2025)
	require.NoError(t, err)
	return p
}

func TestNewAccountingPeriod(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates open period", func(t *testing.T) {
		p := createTestPeriod(t, tenantID)
		assert.Equal(t, PeriodStatusOpen, p.Status)
		assert.Equal(t, tenantID, p.TenantID)
		assert.Equal(t, 2025, p.FiscalYear)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePeriodCreated, events[0].EventType())
	})

	tests := []struct {
		name       string
		tenantID   uuid.UUID
		periodName string
		start, end time.Time
		year       int
		code       string
	}{
		{"empty tenant", uuid.Nil, "P1", date(2025, 1, 1), date(2025, 2, 1), 2025, "INVALID_TENANT"},
		{"blank name", tenantID, "   ", date(2025, 1, 1), date(2025, 2, 1), 2025, "INVALID_PERIOD_NAME"},
		{"end equals start", tenantID, "P1", date(2025, 1, 1), date(2025, 1, 1), 2025, "INVALID_DATE_RANGE"},
		{"end before start", tenantID, "P1", date(2025, 2, 1), date(2025, 1, 1), 2025, "INVALID_DATE_RANGE"},
		{"zero fiscal year", tenantID, "P1", date(2025, 1, 1), date(2025, 2, 1), 0, "INVALID_FISCAL_YEAR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccountingPeriod(tt.tenantID, tt.periodName, tt.start, tt.end, tt.year)
			require.Error(t, err)
			de, ok := shared.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestAccountingPeriod_Overlaps(t *testing.T) {
	p := createTestPeriod(t, uuid.New())

	tests := []struct {
		name       string
		start, end time.Time
		overlaps   bool
	}{
		{"inside", date(2025, 2, 1), date(2025, 2, 10), true},
		{"straddles start", date(2024, 12, 1), date(2025, 1, 15), true},
		{"straddles end", date(2025, 3, 1), date(2025, 4, 30), true},
		{"contains", date(2024, 1, 1), date(2026, 1, 1), true},
		{"adjacent after", date(2025, 3, 31), date(2025, 6, 30), false},
		{"adjacent before", date(2024, 10, 1), date(2025, 1, 1), false},
		{"disjoint", date(2025, 6, 1), date(2025, 7, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, p.Overlaps(tt.start, tt.end))
		})
	}
}

func TestAccountingPeriod_Contains(t *testing.T) {
	p := createTestPeriod(t, uuid.New())

	assert.True(t, p.Contains(date(2025, 1, 1)))
	assert.True(t, p.Contains(date(2025, 2, 15)))
	assert.True(t, p.Contains(time.Date(2025, 3, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(date(2025, 3, 31)))
	assert.False(t, p.Contains(date(2024, 12, 31)))
}

func TestAccountingPeriod_Lifecycle(t *testing.T) {
	userID := uuid.New()

	t.Run("close then lock", func(t *testing.T) {
		p := createTestPeriod(t, uuid.New())
		p.ClearDomainEvents()

		require.NoError(t, p.Close(userID))
		assert.Equal(t, PeriodStatusClosed, p.Status)
		require.NotNil(t, p.ClosedAt)
		assert.Equal(t, userID, *p.ClosedBy)
		assert.False(t, p.AcceptsPostings())

		require.NoError(t, p.Lock(userID))
		assert.Equal(t, PeriodStatusLocked, p.Status)
		require.NotNil(t, p.LockedAt)

		events := p.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypePeriodClosed, events[0].EventType())
		assert.Equal(t, EventTypePeriodLocked, events[1].EventType())
	})

	t.Run("close twice fails", func(t *testing.T) {
		p := createTestPeriod(t, uuid.New())
		require.NoError(t, p.Close(userID))
		err := p.Close(userID)
		assert.ErrorIs(t, err, shared.NewDomainError("PERIOD_ALREADY_CLOSED", ""))
	})

	t.Run("close locked fails", func(t *testing.T) {
		p := createTestPeriod(t, uuid.New())
		require.NoError(t, p.Close(userID))
		require.NoError(t, p.Lock(userID))
		err := p.Close(userID)
		assert.ErrorIs(t, err, shared.NewDomainError("PERIOD_ALREADY_LOCKED", ""))
	})

	t.Run("lock open fails", func(t *testing.T) {
		p := createTestPeriod(t, uuid.New())
		err := p.Lock(userID)
		assert.ErrorIs(t, err, shared.NewDomainError("PERIOD_NOT_CLOSED", ""))
		assert.Equal(t, PeriodStatusOpen, p.Status)
	})

	t.Run("lock twice fails", func(t *testing.T) {
		p := createTestPeriod(t, uuid.New())
		require.NoError(t, p.Close(userID))
		require.NoError(t, p.Lock(userID))
		err := p.Lock(userID)
		assert.ErrorIs(t, err, shared.NewDomainError("PERIOD_ALREADY_LOCKED", ""))
	})
}
