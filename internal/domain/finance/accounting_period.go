package finance

import (
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// PeriodStatus represents the lifecycle state of an accounting period
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
	PeriodStatusLocked PeriodStatus = "locked"
)

// IsValid checks if the status is a valid PeriodStatus
func (s PeriodStatus) IsValid() bool {
	switch s {
	case PeriodStatusOpen, PeriodStatusClosed, PeriodStatusLocked:
		return true
	}
	return false
}

// String returns the string representation of PeriodStatus
func (s PeriodStatus) String() string {
	return string(s)
}

// AcceptsPostings reports whether journal entries may be posted into the period
func (s PeriodStatus) AcceptsPostings() bool {
	return s == PeriodStatusOpen
}

// AccountingPeriod is a tenant-scoped date range [StartDate, EndDate) that gates postings.
// Its status only moves forward: open -> closed -> locked.
type AccountingPeriod struct {
	shared.TenantAggregateRoot
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	FiscalYear int
	Status     PeriodStatus
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID
	LockedAt   *time.Time
	LockedBy   *uuid.UUID
}

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewAccountingPeriod creates an open period. Overlap with other periods of the
// tenant is a cross-aggregate rule and is enforced by the period service.
func NewAccountingPeriod(tenantID uuid.UUID, name string, startDate, endDate time.Time, fiscalYear int) (*AccountingPeriod, error) {
	name = strings.TrimSpace(name)
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PERIOD_NAME", "Period name cannot be empty")
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Start date and end date are required")
	}
	start := DateOnly(startDate)
	end := DateOnly(endDate)
	if !end.After(start) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "End date must be after start date")
	}
	if fiscalYear <= 0 {
		return nil, shared.NewDomainError("INVALID_FISCAL_YEAR", "Fiscal year must be positive")
	}

	p := &AccountingPeriod{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		StartDate:           start,
		EndDate:             end,
		FiscalYear:          fiscalYear,
		Status:              PeriodStatusOpen,
	}
	p.AddDomainEvent(NewPeriodCreatedEvent(p))
	return p, nil
}

// Overlaps reports whether [start, end) intersects the period
func (p *AccountingPeriod) Overlaps(start, end time.Time) bool {
	return DateOnly(start).Before(p.EndDate) && DateOnly(end).After(p.StartDate)
}

// Contains reports whether date falls inside [StartDate, EndDate)
func (p *AccountingPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(p.StartDate) && d.Before(p.EndDate)
}

// AcceptsPostings reports whether the period is open
func (p *AccountingPeriod) AcceptsPostings() bool {
	return p.Status.AcceptsPostings()
}

// Close moves an open period to closed
func (p *AccountingPeriod) Close(closedBy uuid.UUID) error {
	switch p.Status {
	case PeriodStatusClosed:
		return shared.NewDomainError("PERIOD_ALREADY_CLOSED", "Accounting period is already closed")
	case PeriodStatusLocked:
		return shared.NewDomainError("PERIOD_ALREADY_LOCKED", "Accounting period is already locked")
	}

	now := time.Now()
	p.Status = PeriodStatusClosed
	p.ClosedAt = &now
	if closedBy != uuid.Nil {
		p.ClosedBy = &closedBy
	}
	p.IncrementVersion()
	p.AddDomainEvent(NewPeriodClosedEvent(p))
	return nil
}

// Lock moves a closed period to locked. Open periods must be closed first.
func (p *AccountingPeriod) Lock(lockedBy uuid.UUID) error {
	switch p.Status {
	case PeriodStatusLocked:
		return shared.NewDomainError("PERIOD_ALREADY_LOCKED", "Accounting period is already locked")
	case PeriodStatusOpen:
		return shared.NewDomainError("PERIOD_NOT_CLOSED", "Accounting period must be closed before it can be locked")
	}

	now := time.Now()
	p.Status = PeriodStatusLocked
	p.LockedAt = &now
	if lockedBy != uuid.Nil {
		p.LockedBy = &lockedBy
	}
	p.IncrementVersion()
	p.AddDomainEvent(NewPeriodLockedEvent(p))
	return nil
}
