package finance

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant for AccountingPeriod
const AggregateTypeAccountingPeriod = "AccountingPeriod"

// Event type constants for AccountingPeriod
const (
	EventTypePeriodCreated = "PeriodCreated"
	EventTypePeriodClosed  = "PeriodClosed"
	EventTypePeriodLocked  = "PeriodLocked"
)

// PeriodCreatedEvent is raised when a new accounting period is opened
type PeriodCreatedEvent struct {
	shared.BaseDomainEvent
	PeriodID   uuid.UUID `json:"period_id"`
	Name       string    `json:"name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	FiscalYear int       `json:"fiscal_year"`
}

// NewPeriodCreatedEvent creates a new PeriodCreatedEvent
func NewPeriodCreatedEvent(p *AccountingPeriod) *PeriodCreatedEvent {
	return &PeriodCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePeriodCreated, AggregateTypeAccountingPeriod, p.ID, p.TenantID),
		PeriodID:        p.ID,
		Name:            p.Name,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		FiscalYear:      p.FiscalYear,
	}
}

// PeriodClosedEvent is raised when a period stops accepting postings
type PeriodClosedEvent struct {
	shared.BaseDomainEvent
	PeriodID uuid.UUID  `json:"period_id"`
	Name     string     `json:"name"`
	ClosedBy *uuid.UUID `json:"closed_by,omitempty"`
	ClosedAt time.Time  `json:"closed_at"`
}

// NewPeriodClosedEvent creates a new PeriodClosedEvent
func NewPeriodClosedEvent(p *AccountingPeriod) *PeriodClosedEvent {
	e := &PeriodClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePeriodClosed, AggregateTypeAccountingPeriod, p.ID, p.TenantID),
		PeriodID:        p.ID,
		Name:            p.Name,
		ClosedBy:        p.ClosedBy,
	}
	if p.ClosedAt != nil {
		e.ClosedAt = *p.ClosedAt
	}
	return e
}

// PeriodLockedEvent is raised when a closed period is made permanent
type PeriodLockedEvent struct {
	shared.BaseDomainEvent
	PeriodID uuid.UUID  `json:"period_id"`
	Name     string     `json:"name"`
	LockedBy *uuid.UUID `json:"locked_by,omitempty"`
	LockedAt time.Time  `json:"locked_at"`
}

// NewPeriodLockedEvent creates a new PeriodLockedEvent
func NewPeriodLockedEvent(p *AccountingPeriod) *PeriodLockedEvent {
	e := &PeriodLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePeriodLocked, AggregateTypeAccountingPeriod, p.ID, p.TenantID),
		PeriodID:        p.ID,
		Name:            p.Name,
		LockedBy:        p.LockedBy,
	}
	if p.LockedAt != nil {
		e.LockedAt = *p.LockedAt
	}
	return e
}
