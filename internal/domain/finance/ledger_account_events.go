package finance

import (
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant for LedgerAccount
const AggregateTypeLedgerAccount = "LedgerAccount"

// Event type constants for LedgerAccount
const (
	EventTypeLedgerAccountCreated       = "LedgerAccountCreated"
	EventTypeLedgerAccountUpdated       = "LedgerAccountUpdated"
	EventTypeLedgerAccountStatusChanged = "LedgerAccountStatusChanged"
)

// LedgerAccountCreatedEvent is raised when an account is added to the chart
type LedgerAccountCreatedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID    `json:"account_id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Class     AccountClass `json:"class"`
	Subtype   string       `json:"subtype"`
	ParentID  *uuid.UUID   `json:"parent_id,omitempty"`
}

// NewLedgerAccountCreatedEvent creates a new LedgerAccountCreatedEvent
func NewLedgerAccountCreatedEvent(a *LedgerAccount) *LedgerAccountCreatedEvent {
	return &LedgerAccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerAccountCreated, AggregateTypeLedgerAccount, a.ID, a.TenantID),
		AccountID:       a.ID,
		Code:            a.Code,
		Name:            a.Name,
		Class:           a.Class,
		Subtype:         a.Subtype,
		ParentID:        a.ParentID,
	}
}

// LedgerAccountUpdatedEvent is raised when account details change
type LedgerAccountUpdatedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	Subtype   string    `json:"subtype"`
}

// NewLedgerAccountUpdatedEvent creates a new LedgerAccountUpdatedEvent
func NewLedgerAccountUpdatedEvent(a *LedgerAccount) *LedgerAccountUpdatedEvent {
	return &LedgerAccountUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerAccountUpdated, AggregateTypeLedgerAccount, a.ID, a.TenantID),
		AccountID:       a.ID,
		Name:            a.Name,
		Subtype:         a.Subtype,
	}
}

// LedgerAccountStatusChangedEvent is raised on activation or deactivation
type LedgerAccountStatusChangedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
}

// NewLedgerAccountStatusChangedEvent creates a new LedgerAccountStatusChangedEvent
func NewLedgerAccountStatusChangedEvent(a *LedgerAccount) *LedgerAccountStatusChangedEvent {
	return &LedgerAccountStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerAccountStatusChanged, AggregateTypeLedgerAccount, a.ID, a.TenantID),
		AccountID:       a.ID,
		Code:            a.Code,
		IsActive:        a.IsActive,
	}
}
