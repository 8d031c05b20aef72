package finance

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant for JournalEntry
const AggregateTypeJournalEntry = "JournalEntry"

// Event type constants for JournalEntry
const (
	EventTypeJournalEntryCreated  = "JournalEntryCreated"
	EventTypeJournalEntryUpdated  = "JournalEntryUpdated"
	EventTypeJournalEntryPosted   = "JournalEntryPosted"
	EventTypeJournalEntryReversed = "JournalEntryReversed"
)

// JournalLinePayload is the event representation of a journal line
type JournalLinePayload struct {
	LineNo      int             `json:"line_no"`
	AccountID   uuid.UUID       `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
	Currency    string          `json:"currency"`
}

func journalLinePayloads(lines []JournalEntryLine) []JournalLinePayload {
	out := make([]JournalLinePayload, len(lines))
	for i, l := range lines {
		out[i] = JournalLinePayload{
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			Currency:    l.Currency.String(),
		}
	}
	return out
}

// JournalEntryCreatedEvent is raised when a draft entry is recorded
type JournalEntryCreatedEvent struct {
	shared.BaseDomainEvent
	JournalEntryID  uuid.UUID       `json:"journal_entry_id"`
	ReferenceNumber string          `json:"reference_number"`
	EntryDate       time.Time       `json:"entry_date"`
	Source          string          `json:"source"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	LineCount       int             `json:"line_count"`
}

// NewJournalEntryCreatedEvent creates a new JournalEntryCreatedEvent
func NewJournalEntryCreatedEvent(e *JournalEntry) *JournalEntryCreatedEvent {
	return &JournalEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryCreated, AggregateTypeJournalEntry, e.ID, e.TenantID),
		JournalEntryID:  e.ID,
		ReferenceNumber: e.ReferenceNumber,
		EntryDate:       e.EntryDate,
		Source:          e.Source,
		TotalDebit:      e.TotalDebit(),
		TotalCredit:     e.TotalCredit(),
		LineCount:       len(e.Lines),
	}
}

// JournalEntryUpdatedEvent is raised when a draft entry is edited
type JournalEntryUpdatedEvent struct {
	shared.BaseDomainEvent
	JournalEntryID uuid.UUID `json:"journal_entry_id"`
	LineCount      int       `json:"line_count"`
}

// NewJournalEntryUpdatedEvent creates a new JournalEntryUpdatedEvent
func NewJournalEntryUpdatedEvent(e *JournalEntry) *JournalEntryUpdatedEvent {
	return &JournalEntryUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryUpdated, AggregateTypeJournalEntry, e.ID, e.TenantID),
		JournalEntryID:  e.ID,
		LineCount:       len(e.Lines),
	}
}

// JournalEntryPostedEvent is raised when an entry becomes authoritative.
// It carries the lines so that balance projections need no extra read.
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	JournalEntryID  uuid.UUID            `json:"journal_entry_id"`
	ReferenceNumber string               `json:"reference_number"`
	EntryDate       time.Time            `json:"entry_date"`
	PeriodID        uuid.UUID            `json:"period_id"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Lines           []JournalLinePayload `json:"lines"`
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(e *JournalEntry) *JournalEntryPostedEvent {
	event := &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryPosted, AggregateTypeJournalEntry, e.ID, e.TenantID),
		JournalEntryID:  e.ID,
		ReferenceNumber: e.ReferenceNumber,
		EntryDate:       e.EntryDate,
		TotalAmount:     e.TotalDebit(),
		Lines:           journalLinePayloads(e.Lines),
	}
	if e.PeriodID != nil {
		event.PeriodID = *e.PeriodID
	}
	return event
}

// JournalEntryReversedEvent is raised when a posted entry is offset by a reversal
type JournalEntryReversedEvent struct {
	shared.BaseDomainEvent
	JournalEntryID  uuid.UUID `json:"journal_entry_id"`
	ReversalEntryID uuid.UUID `json:"reversal_entry_id"`
	ReferenceNumber string    `json:"reference_number"`
}

// NewJournalEntryReversedEvent creates a new JournalEntryReversedEvent
func NewJournalEntryReversedEvent(original, reversal *JournalEntry) *JournalEntryReversedEvent {
	return &JournalEntryReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryReversed, AggregateTypeJournalEntry, original.ID, original.TenantID),
		JournalEntryID:  original.ID,
		ReversalEntryID: reversal.ID,
		ReferenceNumber: original.ReferenceNumber,
	}
}
