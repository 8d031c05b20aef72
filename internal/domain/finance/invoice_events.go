package finance

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant for Invoice
const AggregateTypeInvoice = "Invoice"

// Event type constants for Invoice
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoiceSent      = "InvoiceSent"
	EventTypeInvoiceOverdue   = "InvoiceOverdue"
	EventTypeInvoiceCancelled = "InvoiceCancelled"
	EventTypeInvoicePaid      = "InvoicePaid"
	EventTypeCreditNoteIssued = "CreditNoteIssued"
	EventTypePaymentRecorded  = "PaymentRecorded"
)

// InvoiceCreatedEvent is raised when a draft invoice or vendor bill is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Number      string          `json:"number"`
	InvoiceType InvoiceType     `json:"invoice_type"`
	PartnerID   uuid.UUID       `json:"partner_id"`
	PartnerType PartnerType     `json:"partner_type"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	DueDate     time.Time       `json:"due_date"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, i.ID, i.TenantID),
		InvoiceID:       i.ID,
		Number:          i.Number,
		InvoiceType:     i.Type,
		PartnerID:       i.PartnerID,
		PartnerType:     i.PartnerType,
		Total:           i.Total,
		Currency:        i.Currency.String(),
		DueDate:         i.DueDate,
	}
}

// InvoiceStatusEvent is the payload shared by the simple lifecycle events
type InvoiceStatusEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Number    string          `json:"number"`
	Status    InvoiceStatus   `json:"status"`
	AmountDue decimal.Decimal `json:"amount_due"`
}

func newInvoiceStatusEvent(eventType string, i *Invoice) InvoiceStatusEvent {
	return InvoiceStatusEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, i.ID, i.TenantID),
		InvoiceID:       i.ID,
		Number:          i.Number,
		Status:          i.Status,
		AmountDue:       i.AmountDue,
	}
}

// InvoiceSentEvent is raised when a draft invoice is sent to the partner
type InvoiceSentEvent struct {
	InvoiceStatusEvent
}

// NewInvoiceSentEvent creates a new InvoiceSentEvent
func NewInvoiceSentEvent(i *Invoice) *InvoiceSentEvent {
	return &InvoiceSentEvent{InvoiceStatusEvent: newInvoiceStatusEvent(EventTypeInvoiceSent, i)}
}

// InvoiceOverdueEvent is raised when a sent invoice passes its due date
type InvoiceOverdueEvent struct {
	InvoiceStatusEvent
	DueDate time.Time `json:"due_date"`
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(i *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		InvoiceStatusEvent: newInvoiceStatusEvent(EventTypeInvoiceOverdue, i),
		DueDate:            i.DueDate,
	}
}

// InvoiceCancelledEvent is raised when an unpaid invoice is voided
type InvoiceCancelledEvent struct {
	InvoiceStatusEvent
	Reason string `json:"reason,omitempty"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(i *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		InvoiceStatusEvent: newInvoiceStatusEvent(EventTypeInvoiceCancelled, i),
		Reason:             i.CancelReason,
	}
}

// InvoicePaidEvent is raised when amount due reaches zero
type InvoicePaidEvent struct {
	InvoiceStatusEvent
	Total decimal.Decimal `json:"total"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(i *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		InvoiceStatusEvent: newInvoiceStatusEvent(EventTypeInvoicePaid, i),
		Total:              i.Total,
	}
}

// CreditNoteIssuedEvent is raised when a credit note is issued against an invoice
type CreditNoteIssuedEvent struct {
	shared.BaseDomainEvent
	CreditNoteID    uuid.UUID       `json:"credit_note_id"`
	Number          string          `json:"number"`
	SourceInvoiceID uuid.UUID       `json:"source_invoice_id"`
	SourceNumber    string          `json:"source_number"`
	PartnerID       uuid.UUID       `json:"partner_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// NewCreditNoteIssuedEvent creates a new CreditNoteIssuedEvent
func NewCreditNoteIssuedEvent(note, source *Invoice) *CreditNoteIssuedEvent {
	return &CreditNoteIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditNoteIssued, AggregateTypeInvoice, note.ID, note.TenantID),
		CreditNoteID:    note.ID,
		Number:          note.Number,
		SourceInvoiceID: source.ID,
		SourceNumber:    source.Number,
		PartnerID:       note.PartnerID,
		Amount:          note.Total,
		Currency:        note.Currency.String(),
	}
}

// PaymentRecordedEvent is raised for every payment applied to an invoice
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID       `json:"payment_id"`
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Number     string          `json:"number"`
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	Method     PaymentMethod   `json:"method"`
	PaidAt     time.Time       `json:"paid_at"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(i *Invoice, p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeInvoice, i.ID, i.TenantID),
		PaymentID:       p.ID,
		InvoiceID:       i.ID,
		Number:          i.Number,
		Amount:          p.Amount,
		AmountPaid:      i.AmountPaid,
		AmountDue:       i.AmountDue,
		Method:          p.Method,
		PaidAt:          p.PaidAt,
	}
}
