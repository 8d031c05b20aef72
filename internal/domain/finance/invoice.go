package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType discriminates receivables, payables and credit notes
type InvoiceType string

const (
	InvoiceTypeInvoice    InvoiceType = "invoice"
	InvoiceTypeVendorBill InvoiceType = "vendor_bill"
	InvoiceTypeCreditNote InvoiceType = "credit_note"
)

// IsValid checks if the type is a valid InvoiceType
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeInvoice, InvoiceTypeVendorBill, InvoiceTypeCreditNote:
		return true
	}
	return false
}

// String returns the string representation of InvoiceType
func (t InvoiceType) String() string {
	return string(t)
}

// NumberPrefix returns the prefix of the sequential document number
func (t InvoiceType) NumberPrefix() string {
	switch t {
	case InvoiceTypeVendorBill:
		return "BILL"
	case InvoiceTypeCreditNote:
		return "CN"
	default:
		return "INV"
	}
}

// FormatInvoiceNumber renders a sequence value as a document number, e.g. INV-000001
func FormatInvoiceNumber(t InvoiceType, seq int64) string {
	return fmt.Sprintf("%s-%06d", t.NumberPrefix(), seq)
}

// PartnerType is the kind of counterparty on an invoice
type PartnerType string

const (
	PartnerTypeCustomer PartnerType = "customer"
	PartnerTypeVendor   PartnerType = "vendor"
	PartnerTypeEmployee PartnerType = "employee"
)

// IsValid checks if the type is a valid PartnerType
func (t PartnerType) IsValid() bool {
	switch t {
	case PartnerTypeCustomer, PartnerTypeVendor, PartnerTypeEmployee:
		return true
	}
	return false
}

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusOverdue, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceLine is a priced line of an invoice
type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	LineNo      int
	ProductID   *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	LineTotal   decimal.Decimal
}

// ComputeLineTotal returns quantity x unit price with tax rate percent applied
func ComputeLineTotal(quantity, unitPrice, taxRate decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(taxRate.Div(decimal.NewFromInt(100)))
	return valueobject.RoundAmount(quantity.Mul(unitPrice).Mul(factor))
}

// Invoice is a receivable, payable or credit note. AmountPaid and Status
// only change through ApplyPayment and the explicit lifecycle methods.
type Invoice struct {
	shared.TenantAggregateRoot
	Number          string
	Type            InvoiceType
	PartnerID       uuid.UUID
	PartnerType     PartnerType
	IssueDate       time.Time
	DueDate         time.Time
	Currency        valueobject.Currency
	Notes           string
	Status          InvoiceStatus
	Subtotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	AmountDue       decimal.Decimal
	SourceInvoiceID *uuid.UUID
	SentAt          *time.Time
	PaidAt          *time.Time
	CancelledAt     *time.Time
	CancelReason    string
	Lines           []InvoiceLine
}

// NewInvoice creates a draft invoice or vendor bill with totals computed from lines
func NewInvoice(
	tenantID uuid.UUID,
	number string,
	invoiceType InvoiceType,
	partnerID uuid.UUID,
	partnerType PartnerType,
	issueDate, dueDate time.Time,
	currency valueobject.Currency,
	notes string,
	lines []InvoiceLine,
) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if invoiceType != InvoiceTypeInvoice && invoiceType != InvoiceTypeVendorBill {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type must be invoice or vendor_bill")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if !partnerType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner type must be customer, vendor or employee")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	if dueDate.IsZero() {
		dueDate = issueDate
	}
	if DateOnly(dueDate).Before(DateOnly(issueDate)) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Due date cannot be before issue date")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              strings.TrimSpace(number),
		Type:                invoiceType,
		PartnerID:           partnerID,
		PartnerType:         partnerType,
		IssueDate:           DateOnly(issueDate),
		DueDate:             DateOnly(dueDate),
		Currency:            currency,
		Notes:               strings.TrimSpace(notes),
		Status:              InvoiceStatusDraft,
		AmountPaid:          decimal.Zero,
	}
	if err := inv.setLines(lines); err != nil {
		return nil, err
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

func (i *Invoice) setLines(lines []InvoiceLine) error {
	if len(lines) == 0 {
		return shared.NewDomainError("INVALID_LINES", "Invoice requires at least one line")
	}
	subtotal := decimal.Zero
	total := decimal.Zero
	normalized := make([]InvoiceLine, 0, len(lines))
	for n, line := range lines {
		if strings.TrimSpace(line.Description) == "" {
			return shared.NewDomainError("INVALID_LINES", fmt.Sprintf("Line %d: description is required", n+1))
		}
		if !line.Quantity.IsPositive() {
			return shared.NewDomainError("INVALID_LINES", fmt.Sprintf("Line %d: quantity must be positive", n+1))
		}
		if line.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_LINES", fmt.Sprintf("Line %d: unit price cannot be negative", n+1))
		}
		if line.TaxRate.IsNegative() {
			return shared.NewDomainError("INVALID_LINES", fmt.Sprintf("Line %d: tax rate cannot be negative", n+1))
		}
		if err := checkScale(fmt.Sprintf("Line %d: quantity or unit price", n+1), line.Quantity, line.UnitPrice); err != nil {
			return err
		}
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.InvoiceID = i.ID
		line.LineNo = n + 1
		line.Description = strings.TrimSpace(line.Description)
		line.LineTotal = ComputeLineTotal(line.Quantity, line.UnitPrice, line.TaxRate)
		subtotal = subtotal.Add(valueobject.RoundAmount(line.Quantity.Mul(line.UnitPrice)))
		total = total.Add(line.LineTotal)
		normalized = append(normalized, line)
	}
	i.Lines = normalized
	i.Subtotal = subtotal
	i.Total = total
	i.TaxTotal = total.Sub(subtotal)
	i.AmountDue = total.Sub(i.AmountPaid)
	return nil
}

// NewCreditNote issues a draft credit note against source. The amount is
// capped at the source total at issuance time and the note never changes after.
func NewCreditNote(source *Invoice, number string, amount decimal.Decimal, reason string, issueDate time.Time) (*Invoice, error) {
	if source == nil {
		return nil, shared.NotFound("Source invoice")
	}
	if source.Type == InvoiceTypeCreditNote {
		return nil, shared.NewDomainError("CREDIT_NOTE_SOURCE_STATUS", "Cannot issue a credit note against a credit note")
	}
	if source.Status != InvoiceStatusSent && source.Status != InvoiceStatusOverdue {
		return nil, shared.NewDomainError("CREDIT_NOTE_SOURCE_STATUS", fmt.Sprintf(
			"Credit notes can only be issued for sent or overdue invoices, current status is %s", source.Status))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit note amount must be positive")
	}
	if err := checkScale("Credit note amount", amount); err != nil {
		return nil, err
	}
	if amount.GreaterThan(source.Total) {
		return nil, shared.NewDomainError("CREDIT_NOTE_EXCEEDS_TOTAL", fmt.Sprintf(
			"Credit note amount %s exceeds invoice total %s",
			valueobject.FormatAmount(amount), valueobject.FormatAmount(source.Total)))
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Credit note number cannot be empty")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	description := "Credit for " + source.Number
	if r := strings.TrimSpace(reason); r != "" {
		description += ": " + r
	}
	sourceID := source.ID
	note := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(source.TenantID),
		Number:              strings.TrimSpace(number),
		Type:                InvoiceTypeCreditNote,
		PartnerID:           source.PartnerID,
		PartnerType:         source.PartnerType,
		IssueDate:           DateOnly(issueDate),
		DueDate:             DateOnly(issueDate),
		Currency:            source.Currency,
		Notes:               strings.TrimSpace(reason),
		Status:              InvoiceStatusDraft,
		AmountPaid:          decimal.Zero,
		SourceInvoiceID:     &sourceID,
	}
	if err := note.setLines([]InvoiceLine{{
		Description: description,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   amount,
		TaxRate:     decimal.Zero,
	}}); err != nil {
		return nil, err
	}
	note.AddDomainEvent(NewCreditNoteIssuedEvent(note, source))
	return note, nil
}

// IsCreditNote returns true if the document is a credit note
func (i *Invoice) IsCreditNote() bool {
	return i.Type == InvoiceTypeCreditNote
}

func (i *Invoice) ensureMutable(action string) error {
	if i.IsCreditNote() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s a credit note", action))
	}
	return nil
}

// Send moves a draft invoice to sent
func (i *Invoice) Send() error {
	if err := i.ensureMutable("send"); err != nil {
		return err
	}
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", i.Status))
	}
	now := time.Now()
	i.Status = InvoiceStatusSent
	i.SentAt = &now
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceSentEvent(i))
	return nil
}

// IsOverdueAt reports whether a sent invoice is past its due date on asOf
func (i *Invoice) IsOverdueAt(asOf time.Time) bool {
	return i.Status == InvoiceStatusSent && DateOnly(i.DueDate).Before(DateOnly(asOf))
}

// MarkOverdue moves a sent invoice whose due date has passed to overdue
func (i *Invoice) MarkOverdue(asOf time.Time) error {
	if err := i.ensureMutable("mark overdue"); err != nil {
		return err
	}
	if i.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice in %s status as overdue", i.Status))
	}
	if !i.IsOverdueAt(asOf) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not past its due date")
	}
	i.Status = InvoiceStatusOverdue
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceOverdueEvent(i))
	return nil
}

// Cancel voids a draft or sent invoice that has not received any payment
func (i *Invoice) Cancel(reason string) error {
	if err := i.ensureMutable("cancel"); err != nil {
		return err
	}
	if i.Status != InvoiceStatusDraft && i.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", i.Status))
	}
	if !i.AmountPaid.IsZero() {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel an invoice with recorded payments")
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = strings.TrimSpace(reason)
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceCancelledEvent(i))
	return nil
}

// ApplyPayment records a payment against the invoice and returns the
// immutable Payment. amount_due = total - amount_paid holds afterwards and
// the status becomes paid only when amount_due is exactly zero.
func (i *Invoice) ApplyPayment(amount decimal.Decimal, method PaymentMethod, paidAt time.Time, reference string) (*Payment, error) {
	if i.IsCreditNote() {
		return nil, shared.NewDomainError("INVALID_STATE", "Payments cannot be recorded against a credit note")
	}
	switch i.Status {
	case InvoiceStatusPaid:
		return nil, shared.NewDomainError("INVOICE_ALREADY_PAID", fmt.Sprintf("Invoice %s is already paid", i.Number))
	case InvoiceStatusCancelled:
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot record payment for a cancelled invoice")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if err := checkScale("Payment amount", amount); err != nil {
		return nil, err
	}
	if amount.GreaterThan(i.AmountDue) {
		return nil, shared.NewDomainError("PAYMENT_EXCEEDS_AMOUNT_DUE", fmt.Sprintf(
			"Payment exceeds amount due: payment %s, amount due %s",
			valueobject.FormatAmount(amount), valueobject.FormatAmount(i.AmountDue)))
	}

	payment, err := NewPayment(i, amount, method, paidAt, reference)
	if err != nil {
		return nil, err
	}

	i.AmountPaid = i.AmountPaid.Add(amount)
	i.AmountDue = i.Total.Sub(i.AmountPaid)
	i.IncrementVersion()
	i.AddDomainEvent(NewPaymentRecordedEvent(i, payment))

	if i.AmountDue.IsZero() {
		paid := payment.PaidAt
		i.Status = InvoiceStatusPaid
		i.PaidAt = &paid
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	}
	return payment, nil
}
