package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for invoices, vendor bills and credit notes
type InvoiceModel struct {
	TenantAggregateModel
	Number          string                `gorm:"type:varchar(32);not null;index"`
	Type            finance.InvoiceType   `gorm:"type:varchar(20);not null;index"`
	PartnerID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	PartnerType     finance.PartnerType   `gorm:"type:varchar(20);not null"`
	IssueDate       time.Time             `gorm:"type:date;not null"`
	DueDate         time.Time             `gorm:"type:date;not null;index"`
	Currency        valueobject.Currency  `gorm:"type:varchar(3);not null"`
	Notes           string                `gorm:"type:text"`
	Status          finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Subtotal        decimal.Decimal       `gorm:"type:decimal(20,8);not null"`
	TaxTotal        decimal.Decimal       `gorm:"type:decimal(20,8);not null"`
	Total           decimal.Decimal       `gorm:"type:decimal(20,8);not null"`
	AmountPaid      decimal.Decimal       `gorm:"type:decimal(20,8);not null;default:0"`
	AmountDue       decimal.Decimal       `gorm:"type:decimal(20,8);not null"`
	SourceInvoiceID *uuid.UUID            `gorm:"type:uuid;index"`
	SentAt          *time.Time
	PaidAt          *time.Time
	CancelledAt     *time.Time
	CancelReason    string             `gorm:"type:varchar(500)"`
	Lines           []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is the persistence model for invoice lines
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null"`
	ProductID   *uuid.UUID      `gorm:"type:uuid"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,8);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Invoice with its lines
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		Number:              m.Number,
		Type:                m.Type,
		PartnerID:           m.PartnerID,
		PartnerType:         m.PartnerType,
		IssueDate:           finance.DateOnly(m.IssueDate),
		DueDate:             finance.DateOnly(m.DueDate),
		Currency:            m.Currency,
		Notes:               m.Notes,
		Status:              m.Status,
		Subtotal:            m.Subtotal,
		TaxTotal:            m.TaxTotal,
		Total:               m.Total,
		AmountPaid:          m.AmountPaid,
		AmountDue:           m.AmountDue,
		SourceInvoiceID:     m.SourceInvoiceID,
		SentAt:              m.SentAt,
		PaidAt:              m.PaidAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
		Lines:               make([]finance.InvoiceLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		inv.Lines[i] = finance.InvoiceLine{
			ID:          l.ID,
			InvoiceID:   l.InvoiceID,
			LineNo:      l.LineNo,
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			LineTotal:   l.LineTotal,
		}
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:          inv.Number,
		Type:            inv.Type,
		PartnerID:       inv.PartnerID,
		PartnerType:     inv.PartnerType,
		IssueDate:       finance.DateOnly(inv.IssueDate),
		DueDate:         finance.DateOnly(inv.DueDate),
		Currency:        inv.Currency,
		Notes:           inv.Notes,
		Status:          inv.Status,
		Subtotal:        inv.Subtotal,
		TaxTotal:        inv.TaxTotal,
		Total:           inv.Total,
		AmountPaid:      inv.AmountPaid,
		AmountDue:       inv.AmountDue,
		SourceInvoiceID: inv.SourceInvoiceID,
		SentAt:          inv.SentAt,
		PaidAt:          inv.PaidAt,
		CancelledAt:     inv.CancelledAt,
		CancelReason:    inv.CancelReason,
		Lines:           make([]InvoiceLineModel, len(inv.Lines)),
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	for i, l := range inv.Lines {
		m.Lines[i] = InvoiceLineModel{
			ID:          l.ID,
			TenantID:    inv.TenantID,
			InvoiceID:   inv.ID,
			LineNo:      l.LineNo,
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			LineTotal:   l.LineTotal,
		}
	}
	return m
}

// PaymentModel is the persistence model for payments. Rows are never updated.
type PaymentModel struct {
	ID        uuid.UUID             `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal       `gorm:"type:decimal(20,8);not null"`
	Currency  valueobject.Currency  `gorm:"type:varchar(3);not null"`
	Method    finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaidAt    time.Time             `gorm:"not null"`
	Reference string                `gorm:"type:varchar(100)"`
	CreatedAt time.Time             `gorm:"not null"`
	UpdatedAt time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:  m.TenantID,
		InvoiceID: m.InvoiceID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Method:    m.Method,
		PaidAt:    m.PaidAt,
		Reference: m.Reference,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	return &PaymentModel{
		ID:        p.ID,
		TenantID:  p.TenantID,
		InvoiceID: p.InvoiceID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Method:    p.Method,
		PaidAt:    p.PaidAt,
		Reference: p.Reference,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// InvoiceSequenceModel holds the last number allocated per tenant and document type.
// The row is locked while a number is drawn so numbers are gapless within committed work.
type InvoiceSequenceModel struct {
	TenantID  uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Type      finance.InvoiceType `gorm:"type:varchar(20);primaryKey"`
	LastValue int64               `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
