package finance

import (
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was settled
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is an append-only settlement of an invoice. It is only created
// through Invoice.ApplyPayment so that its effect on the invoice is applied
// in the same unit of work.
type Payment struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Currency  valueobject.Currency
	Method    PaymentMethod
	PaidAt    time.Time
	Reference string
}

// NewPayment builds the payment record for inv
func NewPayment(inv *Invoice, amount decimal.Decimal, method PaymentMethod, paidAt time.Time, reference string) (*Payment, error) {
	if method == "" {
		method = PaymentMethodBankTransfer
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cash, bank_transfer, card, check or other")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if err := checkScale("Payment amount", amount); err != nil {
		return nil, err
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return &Payment{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   inv.TenantID,
		InvoiceID:  inv.ID,
		Amount:     amount,
		Currency:   inv.Currency,
		Method:     method,
		PaidAt:     paidAt,
		Reference:  strings.TrimSpace(reference),
	}, nil
}
