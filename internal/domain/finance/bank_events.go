package finance

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants for bank reconciliation
const (
	AggregateTypeBankAccount     = "BankAccount"
	AggregateTypeBankTransaction = "BankTransaction"
)

// Event type constants for bank reconciliation
const (
	EventTypeBankAccountCreated        = "BankAccountCreated"
	EventTypeBankAccountDeactivated    = "BankAccountDeactivated"
	EventTypeBankTransactionRecorded   = "BankTransactionRecorded"
	EventTypeBankTransactionReconciled = "BankTransactionReconciled"
)

// BankAccountCreatedEvent is raised when a bank account is registered
type BankAccountCreatedEvent struct {
	shared.BaseDomainEvent
	BankAccountID uuid.UUID `json:"bank_account_id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
	Currency      string    `json:"currency"`
}

// NewBankAccountCreatedEvent creates a new BankAccountCreatedEvent
func NewBankAccountCreatedEvent(b *BankAccount) *BankAccountCreatedEvent {
	return &BankAccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBankAccountCreated, AggregateTypeBankAccount, b.ID, b.TenantID),
		BankAccountID:   b.ID,
		Name:            b.Name,
		AccountNumber:   b.AccountNumber,
		BankName:        b.BankName,
		Currency:        b.Currency.String(),
	}
}

// BankAccountDeactivatedEvent is raised when a bank account stops accepting transactions
type BankAccountDeactivatedEvent struct {
	shared.BaseDomainEvent
	BankAccountID uuid.UUID `json:"bank_account_id"`
}

// NewBankAccountDeactivatedEvent creates a new BankAccountDeactivatedEvent
func NewBankAccountDeactivatedEvent(b *BankAccount) *BankAccountDeactivatedEvent {
	return &BankAccountDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBankAccountDeactivated, AggregateTypeBankAccount, b.ID, b.TenantID),
		BankAccountID:   b.ID,
	}
}

// BankTransactionRecordedEvent is raised when a statement line is recorded
type BankTransactionRecordedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID           `json:"transaction_id"`
	BankAccountID   uuid.UUID           `json:"bank_account_id"`
	Type            BankTransactionType `json:"type"`
	Amount          decimal.Decimal     `json:"amount"`
	TransactionDate time.Time           `json:"transaction_date"`
}

// NewBankTransactionRecordedEvent creates a new BankTransactionRecordedEvent
func NewBankTransactionRecordedEvent(t *BankTransaction) *BankTransactionRecordedEvent {
	return &BankTransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBankTransactionRecorded, AggregateTypeBankTransaction, t.ID, t.TenantID),
		TransactionID:   t.ID,
		BankAccountID:   t.BankAccountID,
		Type:            t.Type,
		Amount:          t.Amount,
		TransactionDate: t.TransactionDate,
	}
}

// BankTransactionReconciledEvent is raised when a transaction is matched to a journal entry
type BankTransactionReconciledEvent struct {
	shared.BaseDomainEvent
	TransactionID  uuid.UUID       `json:"transaction_id"`
	BankAccountID  uuid.UUID       `json:"bank_account_id"`
	JournalEntryID uuid.UUID       `json:"journal_entry_id"`
	Amount         decimal.Decimal `json:"amount"`
}

// NewBankTransactionReconciledEvent creates a new BankTransactionReconciledEvent
func NewBankTransactionReconciledEvent(t *BankTransaction) *BankTransactionReconciledEvent {
	e := &BankTransactionReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBankTransactionReconciled, AggregateTypeBankTransaction, t.ID, t.TenantID),
		TransactionID:   t.ID,
		BankAccountID:   t.BankAccountID,
		Amount:          t.Amount,
	}
	if t.JournalEntryID != nil {
		e.JournalEntryID = *t.JournalEntryID
	}
	return e
}
