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

// BankTransactionType is the direction of a bank statement line
type BankTransactionType string

const (
	BankTransactionTypeCredit BankTransactionType = "credit"
	BankTransactionTypeDebit  BankTransactionType = "debit"
)

// IsValid checks if the type is a valid BankTransactionType
func (t BankTransactionType) IsValid() bool {
	return t == BankTransactionTypeCredit || t == BankTransactionTypeDebit
}

// BankTransactionStatus represents the reconciliation state of a transaction
type BankTransactionStatus string

const (
	BankTransactionStatusUnreconciled BankTransactionStatus = "unreconciled"
	BankTransactionStatusReconciled   BankTransactionStatus = "reconciled"
)

// IsValid checks if the status is a valid BankTransactionStatus
func (s BankTransactionStatus) IsValid() bool {
	return s == BankTransactionStatusUnreconciled || s == BankTransactionStatusReconciled
}

// BankTransaction is a bank statement line. It is reconciled exactly once.
type BankTransaction struct {
	shared.TenantAggregateRoot
	BankAccountID   uuid.UUID
	Type            BankTransactionType
	Amount          decimal.Decimal
	Currency        valueobject.Currency
	TransactionDate time.Time
	Description     string
	Reference       string
	Status          BankTransactionStatus
	JournalEntryID  *uuid.UUID
	ReconciledAt    *time.Time
	ReconciledBy    *uuid.UUID
}

// NewBankTransaction records an unreconciled transaction on an active bank account
func NewBankTransaction(
	account *BankAccount,
	txType BankTransactionType,
	amount decimal.Decimal,
	transactionDate time.Time,
	description, reference string,
) (*BankTransaction, error) {
	if account == nil {
		return nil, shared.NotFound("Bank account")
	}
	if !account.IsActive {
		return nil, shared.NewDomainError("BANK_ACCOUNT_INACTIVE", fmt.Sprintf("Bank account %s is inactive", account.Name))
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type must be credit or debit")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if err := checkScale("Transaction amount", amount); err != nil {
		return nil, err
	}
	if transactionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Transaction date is required")
	}

	tx := &BankTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(account.TenantID),
		BankAccountID:       account.ID,
		Type:                txType,
		Amount:              amount,
		Currency:            account.Currency,
		TransactionDate:     DateOnly(transactionDate),
		Description:         strings.TrimSpace(description),
		Reference:           strings.TrimSpace(reference),
		Status:              BankTransactionStatusUnreconciled,
	}
	tx.AddDomainEvent(NewBankTransactionRecordedEvent(tx))
	return tx, nil
}

// IsReconciled returns true once the transaction is matched
func (t *BankTransaction) IsReconciled() bool {
	return t.Status == BankTransactionStatusReconciled
}

// Reconcile matches the transaction to a journal entry that is no longer a draft
func (t *BankTransaction) Reconcile(entry *JournalEntry, reconciledBy uuid.UUID) error {
	if t.IsReconciled() {
		return shared.NewDomainError("TRANSACTION_ALREADY_RECONCILED", "Bank transaction is already reconciled")
	}
	if entry == nil || entry.TenantID != t.TenantID {
		return shared.NotFound("Journal entry")
	}
	if entry.IsDraft() {
		return shared.NewDomainError("JOURNAL_ENTRY_DRAFT", "Cannot reconcile against a draft journal entry")
	}

	now := time.Now()
	entryID := entry.ID
	t.Status = BankTransactionStatusReconciled
	t.JournalEntryID = &entryID
	t.ReconciledAt = &now
	if reconciledBy != uuid.Nil {
		t.ReconciledBy = &reconciledBy
	}
	t.IncrementVersion()
	t.AddDomainEvent(NewBankTransactionReconciledEvent(t))
	return nil
}
