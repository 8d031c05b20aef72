package finance

import (
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// BankAccount is a tenant's account at a bank whose statement lines are reconciled
type BankAccount struct {
	shared.TenantAggregateRoot
	Name            string
	AccountNumber   string
	BankName        string
	Currency        valueobject.Currency
	LedgerAccountID *uuid.UUID
	IsActive        bool
}

// NewBankAccount creates an active bank account
func NewBankAccount(tenantID uuid.UUID, name, accountNumber, bankName string, currency valueobject.Currency) (*BankAccount, error) {
	name = strings.TrimSpace(name)
	accountNumber = strings.TrimSpace(accountNumber)
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Bank account name cannot be empty")
	}
	if accountNumber == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NUMBER", "Account number cannot be empty")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	ba := &BankAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		AccountNumber:       accountNumber,
		BankName:            strings.TrimSpace(bankName),
		Currency:            currency,
		IsActive:            true,
	}
	ba.AddDomainEvent(NewBankAccountCreatedEvent(ba))
	return ba, nil
}

// LinkLedgerAccount associates the bank account with its asset account in the chart
func (b *BankAccount) LinkLedgerAccount(account *LedgerAccount) error {
	if account == nil {
		b.LedgerAccountID = nil
		return nil
	}
	if account.TenantID != b.TenantID {
		return shared.NotFound("Ledger account")
	}
	if account.Class != AccountClassAsset {
		return shared.NewDomainError("INVALID_ACCOUNT_CLASS", "Bank accounts must be linked to an asset account")
	}
	id := account.ID
	b.LedgerAccountID = &id
	return nil
}

// Deactivate stops new transactions from being recorded
func (b *BankAccount) Deactivate() error {
	if !b.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Bank account is already inactive")
	}
	b.IsActive = false
	b.IncrementVersion()
	b.AddDomainEvent(NewBankAccountDeactivatedEvent(b))
	return nil
}
