package finance

import (
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountClass is the top-level classification of a ledger account
type AccountClass string

const (
	AccountClassAsset     AccountClass = "asset"
	AccountClassLiability AccountClass = "liability"
	AccountClassEquity    AccountClass = "equity"
	AccountClassRevenue   AccountClass = "revenue"
	AccountClassExpense   AccountClass = "expense"
)

// IsValid checks if the class is one of the five account classes
func (c AccountClass) IsValid() bool {
	switch c {
	case AccountClassAsset, AccountClassLiability, AccountClassEquity,
		AccountClassRevenue, AccountClassExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountClass
func (c AccountClass) String() string {
	return string(c)
}

// IsDebitNormal reports whether debits increase the account balance
func (c AccountClass) IsDebitNormal() bool {
	return c == AccountClassAsset || c == AccountClassExpense
}

// LedgerAccount is a node in a tenant's chart of accounts.
// Balance is a running projection of posted lines and is not authoritative;
// the journal lines are.
type LedgerAccount struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Class       AccountClass
	Subtype     string
	Description string
	ParentID    *uuid.UUID
	IsActive    bool
	Balance     decimal.Decimal
	Currency    valueobject.Currency
}

// NewLedgerAccount creates an active account with a zero balance
func NewLedgerAccount(
	tenantID uuid.UUID,
	code, name string,
	class AccountClass,
	subtype string,
	currency valueobject.Currency,
) (*LedgerAccount, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if len(code) > 32 {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot exceed 32 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !class.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CLASS", "Account class must be one of asset, liability, equity, revenue, expense")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	account := &LedgerAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Class:               class,
		Subtype:             strings.TrimSpace(subtype),
		IsActive:            true,
		Balance:             decimal.Zero,
		Currency:            currency,
	}
	account.AddDomainEvent(NewLedgerAccountCreatedEvent(account))
	return account, nil
}

// AttachTo places the account under parent in the hierarchy
func (a *LedgerAccount) AttachTo(parent *LedgerAccount) error {
	if parent == nil {
		a.ParentID = nil
		return nil
	}
	if parent.TenantID != a.TenantID {
		return shared.NotFound("Parent account")
	}
	if parent.ID == a.ID {
		return shared.NewDomainError("INVALID_PARENT", "Account cannot be its own parent")
	}
	if parent.Class != a.Class {
		return shared.NewDomainError("INVALID_PARENT", "Parent account must have the same class")
	}
	id := parent.ID
	a.ParentID = &id
	return nil
}

// Update changes the descriptive fields of the account
func (a *LedgerAccount) Update(name, subtype, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	a.Name = name
	a.Subtype = strings.TrimSpace(subtype)
	a.Description = description
	a.IncrementVersion()
	a.AddDomainEvent(NewLedgerAccountUpdatedEvent(a))
	return nil
}

// Deactivate hides the account from new postings. Referenced accounts are
// deactivated rather than deleted.
func (a *LedgerAccount) Deactivate() error {
	if !a.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Account is already inactive")
	}
	a.IsActive = false
	a.IncrementVersion()
	a.AddDomainEvent(NewLedgerAccountStatusChangedEvent(a))
	return nil
}

// Activate re-enables the account
func (a *LedgerAccount) Activate() error {
	if a.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Account is already active")
	}
	a.IsActive = true
	a.IncrementVersion()
	a.AddDomainEvent(NewLedgerAccountStatusChangedEvent(a))
	return nil
}

// ApplyPosting moves the running balance by a posted line
func (a *LedgerAccount) ApplyPosting(debit, credit decimal.Decimal) {
	if a.Class.IsDebitNormal() {
		a.Balance = a.Balance.Add(debit).Sub(credit)
	} else {
		a.Balance = a.Balance.Add(credit).Sub(debit)
	}
	a.IncrementVersion()
}
