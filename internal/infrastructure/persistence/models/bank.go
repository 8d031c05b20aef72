package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccountModel is the persistence model for bank accounts
type BankAccountModel struct {
	TenantAggregateModel
	Name            string               `gorm:"type:varchar(200);not null"`
	AccountNumber   string               `gorm:"type:varchar(64);not null;index"`
	BankName        string               `gorm:"type:varchar(200)"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null"`
	LedgerAccountID *uuid.UUID           `gorm:"type:uuid"`
	IsActive        bool                 `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain BankAccount
func (m *BankAccountModel) ToDomain() *finance.BankAccount {
	return &finance.BankAccount{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		Name:                m.Name,
		AccountNumber:       m.AccountNumber,
		BankName:            m.BankName,
		Currency:            m.Currency,
		LedgerAccountID:     m.LedgerAccountID,
		IsActive:            m.IsActive,
	}
}

// BankAccountModelFromDomain creates a persistence model from a domain BankAccount
func BankAccountModelFromDomain(b *finance.BankAccount) *BankAccountModel {
	m := &BankAccountModel{
		Name:            b.Name,
		AccountNumber:   b.AccountNumber,
		BankName:        b.BankName,
		Currency:        b.Currency,
		LedgerAccountID: b.LedgerAccountID,
		IsActive:        b.IsActive,
	}
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	return m
}

// BankTransactionModel is the persistence model for bank statement lines
type BankTransactionModel struct {
	TenantAggregateModel
	BankAccountID   uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Type            finance.BankTransactionType   `gorm:"type:varchar(10);not null"`
	Amount          decimal.Decimal               `gorm:"type:decimal(20,8);not null"`
	Currency        valueobject.Currency          `gorm:"type:varchar(3);not null"`
	TransactionDate time.Time                     `gorm:"type:date;not null;index"`
	Description     string                        `gorm:"type:varchar(500)"`
	Reference       string                        `gorm:"type:varchar(100)"`
	Status          finance.BankTransactionStatus `gorm:"type:varchar(20);not null;default:'unreconciled';index"`
	JournalEntryID  *uuid.UUID                    `gorm:"type:uuid;index"`
	ReconciledAt    *time.Time
	ReconciledBy    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain BankTransaction
func (m *BankTransactionModel) ToDomain() *finance.BankTransaction {
	return &finance.BankTransaction{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		BankAccountID:       m.BankAccountID,
		Type:                m.Type,
		Amount:              m.Amount,
		Currency:            m.Currency,
		TransactionDate:     finance.DateOnly(m.TransactionDate),
		Description:         m.Description,
		Reference:           m.Reference,
		Status:              m.Status,
		JournalEntryID:      m.JournalEntryID,
		ReconciledAt:        m.ReconciledAt,
		ReconciledBy:        m.ReconciledBy,
	}
}

// BankTransactionModelFromDomain creates a persistence model from a domain BankTransaction
func BankTransactionModelFromDomain(t *finance.BankTransaction) *BankTransactionModel {
	m := &BankTransactionModel{
		BankAccountID:   t.BankAccountID,
		Type:            t.Type,
		Amount:          t.Amount,
		Currency:        t.Currency,
		TransactionDate: finance.DateOnly(t.TransactionDate),
		Description:     t.Description,
		Reference:       t.Reference,
		Status:          t.Status,
		JournalEntryID:  t.JournalEntryID,
		ReconciledAt:    t.ReconciledAt,
		ReconciledBy:    t.ReconciledBy,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}
