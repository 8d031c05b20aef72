package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerAccountModel is the persistence model for the chart of accounts
type LedgerAccountModel struct {
	TenantAggregateModel
	Code        string               `gorm:"type:varchar(32);not null;index"`
	Name        string               `gorm:"type:varchar(200);not null"`
	Class       finance.AccountClass `gorm:"type:varchar(20);not null;index"`
	Subtype     string               `gorm:"type:varchar(50)"`
	Description string               `gorm:"type:text"`
	ParentID    *uuid.UUID           `gorm:"type:uuid;index"`
	IsActive    bool                 `gorm:"not null;default:true"`
	Balance     decimal.Decimal      `gorm:"type:decimal(20,8);not null;default:0"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (LedgerAccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the persistence model to a domain LedgerAccount
func (m *LedgerAccountModel) ToDomain() *finance.LedgerAccount {
	return &finance.LedgerAccount{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Class:               m.Class,
		Subtype:             m.Subtype,
		Description:         m.Description,
		ParentID:            m.ParentID,
		IsActive:            m.IsActive,
		Balance:             m.Balance,
		Currency:            m.Currency,
	}
}

// LedgerAccountModelFromDomain creates a persistence model from a domain LedgerAccount
func LedgerAccountModelFromDomain(a *finance.LedgerAccount) *LedgerAccountModel {
	m := &LedgerAccountModel{
		Code:        a.Code,
		Name:        a.Name,
		Class:       a.Class,
		Subtype:     a.Subtype,
		Description: a.Description,
		ParentID:    a.ParentID,
		IsActive:    a.IsActive,
		Balance:     a.Balance,
		Currency:    a.Currency,
	}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// AccountingPeriodModel is the persistence model for accounting periods.
// Overlap between periods of a tenant is excluded by a database constraint
// in addition to the check made under lock by the period service.
type AccountingPeriodModel struct {
	TenantAggregateModel
	Name       string              `gorm:"type:varchar(100);not null"`
	StartDate  time.Time           `gorm:"type:date;not null;index:idx_period_tenant_range,priority:2"`
	EndDate    time.Time           `gorm:"type:date;not null;index:idx_period_tenant_range,priority:3"`
	FiscalYear int                 `gorm:"not null;index"`
	Status     finance.PeriodStatus `gorm:"type:varchar(20);not null;default:'open'"`
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID `gorm:"type:uuid"`
	LockedAt   *time.Time
	LockedBy   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AccountingPeriodModel) TableName() string {
	return "accounting_periods"
}

// ToDomain converts the persistence model to a domain AccountingPeriod
func (m *AccountingPeriodModel) ToDomain() *finance.AccountingPeriod {
	return &finance.AccountingPeriod{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		Name:                m.Name,
		StartDate:           finance.DateOnly(m.StartDate),
		EndDate:             finance.DateOnly(m.EndDate),
		FiscalYear:          m.FiscalYear,
		Status:              m.Status,
		ClosedAt:            m.ClosedAt,
		ClosedBy:            m.ClosedBy,
		LockedAt:            m.LockedAt,
		LockedBy:            m.LockedBy,
	}
}

// AccountingPeriodModelFromDomain creates a persistence model from a domain AccountingPeriod
func AccountingPeriodModelFromDomain(p *finance.AccountingPeriod) *AccountingPeriodModel {
	m := &AccountingPeriodModel{
		Name:       p.Name,
		StartDate:  finance.DateOnly(p.StartDate),
		EndDate:    finance.DateOnly(p.EndDate),
		FiscalYear: p.FiscalYear,
		Status:     p.Status,
		ClosedAt:   p.ClosedAt,
		ClosedBy:   p.ClosedBy,
		LockedAt:   p.LockedAt,
		LockedBy:   p.LockedBy,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// JournalEntryModel is the persistence model for journal entry headers
type JournalEntryModel struct {
	TenantAggregateModel
	ReferenceNumber string                     `gorm:"type:varchar(64);not null;index"`
	EntryDate       time.Time                  `gorm:"type:date;not null;index"`
	Description     string                     `gorm:"type:text"`
	Status          finance.JournalEntryStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Source          string                     `gorm:"type:varchar(50);not null;default:'manual'"`
	PeriodID        *uuid.UUID                 `gorm:"type:uuid;index"`
	ReversalOfID    *uuid.UUID                 `gorm:"type:uuid"`
	ReversedByID    *uuid.UUID                 `gorm:"type:uuid"`
	PostedAt        *time.Time
	Lines           []JournalEntryLineModel `gorm:"foreignKey:JournalEntryID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// JournalEntryLineModel is the persistence model for journal entry lines
type JournalEntryLineModel struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	JournalEntryID uuid.UUID            `gorm:"type:uuid;not null;index"`
	LineNo         int                  `gorm:"not null"`
	AccountID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	Debit          decimal.Decimal      `gorm:"type:decimal(20,8);not null;default:0"`
	Credit         decimal.Decimal      `gorm:"type:decimal(20,8);not null;default:0"`
	Description    string               `gorm:"type:varchar(500)"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (JournalEntryLineModel) TableName() string {
	return "journal_entry_lines"
}

// ToDomain converts the persistence model to a domain JournalEntry with its lines
func (m *JournalEntryModel) ToDomain() *finance.JournalEntry {
	entry := &finance.JournalEntry{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		ReferenceNumber:     m.ReferenceNumber,
		EntryDate:           finance.DateOnly(m.EntryDate),
		Description:         m.Description,
		Status:              m.Status,
		Source:              m.Source,
		PeriodID:            m.PeriodID,
		ReversalOfID:        m.ReversalOfID,
		ReversedByID:        m.ReversedByID,
		PostedAt:            m.PostedAt,
		Lines:               make([]finance.JournalEntryLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		entry.Lines[i] = finance.JournalEntryLine{
			ID:             l.ID,
			JournalEntryID: l.JournalEntryID,
			LineNo:         l.LineNo,
			AccountID:      l.AccountID,
			Debit:          l.Debit,
			Credit:         l.Credit,
			Description:    l.Description,
			Currency:       l.Currency,
		}
	}
	return entry
}

// JournalEntryModelFromDomain creates a persistence model from a domain JournalEntry
func JournalEntryModelFromDomain(e *finance.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{
		ReferenceNumber: e.ReferenceNumber,
		EntryDate:       finance.DateOnly(e.EntryDate),
		Description:     e.Description,
		Status:          e.Status,
		Source:          e.Source,
		PeriodID:        e.PeriodID,
		ReversalOfID:    e.ReversalOfID,
		ReversedByID:    e.ReversedByID,
		PostedAt:        e.PostedAt,
		Lines:           make([]JournalEntryLineModel, len(e.Lines)),
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	for i, l := range e.Lines {
		m.Lines[i] = JournalEntryLineModel{
			ID:             l.ID,
			TenantID:       e.TenantID,
			JournalEntryID: e.ID,
			LineNo:         l.LineNo,
			AccountID:      l.AccountID,
			Debit:          l.Debit,
			Credit:         l.Credit,
			Description:    l.Description,
			Currency:       l.Currency,
		}
	}
	return m
}
