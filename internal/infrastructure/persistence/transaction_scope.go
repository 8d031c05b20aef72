package persistence

import (
	"context"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxWriter stores serialized domain events using the given transaction
type OutboxWriter interface {
	PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error
}

// GormTransactionScope implements TransactionScope using GORM transactions.
// The outbox rows written through Outbox() commit or roll back with the
// aggregate rows of the same unit of work.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox OutboxWriter
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, outbox OutboxWriter) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfin.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
}

type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox OutboxWriter
}

func (r *gormTransactionalRepositories) Accounts() finance.LedgerAccountRepository {
	return NewGormLedgerAccountRepository(r.tx)
}

func (r *gormTransactionalRepositories) Periods() finance.AccountingPeriodRepository {
	return NewGormAccountingPeriodRepository(r.tx)
}

func (r *gormTransactionalRepositories) Journals() finance.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Invoices() finance.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) Payments() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) BankAccounts() finance.BankAccountRepository {
	return NewGormBankAccountRepository(r.tx)
}

func (r *gormTransactionalRepositories) BankTransactions() finance.BankTransactionRepository {
	return NewGormBankTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Outbox() shared.OutboxEventSaver {
	return txOutbox{tx: r.tx, writer: r.outbox}
}

// txOutbox binds an OutboxWriter to one transaction
type txOutbox struct {
	tx     *gorm.DB
	writer OutboxWriter
}

func (o txOutbox) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	return o.writer.PublishWithTx(ctx, o.tx, events...)
}

var (
	_ appfin.TransactionScope          = (*GormTransactionScope)(nil)
	_ appfin.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
