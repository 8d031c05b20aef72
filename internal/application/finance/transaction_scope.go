package finance

import (
	"context"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
)

// TransactionScope runs a unit of work. Every ledger mutation goes through
// Execute: if fn returns an error nothing it wrote is kept, otherwise all of
// its writes, including the outbox rows for its events, commit together.
type TransactionScope interface {
	// Execute runs fn inside one database transaction.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the finance repositories bound to one
// transaction. Row locks taken through the ForUpdate lookups are held until
// the transaction ends.
type TransactionalRepositories interface {
	Accounts() finance.LedgerAccountRepository
	Periods() finance.AccountingPeriodRepository
	Journals() finance.JournalEntryRepository
	Invoices() finance.InvoiceRepository
	Payments() finance.PaymentRepository
	BankAccounts() finance.BankAccountRepository
	BankTransactions() finance.BankTransactionRepository
	// Outbox stores domain events in the same transaction
	Outbox() shared.OutboxEventSaver
}

// eventSource is implemented by every finance aggregate
type eventSource interface {
	PullDomainEvents() []shared.DomainEvent
}

// collectEvents drains the pending events of the aggregates and writes them
// to the outbox of the current transaction
func collectEvents(ctx context.Context, repos TransactionalRepositories, sources ...eventSource) ([]shared.DomainEvent, error) {
	var events []shared.DomainEvent
	for _, src := range sources {
		events = append(events, src.PullDomainEvents()...)
	}
	if len(events) == 0 {
		return nil, nil
	}
	if err := repos.Outbox().SaveEvents(ctx, events...); err != nil {
		return nil, err
	}
	return events, nil
}
