package event

import (
	"github.com/erp/accounting/internal/domain/asset"
	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/hr"
	"github.com/erp/accounting/internal/domain/trade"
)

// RegisterFinanceEvents registers the events raised by the ledger. The relay
// needs them to re-deliver outbox rows.
func RegisterFinanceEvents(s *EventSerializer) {
	s.Register(finance.EventTypeLedgerAccountCreated, &finance.LedgerAccountCreatedEvent{})
	s.Register(finance.EventTypeLedgerAccountUpdated, &finance.LedgerAccountUpdatedEvent{})
	s.Register(finance.EventTypeLedgerAccountStatusChanged, &finance.LedgerAccountStatusChangedEvent{})

	s.Register(finance.EventTypePeriodCreated, &finance.PeriodCreatedEvent{})
	s.Register(finance.EventTypePeriodClosed, &finance.PeriodClosedEvent{})
	s.Register(finance.EventTypePeriodLocked, &finance.PeriodLockedEvent{})

	s.Register(finance.EventTypeJournalEntryCreated, &finance.JournalEntryCreatedEvent{})
	s.Register(finance.EventTypeJournalEntryUpdated, &finance.JournalEntryUpdatedEvent{})
	s.Register(finance.EventTypeJournalEntryPosted, &finance.JournalEntryPostedEvent{})
	s.Register(finance.EventTypeJournalEntryReversed, &finance.JournalEntryReversedEvent{})

	s.Register(finance.EventTypeInvoiceCreated, &finance.InvoiceCreatedEvent{})
	s.Register(finance.EventTypeInvoiceSent, &finance.InvoiceSentEvent{})
	s.Register(finance.EventTypeInvoiceOverdue, &finance.InvoiceOverdueEvent{})
	s.Register(finance.EventTypeInvoiceCancelled, &finance.InvoiceCancelledEvent{})
	s.Register(finance.EventTypeInvoicePaid, &finance.InvoicePaidEvent{})
	s.Register(finance.EventTypeCreditNoteIssued, &finance.CreditNoteIssuedEvent{})
	s.Register(finance.EventTypePaymentRecorded, &finance.PaymentRecordedEvent{})

	s.Register(finance.EventTypeBankAccountCreated, &finance.BankAccountCreatedEvent{})
	s.Register(finance.EventTypeBankAccountDeactivated, &finance.BankAccountDeactivatedEvent{})
	s.Register(finance.EventTypeBankTransactionRecorded, &finance.BankTransactionRecordedEvent{})
	s.Register(finance.EventTypeBankTransactionReconciled, &finance.BankTransactionReconciledEvent{})
}

// IntegrationEventTypes lists the collaborator events the ledger listens to
var IntegrationEventTypes = []string{
	trade.EventTypeSalesOrderConfirmed,
	trade.EventTypeGoodsReceived,
	hr.EventTypePayrollRunCompleted,
	hr.EventTypeExpenseClaimReimbursed,
	asset.EventTypeAssetDepreciated,
	billing.EventTypeSubscriptionRenewed,
}

// RegisterIntegrationEvents registers the collaborator events accepted by
// the ingestion endpoint
func RegisterIntegrationEvents(s *EventSerializer) {
	s.Register(trade.EventTypeSalesOrderConfirmed, &trade.SalesOrderConfirmedEvent{})
	s.Register(trade.EventTypeGoodsReceived, &trade.GoodsReceivedEvent{})
	s.Register(hr.EventTypePayrollRunCompleted, &hr.PayrollRunCompletedEvent{})
	s.Register(hr.EventTypeExpenseClaimReimbursed, &hr.ExpenseClaimReimbursedEvent{})
	s.Register(asset.EventTypeAssetDepreciated, &asset.AssetDepreciatedEvent{})
	s.Register(billing.EventTypeSubscriptionRenewed, &billing.SubscriptionRenewedEvent{})
}

// RegisterAllEvents registers every event type known to the service
func RegisterAllEvents(s *EventSerializer) {
	RegisterFinanceEvents(s)
	RegisterIntegrationEvents(s)
}
