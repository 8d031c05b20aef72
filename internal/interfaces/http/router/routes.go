package router

import (
	"github.com/erp/accounting/internal/interfaces/http/handler"
)

// Handlers are the resource handlers mounted under the API prefix.
// Outbox and Integration may be nil to leave those areas unmounted.
type Handlers struct {
	Accounts    *handler.AccountHandler
	Periods     *handler.PeriodHandler
	Journals    *handler.JournalHandler
	Invoices    *handler.InvoiceHandler
	Bank        *handler.BankHandler
	Outbox      *handler.OutboxHandler
	Integration *handler.IntegrationHandler
}

// FinanceRoutes mounts the ledger API under /finance
func FinanceRoutes(h Handlers) *DomainGroup {
	finance := NewDomainGroup("finance", "/finance")

	finance.Group("accounts", "/accounts").
		POST("", h.Accounts.Create).
		GET("", h.Accounts.List).
		GET("/tree", h.Accounts.Tree).
		POST("/import", h.Accounts.Import).
		GET("/:id", h.Accounts.Get).
		PUT("/:id", h.Accounts.Update).
		DELETE("/:id", h.Accounts.Delete).
		POST("/:id/activate", h.Accounts.Activate).
		POST("/:id/deactivate", h.Accounts.Deactivate)

	finance.Group("periods", "/periods").
		POST("", h.Periods.Create).
		GET("", h.Periods.List).
		GET("/for-date", h.Periods.FindForDate).
		GET("/:id", h.Periods.Get).
		POST("/:id/close", h.Periods.Close).
		POST("/:id/lock", h.Periods.Lock)

	finance.Group("journal-entries", "/journal-entries").
		POST("", h.Journals.Create).
		GET("", h.Journals.List).
		GET("/:id", h.Journals.Get).
		PUT("/:id", h.Journals.UpdateDraft).
		DELETE("/:id", h.Journals.DeleteDraft).
		POST("/:id/post", h.Journals.Post).
		POST("/:id/reverse", h.Journals.Reverse)

	finance.Group("invoices", "/invoices").
		POST("", h.Invoices.Create).
		GET("", h.Invoices.List).
		POST("/mark-overdue", h.Invoices.MarkOverdue).
		GET("/:id", h.Invoices.Get).
		POST("/:id/send", h.Invoices.Send).
		POST("/:id/cancel", h.Invoices.Cancel).
		GET("/:id/payments", h.Invoices.ListPayments).
		POST("/:id/payments", h.Invoices.RecordPayment).
		POST("/:id/credit-notes", h.Invoices.IssueCreditNote)

	finance.Group("bank-accounts", "/bank-accounts").
		POST("", h.Bank.CreateAccount).
		GET("", h.Bank.ListAccounts).
		GET("/:id", h.Bank.GetAccount).
		POST("/:id/deactivate", h.Bank.DeactivateAccount)

	finance.Group("bank-transactions", "/bank-transactions").
		POST("", h.Bank.RecordTransaction).
		GET("", h.Bank.ListTransactions).
		GET("/:id", h.Bank.GetTransaction).
		POST("/:id/reconcile", h.Bank.Reconcile)

	return finance
}

// SystemRoutes mounts outbox administration under /system
func SystemRoutes(h *handler.OutboxHandler) *DomainGroup {
	system := NewDomainGroup("system", "/system")
	system.Group("outbox", "/outbox").
		GET("/stats", h.GetStats).
		GET("/dead", h.ListDeadLetters).
		POST("/dead/retry-all", h.RetryAllDeadEntries).
		GET("/:id", h.GetEntry).
		POST("/:id/retry", h.RetryDeadEntry)
	return system
}

// IntegrationRoutes mounts collaborator event ingestion under /integration
func IntegrationRoutes(h *handler.IntegrationHandler) *DomainGroup {
	return NewDomainGroup("integration", "/integration").
		POST("/events", h.Ingest).
		GET("/events/types", h.AcceptedTypes)
}
