package finance

import (
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ============================================================================
// Chart of accounts
// ============================================================================

// CreateAccountRequest represents a request to add a ledger account
type CreateAccountRequest struct {
	Code        string     `json:"code" validate:"required,max=32"`
	Name        string     `json:"name" validate:"required,max=200"`
	Class       string     `json:"class" validate:"required,oneof=asset liability equity revenue expense"`
	Subtype     string     `json:"subtype" validate:"max=100"`
	Description string     `json:"description" validate:"max=500"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Currency    string     `json:"currency" validate:"omitempty,currency"`
}

// UpdateAccountRequest represents a request to change an account's details
type UpdateAccountRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Subtype     string     `json:"subtype" validate:"max=100"`
	Description string     `json:"description" validate:"max=500"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// ListAccountsRequest represents chart of accounts query options
type ListAccountsRequest struct {
	Page     int        `form:"page" json:"page"`
	PageSize int        `form:"page_size" json:"page_size"`
	Search   string     `form:"search" json:"search"`
	Class    string     `form:"class" json:"class" validate:"omitempty,oneof=asset liability equity revenue expense"`
	IsActive *bool      `form:"is_active" json:"is_active"`
	ParentID *uuid.UUID `form:"parent_id" json:"parent_id"`
}

// AccountResponse represents a ledger account
type AccountResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Class       string     `json:"class"`
	Subtype     string     `json:"subtype,omitempty"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	Balance     string     `json:"balance"`
	Currency    string     `json:"currency"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AccountTreeNode is an account with its children
type AccountTreeNode struct {
	AccountResponse
	Children []*AccountTreeNode `json:"children,omitempty"`
}

// ToAccountResponse converts a domain account into a response
func ToAccountResponse(a *finance.LedgerAccount) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Class:       a.Class.String(),
		Subtype:     a.Subtype,
		Description: a.Description,
		ParentID:    a.ParentID,
		IsActive:    a.IsActive,
		Balance:     valueobject.FormatAmount(a.Balance),
		Currency:    a.Currency.String(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ============================================================================
// Accounting periods
// ============================================================================

// CreatePeriodRequest represents a request to open an accounting period.
// The range is [StartDate, EndDate).
type CreatePeriodRequest struct {
	Name       string    `json:"name" validate:"required,max=100"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
	FiscalYear int       `json:"fiscal_year" validate:"required,gt=0"`
}

// ListPeriodsRequest represents period query options
type ListPeriodsRequest struct {
	Page       int    `form:"page" json:"page"`
	PageSize   int    `form:"page_size" json:"page_size"`
	FiscalYear *int   `form:"fiscal_year" json:"fiscal_year"`
	Status     string `form:"status" json:"status" validate:"omitempty,oneof=open closed locked"`
}

// PeriodResponse represents an accounting period
type PeriodResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	FiscalYear int        `json:"fiscal_year"`
	Status     string     `json:"status"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ClosedBy   *uuid.UUID `json:"closed_by,omitempty"`
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	LockedBy   *uuid.UUID `json:"locked_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToPeriodResponse converts a domain period into a response
func ToPeriodResponse(p *finance.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		ID:         p.ID,
		Name:       p.Name,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		FiscalYear: p.FiscalYear,
		Status:     p.Status.String(),
		ClosedAt:   p.ClosedAt,
		ClosedBy:   p.ClosedBy,
		LockedAt:   p.LockedAt,
		LockedBy:   p.LockedBy,
		CreatedAt:  p.CreatedAt,
	}
}

// ============================================================================
// Journal entries
// ============================================================================

// JournalLineRequest is one line of a journal entry request. Amounts are
// decimal strings; an omitted amount is zero.
type JournalLineRequest struct {
	AccountID   uuid.UUID `json:"account_id" validate:"required"`
	Debit       string    `json:"debit" validate:"omitempty,nonneg"`
	Credit      string    `json:"credit" validate:"omitempty,nonneg"`
	Description string    `json:"description" validate:"max=500"`
	Currency    string    `json:"currency" validate:"omitempty,currency"`
}

// CreateJournalEntryRequest represents a request to record a draft journal entry
type CreateJournalEntryRequest struct {
	ReferenceNumber string               `json:"reference_number" validate:"required,max=64"`
	EntryDate       time.Time            `json:"entry_date" validate:"required"`
	Description     string               `json:"description" validate:"max=1000"`
	Source          string               `json:"source" validate:"max=50"`
	Lines           []JournalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// UpdateJournalEntryRequest replaces the content of a draft entry
type UpdateJournalEntryRequest struct {
	EntryDate   time.Time            `json:"entry_date"`
	Description string               `json:"description" validate:"max=1000"`
	Lines       []JournalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// ReverseJournalEntryRequest represents a request to reverse a posted entry
type ReverseJournalEntryRequest struct {
	ReferenceNumber string    `json:"reference_number" validate:"max=64"`
	ReversalDate    time.Time `json:"reversal_date"`
	Description     string    `json:"description" validate:"max=1000"`
}

// ListJournalEntriesRequest represents journal query options
type ListJournalEntriesRequest struct {
	Page      int        `form:"page" json:"page"`
	PageSize  int        `form:"page_size" json:"page_size"`
	Search    string     `form:"search" json:"search"`
	Status    string     `form:"status" json:"status" validate:"omitempty,oneof=draft posted reversed"`
	AccountID *uuid.UUID `form:"account_id" json:"account_id"`
	FromDate  *time.Time `form:"from_date" json:"from_date"`
	ToDate    *time.Time `form:"to_date" json:"to_date"`
}

// JournalLineResponse represents a journal line
type JournalLineResponse struct {
	ID          uuid.UUID `json:"id"`
	LineNo      int       `json:"line_no"`
	AccountID   uuid.UUID `json:"account_id"`
	Debit       string    `json:"debit"`
	Credit      string    `json:"credit"`
	Description string    `json:"description,omitempty"`
	Currency    string    `json:"currency"`
}

// JournalEntryResponse represents a journal entry with its lines
type JournalEntryResponse struct {
	ID              uuid.UUID             `json:"id"`
	ReferenceNumber string                `json:"reference_number"`
	EntryDate       time.Time             `json:"entry_date"`
	Description     string                `json:"description,omitempty"`
	Status          string                `json:"status"`
	Source          string                `json:"source"`
	PeriodID        *uuid.UUID            `json:"period_id,omitempty"`
	ReversalOfID    *uuid.UUID            `json:"reversal_of_id,omitempty"`
	ReversedByID    *uuid.UUID            `json:"reversed_by_id,omitempty"`
	PostedAt        *time.Time            `json:"posted_at,omitempty"`
	TotalDebit      string                `json:"total_debit"`
	TotalCredit     string                `json:"total_credit"`
	IsBalanced      bool                  `json:"is_balanced"`
	Lines           []JournalLineResponse `json:"lines"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ToJournalEntryResponse converts a domain entry into a response
func ToJournalEntryResponse(e *finance.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			Debit:       valueobject.FormatAmount(l.Debit),
			Credit:      valueobject.FormatAmount(l.Credit),
			Description: l.Description,
			Currency:    l.Currency.String(),
		}
	}
	return JournalEntryResponse{
		ID:              e.ID,
		ReferenceNumber: e.ReferenceNumber,
		EntryDate:       e.EntryDate,
		Description:     e.Description,
		Status:          e.Status.String(),
		Source:          e.Source,
		PeriodID:        e.PeriodID,
		ReversalOfID:    e.ReversalOfID,
		ReversedByID:    e.ReversedByID,
		PostedAt:        e.PostedAt,
		TotalDebit:      valueobject.FormatAmount(e.TotalDebit()),
		TotalCredit:     valueobject.FormatAmount(e.TotalCredit()),
		IsBalanced:      e.IsBalanced(),
		Lines:           lines,
		CreatedAt:       e.CreatedAt,
	}
}

// ============================================================================
// Invoices, credit notes and payments
// ============================================================================

// InvoiceLineRequest is one priced line. TaxRate is a percentage.
type InvoiceLineRequest struct {
	ProductID   *uuid.UUID `json:"product_id"`
	Description string     `json:"description" validate:"required,max=500"`
	Quantity    string     `json:"quantity" validate:"required,decimal"`
	UnitPrice   string     `json:"unit_price" validate:"required,nonneg"`
	TaxRate     string     `json:"tax_rate" validate:"omitempty,nonneg"`
}

// CreateInvoiceRequest represents a request to create a draft invoice or vendor bill
type CreateInvoiceRequest struct {
	Type        string               `json:"type" validate:"required,oneof=invoice vendor_bill"`
	PartnerID   uuid.UUID            `json:"partner_id" validate:"required"`
	PartnerType string               `json:"partner_type" validate:"required,oneof=customer vendor employee"`
	IssueDate   time.Time            `json:"issue_date"`
	DueDate     time.Time            `json:"due_date"`
	Currency    string               `json:"currency" validate:"omitempty,currency"`
	Notes       string               `json:"notes" validate:"max=2000"`
	Lines       []InvoiceLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// IssueCreditNoteRequest represents a request to issue a credit note
type IssueCreditNoteRequest struct {
	SourceInvoiceID uuid.UUID `json:"source_invoice_id" validate:"required"`
	Amount          string    `json:"amount" validate:"required,decimal"`
	Reason          string    `json:"reason" validate:"max=500"`
	IssueDate       time.Time `json:"issue_date"`
}

// RecordPaymentRequest represents a request to apply a payment to an invoice
type RecordPaymentRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" validate:"required"`
	Amount    string    `json:"amount" validate:"required,decimal"`
	Method    string    `json:"method" validate:"omitempty,oneof=cash bank_transfer card check other"`
	PaidAt    time.Time `json:"paid_at"`
	Reference string    `json:"reference" validate:"max=100"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ListInvoicesRequest represents invoice query options
type ListInvoicesRequest struct {
	Page      int        `form:"page" json:"page"`
	PageSize  int        `form:"page_size" json:"page_size"`
	Search    string     `form:"search" json:"search"`
	Type      string     `form:"type" json:"type" validate:"omitempty,oneof=invoice vendor_bill credit_note"`
	Status    string     `form:"status" json:"status" validate:"omitempty,oneof=draft sent overdue paid cancelled"`
	PartnerID *uuid.UUID `form:"partner_id" json:"partner_id"`
}

// InvoiceLineResponse represents an invoice line
type InvoiceLineResponse struct {
	ID          uuid.UUID  `json:"id"`
	LineNo      int        `json:"line_no"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	Description string     `json:"description"`
	Quantity    string     `json:"quantity"`
	UnitPrice   string     `json:"unit_price"`
	TaxRate     string     `json:"tax_rate"`
	LineTotal   string     `json:"line_total"`
}

// InvoiceResponse represents an invoice, vendor bill or credit note
type InvoiceResponse struct {
	ID              uuid.UUID             `json:"id"`
	Number          string                `json:"number"`
	Type            string                `json:"type"`
	PartnerID       uuid.UUID             `json:"partner_id"`
	PartnerType     string                `json:"partner_type"`
	Status          string                `json:"status"`
	IssueDate       time.Time             `json:"issue_date"`
	DueDate         time.Time             `json:"due_date"`
	Currency        string                `json:"currency"`
	Notes           string                `json:"notes,omitempty"`
	Subtotal        string                `json:"subtotal"`
	TaxTotal        string                `json:"tax_total"`
	Total           string                `json:"total"`
	AmountPaid      string                `json:"amount_paid"`
	AmountDue       string                `json:"amount_due"`
	SourceInvoiceID *uuid.UUID            `json:"source_invoice_id,omitempty"`
	SentAt          *time.Time            `json:"sent_at,omitempty"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	Lines           []InvoiceLineResponse `json:"lines"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ToInvoiceResponse converts a domain invoice into a response
func ToInvoiceResponse(i *finance.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(i.Lines))
	for n, l := range i.Lines {
		lines[n] = InvoiceLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    valueobject.FormatAmount(l.Quantity),
			UnitPrice:   valueobject.FormatAmount(l.UnitPrice),
			TaxRate:     l.TaxRate.String(),
			LineTotal:   valueobject.FormatAmount(l.LineTotal),
		}
	}
	return InvoiceResponse{
		ID:              i.ID,
		Number:          i.Number,
		Type:            i.Type.String(),
		PartnerID:       i.PartnerID,
		PartnerType:     string(i.PartnerType),
		Status:          i.Status.String(),
		IssueDate:       i.IssueDate,
		DueDate:         i.DueDate,
		Currency:        i.Currency.String(),
		Notes:           i.Notes,
		Subtotal:        valueobject.FormatAmount(i.Subtotal),
		TaxTotal:        valueobject.FormatAmount(i.TaxTotal),
		Total:           valueobject.FormatAmount(i.Total),
		AmountPaid:      valueobject.FormatAmount(i.AmountPaid),
		AmountDue:       valueobject.FormatAmount(i.AmountDue),
		SourceInvoiceID: i.SourceInvoiceID,
		SentAt:          i.SentAt,
		PaidAt:          i.PaidAt,
		CancelledAt:     i.CancelledAt,
		Lines:           lines,
		CreatedAt:       i.CreatedAt,
	}
}

// PaymentResponse represents a recorded payment
type PaymentResponse struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	PaidAt    time.Time `json:"paid_at"`
	Reference string    `json:"reference,omitempty"`
}

// ToPaymentResponse converts a domain payment into a response
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		InvoiceID: p.InvoiceID,
		Amount:    valueobject.FormatAmount(p.Amount),
		Currency:  p.Currency.String(),
		Method:    string(p.Method),
		PaidAt:    p.PaidAt,
		Reference: p.Reference,
	}
}

// PaymentResultResponse is the outcome of recording a payment
type PaymentResultResponse struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

// ============================================================================
// Bank reconciliation
// ============================================================================

// CreateBankAccountRequest represents a request to register a bank account
type CreateBankAccountRequest struct {
	Name            string     `json:"name" validate:"required,max=100"`
	AccountNumber   string     `json:"account_number" validate:"required,max=64"`
	BankName        string     `json:"bank_name" validate:"max=100"`
	Currency        string     `json:"currency" validate:"omitempty,currency"`
	LedgerAccountID *uuid.UUID `json:"ledger_account_id"`
}

// RecordBankTransactionRequest represents a bank statement line
type RecordBankTransactionRequest struct {
	BankAccountID   uuid.UUID `json:"bank_account_id" validate:"required"`
	Type            string    `json:"type" validate:"required,oneof=credit debit"`
	Amount          string    `json:"amount" validate:"required,decimal"`
	TransactionDate time.Time `json:"transaction_date" validate:"required"`
	Description     string    `json:"description" validate:"max=500"`
	Reference       string    `json:"reference" validate:"max=100"`
}

// ReconcileRequest represents a request to match a transaction to a journal entry
type ReconcileRequest struct {
	JournalEntryID uuid.UUID `json:"journal_entry_id" validate:"required"`
}

// ListBankTransactionsRequest represents bank transaction query options
type ListBankTransactionsRequest struct {
	Page          int        `form:"page" json:"page"`
	PageSize      int        `form:"page_size" json:"page_size"`
	BankAccountID *uuid.UUID `form:"bank_account_id" json:"bank_account_id"`
	Status        string     `form:"status" json:"status" validate:"omitempty,oneof=unreconciled reconciled"`
	FromDate      *time.Time `form:"from_date" json:"from_date"`
	ToDate        *time.Time `form:"to_date" json:"to_date"`
}

// BankAccountResponse represents a bank account
type BankAccountResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	AccountNumber   string     `json:"account_number"`
	BankName        string     `json:"bank_name,omitempty"`
	Currency        string     `json:"currency"`
	LedgerAccountID *uuid.UUID `json:"ledger_account_id,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToBankAccountResponse converts a domain bank account into a response
func ToBankAccountResponse(b *finance.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:              b.ID,
		Name:            b.Name,
		AccountNumber:   b.AccountNumber,
		BankName:        b.BankName,
		Currency:        b.Currency.String(),
		LedgerAccountID: b.LedgerAccountID,
		IsActive:        b.IsActive,
		CreatedAt:       b.CreatedAt,
	}
}

// BankTransactionResponse represents a bank transaction
type BankTransactionResponse struct {
	ID              uuid.UUID  `json:"id"`
	BankAccountID   uuid.UUID  `json:"bank_account_id"`
	Type            string     `json:"type"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	TransactionDate time.Time  `json:"transaction_date"`
	Description     string     `json:"description,omitempty"`
	Reference       string     `json:"reference,omitempty"`
	Status          string     `json:"status"`
	JournalEntryID  *uuid.UUID `json:"journal_entry_id,omitempty"`
	ReconciledAt    *time.Time `json:"reconciled_at,omitempty"`
}

// ToBankTransactionResponse converts a domain bank transaction into a response
func ToBankTransactionResponse(t *finance.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		ID:              t.ID,
		BankAccountID:   t.BankAccountID,
		Type:            string(t.Type),
		Amount:          valueobject.FormatAmount(t.Amount),
		Currency:        t.Currency.String(),
		TransactionDate: t.TransactionDate,
		Description:     t.Description,
		Reference:       t.Reference,
		Status:          string(t.Status),
		JournalEntryID:  t.JournalEntryID,
		ReconciledAt:    t.ReconciledAt,
	}
}

// toFilter builds the common list options
func toFilter(page, pageSize int, search string) shared.Filter {
	f := shared.DefaultFilter()
	f.Page = page
	f.PageSize = pageSize
	f.Search = search
	return f.Normalize()
}

// mapSlice converts a slice of domain values with fn
func mapSlice[T any, R any](items []T, fn func(*T) R) []R {
	out := make([]R, len(items))
	for i := range items {
		out[i] = fn(&items[i])
	}
	return out
}
