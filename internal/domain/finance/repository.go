package finance

import (
	"context"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Every lookup is tenant-scoped. A record belonging to another tenant is
// reported as shared.ErrNotFound. The ForUpdate variants take a row lock that
// is held until the surrounding unit of work ends.

// LedgerAccountFilter defines filtering options for chart of accounts queries
type LedgerAccountFilter struct {
	shared.Filter
	Class    *AccountClass // Filter by class
	IsActive *bool         // Filter by active flag
	ParentID *uuid.UUID    // Filter by direct parent
}

// LedgerAccountRepository defines the interface for ledger account persistence
type LedgerAccountRepository interface {
	// FindByID finds an account by ID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LedgerAccount, error)

	// FindByIDForUpdate finds an account by ID and locks the row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*LedgerAccount, error)

	// FindByIDs finds the accounts with the given IDs. Missing IDs are omitted.
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]LedgerAccount, error)

	// FindByCode finds an account by its code
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*LedgerAccount, error)

	// FindAll lists accounts with filtering and returns the total match count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter LedgerAccountFilter) ([]LedgerAccount, int64, error)

	// FindAllOrdered returns every account of the tenant ordered by code
	FindAllOrdered(ctx context.Context, tenantID uuid.UUID) ([]LedgerAccount, error)

	// ExistsByCode checks if an account code is already used in the tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// HasChildren checks if any account has id as its parent
	HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error)

	// IsReferenced checks if any journal line references the account
	IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *LedgerAccount) error

	// Delete removes an account
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// AccountingPeriodFilter defines filtering options for period queries
type AccountingPeriodFilter struct {
	shared.Filter
	FiscalYear *int          // Filter by fiscal year
	Status     *PeriodStatus // Filter by status
}

// AccountingPeriodRepository defines the interface for accounting period persistence
type AccountingPeriodRepository interface {
	// FindByID finds a period by ID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountingPeriod, error)

	// FindByIDForUpdate finds a period by ID and locks the row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*AccountingPeriod, error)

	// FindOverlapping returns the periods intersecting [start, end), locking them
	FindOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]AccountingPeriod, error)

	// FindCovering returns the period whose range contains date
	FindCovering(ctx context.Context, tenantID uuid.UUID, date time.Time) (*AccountingPeriod, error)

	// FindCoveringForUpdate returns the period containing date and locks the row
	FindCoveringForUpdate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*AccountingPeriod, error)

	// FindAll lists periods with filtering and returns the total match count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter AccountingPeriodFilter) ([]AccountingPeriod, int64, error)

	// Save creates or updates a period
	Save(ctx context.Context, period *AccountingPeriod) error
}

// JournalEntryFilter defines filtering options for journal entry queries
type JournalEntryFilter struct {
	shared.Filter
	Status    *JournalEntryStatus // Filter by status
	AccountID *uuid.UUID          // Filter entries touching an account
	FromDate  *time.Time          // Filter by entry date range start
	ToDate    *time.Time          // Filter by entry date range end
}

// JournalEntryRepository defines the interface for journal entry persistence.
// Entries are always loaded with their lines.
type JournalEntryRepository interface {
	// FindByID finds an entry by ID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)

	// FindByIDForUpdate finds an entry by ID and locks the row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)

	// FindAll lists entries with filtering and returns the total match count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter JournalEntryFilter) ([]JournalEntry, int64, error)

	// ExistsByReference checks if a reference number is already used in the tenant
	ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error)

	// Save creates or updates an entry and replaces its lines
	Save(ctx context.Context, entry *JournalEntry) error

	// Delete removes an entry and its lines
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	Type      *InvoiceType   // Filter by type
	Status    *InvoiceStatus // Filter by status
	PartnerID *uuid.UUID     // Filter by partner
	DueBefore *time.Time     // Filter by due date strictly before
}

// InvoiceRepository defines the interface for invoice and credit note persistence.
// Invoices are always loaded with their lines.
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice by ID and locks the row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindAll lists invoices with filtering and returns the total match count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)

	// FindOverdueCandidates returns sent invoices due strictly before asOf, locking them
	FindOverdueCandidates(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]Invoice, error)

	// NextNumber allocates the next sequential document number for the type
	NextNumber(ctx context.Context, tenantID uuid.UUID, invoiceType InvoiceType) (string, error)

	// Save creates or updates an invoice and replaces its lines
	Save(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines the interface for payment persistence. Payments are append-only.
type PaymentRepository interface {
	// Create stores a new payment
	Create(ctx context.Context, payment *Payment) error

	// FindByInvoice lists the payments of an invoice ordered by paid_at
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)
}

// BankAccountRepository defines the interface for bank account persistence
type BankAccountRepository interface {
	// FindByID finds a bank account by ID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)

	// FindAll lists bank accounts and returns the total match count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BankAccount, int64, error)

	// ExistsByAccountNumber checks if an account number is already registered in the tenant
	ExistsByAccountNumber(ctx context.Context, tenantID uuid.UUID, accountNumber string) (bool, error)

	// Save creates or updates a bank account
	Save(ctx context.Context, account *BankAccount) error
}

// BankTransactionFilter defines filtering options for bank transaction queries
type BankTransactionFilter struct {
	shared.Filter
	BankAccountID *uuid.UUID             // Filter by bank account
	Status        *BankTransactionStatus // Filter by reconciliation status
	FromDate      *time.Time             // Filter by transaction date range start
	ToDate        *time.Time             // Filter by transaction date range end
}

// BankTransactionRepository defines the interface for bank transaction persistence
type BankTransactionRepository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankTransaction, error)

	// FindByIDForUpdate finds a transaction by ID and locks the row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*BankTransaction, error)

	// FindAll lists transactions with filtering and returns the total match count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter BankTransactionFilter) ([]BankTransaction, int64, error)

	// Save creates or updates a transaction
	Save(ctx context.Context, tx *BankTransaction) error
}
