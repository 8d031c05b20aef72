package finance

import (
	"context"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// errCode returns the domain error code carried by err
func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	return de.Code
}

// withPermissions returns a context for a user of tenantID holding perms
func withPermissions(tenantID uuid.UUID, perms ...string) context.Context {
	return ContextWithPrincipal(context.Background(), &Principal{
		UserID:      uuid.New(),
		TenantID:    tenantID,
		Permissions: perms,
	})
}

// q1Period is the open period [2025-01-01, 2025-03-31)
func q1Period(t *testing.T, tenantID uuid.UUID) *finance.AccountingPeriod {
	t.Helper()
	p, err := finance.NewAccountingPeriod(tenantID, "Q1 2025", day(2025, 1, 1), day(2025, 3, 31), 2025)
	require.NoError(t, err)
	p.PullDomainEvents()
	return p
}

func testAccount(t *testing.T, tenantID uuid.UUID, code string, class finance.AccountClass) *finance.LedgerAccount {
	t.Helper()
	a, err := finance.NewLedgerAccount(tenantID, code, "Account "+code, class, "", "")
	require.NoError(t, err)
	a.PullDomainEvents()
	return a
}

// draftEntry builds a draft with one debit line and one credit line
func draftEntry(t *testing.T, tenantID uuid.UUID, entryDate time.Time, debit, credit string) *finance.JournalEntry {
	t.Helper()
	entry, err := finance.NewJournalEntry(tenantID, "JE-"+uuid.NewString()[:8], entryDate, "test entry", []finance.JournalEntryLine{
		{AccountID: uuid.New(), Debit: amount(debit)},
		{AccountID: uuid.New(), Credit: amount(credit)},
	})
	require.NoError(t, err)
	entry.PullDomainEvents()
	return entry
}

func postedEntry(t *testing.T, tenantID uuid.UUID, period *finance.AccountingPeriod, entryDate time.Time, amt string) *finance.JournalEntry {
	t.Helper()
	entry := draftEntry(t, tenantID, entryDate, amt, amt)
	require.NoError(t, entry.Post(period))
	entry.PullDomainEvents()
	return entry
}

// sentInvoice is a sent customer invoice with a single untaxed line
func sentInvoice(t *testing.T, tenantID uuid.UUID, total string) *finance.Invoice {
	t.Helper()
	inv, err := finance.NewInvoice(tenantID, "INV-000001", finance.InvoiceTypeInvoice, uuid.New(),
		finance.PartnerTypeCustomer, day(2025, 2, 1), day(2025, 3, 3), "USD", "", []finance.InvoiceLine{
			{Description: "Consulting", Quantity: amount("1"), UnitPrice: amount(total)},
		})
	require.NoError(t, err)
	require.NoError(t, inv.Send())
	inv.PullDomainEvents()
	return inv
}
