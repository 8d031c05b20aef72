package persistence

import (
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the accounting schema.
// Row locks and the PostgreSQL constraints from migrations/ are not
// available; the integration suite covers those.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newAccount(t *testing.T, tenantID uuid.UUID, code, name string, class finance.AccountClass) *finance.LedgerAccount {
	t.Helper()
	a, err := finance.NewLedgerAccount(tenantID, code, name, class, "", valueobject.DefaultCurrency)
	require.NoError(t, err)
	return a
}

func newEntry(t *testing.T, tenantID uuid.UUID, ref string, debit, credit uuid.UUID, amount string) *finance.JournalEntry {
	t.Helper()
	e, err := finance.NewJournalEntry(tenantID, ref, date(2026, 1, 15), "test entry", []finance.JournalEntryLine{
		{AccountID: debit, Debit: dec(amount)},
		{AccountID: credit, Credit: dec(amount)},
	})
	require.NoError(t, err)
	return e
}

func newInvoice(t *testing.T, tenantID uuid.UUID, number string, due time.Time) *finance.Invoice {
	t.Helper()
	inv, err := finance.NewInvoice(tenantID, number, finance.InvoiceTypeInvoice, uuid.New(), finance.PartnerTypeCustomer,
		date(2026, 1, 1), due, valueobject.DefaultCurrency, "", []finance.InvoiceLine{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("50"), TaxRate: dec("10")},
			{Description: "Travel", Quantity: dec("1"), UnitPrice: dec("30")},
		})
	require.NoError(t, err)
	return inv
}
