//go:build integration

package integration

import (
	"fmt"
	"sync"
	"testing"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// race runs fn n times concurrently and returns the error codes by attempt
func race(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	return de.Code
}

func requireDecimal(t *testing.T, want, got string) {
	t.Helper()
	g, err := decimal.NewFromString(got)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString(want).Equal(g), "want %s, got %s", want, got)
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	s := newServices(t, NewTestDB(t))

	invoice, err := s.invoices.CreateInvoice(s.ctx, s.tenantID, appfin.CreateInvoiceRequest{
		Type:        "invoice",
		PartnerID:   uuid.New(),
		PartnerType: "customer",
		IssueDate:   day(2025, 1, 10),
		DueDate:     day(2025, 2, 10),
		Lines:       []appfin.InvoiceLineRequest{{Description: "Consulting", Quantity: "1", UnitPrice: "100"}},
	})
	require.NoError(t, err)
	_, err = s.invoices.Send(s.ctx, s.tenantID, invoice.ID)
	require.NoError(t, err)

	errs := race(10, func(int) error {
		_, err := s.invoices.RecordPayment(s.ctx, s.tenantID, appfin.RecordPaymentRequest{
			InvoiceID: invoice.ID,
			Amount:    "20",
			PaidAt:    day(2025, 1, 20),
		})
		return err
	})

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Contains(t, []string{"PAYMENT_EXCEEDS_AMOUNT_DUE", "INVOICE_ALREADY_PAID", "CONCURRENCY_CONFLICT"}, codeOf(t, err))
	}
	assert.Equal(t, 5, succeeded)

	got, err := s.invoices.Get(s.ctx, s.tenantID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)
	requireDecimal(t, "100", got.AmountPaid)
	requireDecimal(t, "0", got.AmountDue)

	payments, err := s.invoices.ListPayments(s.ctx, s.tenantID, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 5)
}

func TestPostingRacesPeriodClose(t *testing.T) {
	s := newServices(t, NewTestDB(t))

	cash, err := s.accounts.Create(s.ctx, s.tenantID, appfin.CreateAccountRequest{Code: "1000", Name: "Cash", Class: "asset"})
	require.NoError(t, err)
	sales, err := s.accounts.Create(s.ctx, s.tenantID, appfin.CreateAccountRequest{Code: "4000", Name: "Sales", Class: "revenue"})
	require.NoError(t, err)
	period, err := s.periods.Create(s.ctx, s.tenantID, appfin.CreatePeriodRequest{
		Name: "January 2025", StartDate: day(2025, 1, 1), EndDate: day(2025, 2, 1), FiscalYear: 2025,
	})
	require.NoError(t, err)

	const drafts = 8
	ids := make([]uuid.UUID, drafts)
	for i := range ids {
		entry, err := s.journals.Create(s.ctx, s.tenantID, appfin.CreateJournalEntryRequest{
			ReferenceNumber: fmt.Sprintf("JE-%03d", i),
			EntryDate:       day(2025, 1, 15),
			Lines: []appfin.JournalLineRequest{
				{AccountID: cash.ID, Debit: "10"},
				{AccountID: sales.ID, Credit: "10"},
			},
		})
		require.NoError(t, err)
		ids[i] = entry.ID
	}

	errs := race(drafts+1, func(i int) error {
		if i == drafts {
			_, err := s.periods.Close(s.ctx, s.tenantID, period.ID)
			return err
		}
		_, err := s.journals.Post(s.ctx, s.tenantID, ids[i])
		return err
	})
	require.NoError(t, errs[drafts], "closing an open period must succeed")

	posted := 0
	for i, err := range errs[:drafts] {
		entry, getErr := s.journals.Get(s.ctx, s.tenantID, ids[i])
		require.NoError(t, getErr)
		if err == nil {
			posted++
			assert.Equal(t, "posted", entry.Status)
			require.NotNil(t, entry.PeriodID)
			assert.Equal(t, period.ID, *entry.PeriodID)
			continue
		}
		assert.Equal(t, "PERIOD_CLOSED", codeOf(t, err))
		assert.Equal(t, "draft", entry.Status)
	}

	closed, err := s.periods.Get(s.ctx, s.tenantID, period.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.Status)

	got, err := s.accounts.Get(s.ctx, s.tenantID, cash.ID)
	require.NoError(t, err)
	requireDecimal(t, decimal.NewFromInt(int64(posted*10)).String(), got.Balance)
}

func TestConcurrentPostingKeepsBalances(t *testing.T) {
	s := newServices(t, NewTestDB(t))

	cash, err := s.accounts.Create(s.ctx, s.tenantID, appfin.CreateAccountRequest{Code: "1000", Name: "Cash", Class: "asset"})
	require.NoError(t, err)
	sales, err := s.accounts.Create(s.ctx, s.tenantID, appfin.CreateAccountRequest{Code: "4000", Name: "Sales", Class: "revenue"})
	require.NoError(t, err)
	_, err = s.periods.Create(s.ctx, s.tenantID, appfin.CreatePeriodRequest{
		Name: "Q1 2025", StartDate: day(2025, 1, 1), EndDate: day(2025, 4, 1), FiscalYear: 2025,
	})
	require.NoError(t, err)

	const n = 12
	ids := make([]uuid.UUID, n)
	for i := range ids {
		entry, err := s.journals.Create(s.ctx, s.tenantID, appfin.CreateJournalEntryRequest{
			ReferenceNumber: fmt.Sprintf("JE-%03d", i),
			EntryDate:       day(2025, 2, 1),
			Lines: []appfin.JournalLineRequest{
				{AccountID: cash.ID, Debit: "2.5"},
				{AccountID: sales.ID, Credit: "2.5"},
			},
		})
		require.NoError(t, err)
		ids[i] = entry.ID
	}

	// Every entry is posted twice at once; exactly one attempt per entry wins
	errs := race(2*n, func(i int) error {
		_, err := s.journals.Post(s.ctx, s.tenantID, ids[i%n])
		return err
	})
	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.Contains(t, []string{"ENTRY_NOT_DRAFT", "CONCURRENCY_CONFLICT"}, codeOf(t, err))
		}
	}
	assert.Equal(t, n, failures)

	gotCash, err := s.accounts.Get(s.ctx, s.tenantID, cash.ID)
	require.NoError(t, err)
	requireDecimal(t, "30", gotCash.Balance)
	gotSales, err := s.accounts.Get(s.ctx, s.tenantID, sales.ID)
	require.NoError(t, err)
	requireDecimal(t, "30", gotSales.Balance)
}

func TestConcurrentOverlappingPeriods(t *testing.T) {
	s := newServices(t, NewTestDB(t))

	errs := race(6, func(i int) error {
		_, err := s.periods.Create(s.ctx, s.tenantID, appfin.CreatePeriodRequest{
			Name:       fmt.Sprintf("Attempt %d", i),
			StartDate:  day(2025, 1, 1+i),
			EndDate:    day(2025, 2, 1+i),
			FiscalYear: 2025,
		})
		return err
	})

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.Equal(t, "PERIOD_OVERLAP", codeOf(t, err))
	}
	assert.Equal(t, 1, created)
}

func TestConcurrentReconcile(t *testing.T) {
	s := newServices(t, NewTestDB(t))

	cash, err := s.accounts.Create(s.ctx, s.tenantID, appfin.CreateAccountRequest{Code: "1000", Name: "Cash", Class: "asset"})
	require.NoError(t, err)
	sales, err := s.accounts.Create(s.ctx, s.tenantID, appfin.CreateAccountRequest{Code: "4000", Name: "Sales", Class: "revenue"})
	require.NoError(t, err)
	_, err = s.periods.Create(s.ctx, s.tenantID, appfin.CreatePeriodRequest{
		Name: "January 2025", StartDate: day(2025, 1, 1), EndDate: day(2025, 2, 1), FiscalYear: 2025,
	})
	require.NoError(t, err)

	entries := make([]uuid.UUID, 4)
	for i := range entries {
		entry, err := s.journals.Create(s.ctx, s.tenantID, appfin.CreateJournalEntryRequest{
			ReferenceNumber: fmt.Sprintf("DEP-%d", i),
			EntryDate:       day(2025, 1, 5),
			Lines: []appfin.JournalLineRequest{
				{AccountID: cash.ID, Debit: "50"},
				{AccountID: sales.ID, Credit: "50"},
			},
		})
		require.NoError(t, err)
		_, err = s.journals.Post(s.ctx, s.tenantID, entry.ID)
		require.NoError(t, err)
		entries[i] = entry.ID
	}

	bankAccount, err := s.bank.CreateBankAccount(s.ctx, s.tenantID, appfin.CreateBankAccountRequest{
		Name: "Operating", AccountNumber: "DE001", LedgerAccountID: &cash.ID,
	})
	require.NoError(t, err)
	tx, err := s.bank.RecordTransaction(s.ctx, s.tenantID, appfin.RecordBankTransactionRequest{
		BankAccountID: bankAccount.ID, Type: "credit", Amount: "50", TransactionDate: day(2025, 1, 6),
	})
	require.NoError(t, err)

	errs := race(len(entries), func(i int) error {
		_, err := s.bank.Reconcile(s.ctx, s.tenantID, tx.ID, appfin.ReconcileRequest{JournalEntryID: entries[i]})
		return err
	})

	won := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, won, "only one reconciliation may succeed")
			won = i
			continue
		}
		assert.Contains(t, []string{"TRANSACTION_ALREADY_RECONCILED", "CONCURRENCY_CONFLICT"}, codeOf(t, err))
	}
	require.NotEqual(t, -1, won)

	got, err := s.bank.GetTransaction(s.ctx, s.tenantID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "reconciled", got.Status)
	require.NotNil(t, got.JournalEntryID)
	assert.Equal(t, entries[won], *got.JournalEntryID)
}
