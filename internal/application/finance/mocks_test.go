package finance

import (
	"context"
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock repositories
// =============================================================================

type MockLedgerAccountRepository struct {
	mock.Mock
}

func (m *MockLedgerAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerAccount), args.Error(1)
}

func (m *MockLedgerAccountRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerAccount), args.Error(1)
}

func (m *MockLedgerAccountRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]finance.LedgerAccount, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.LedgerAccount), args.Error(1)
}

func (m *MockLedgerAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*finance.LedgerAccount, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerAccount), args.Error(1)
}

func (m *MockLedgerAccountRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.LedgerAccountFilter) ([]finance.LedgerAccount, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]finance.LedgerAccount), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerAccountRepository) FindAllOrdered(ctx context.Context, tenantID uuid.UUID) ([]finance.LedgerAccount, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.LedgerAccount), args.Error(1)
}

func (m *MockLedgerAccountRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerAccountRepository) HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerAccountRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerAccountRepository) Save(ctx context.Context, account *finance.LedgerAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockLedgerAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockAccountingPeriodRepository struct {
	mock.Mock
}

func (m *MockAccountingPeriodRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountingPeriod), args.Error(1)
}

func (m *MockAccountingPeriodRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountingPeriod), args.Error(1)
}

func (m *MockAccountingPeriodRepository) FindOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]finance.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.AccountingPeriod), args.Error(1)
}

func (m *MockAccountingPeriodRepository) FindCovering(ctx context.Context, tenantID uuid.UUID, date time.Time) (*finance.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountingPeriod), args.Error(1)
}

func (m *MockAccountingPeriodRepository) FindCoveringForUpdate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*finance.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountingPeriod), args.Error(1)
}

func (m *MockAccountingPeriodRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.AccountingPeriodFilter) ([]finance.AccountingPeriod, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]finance.AccountingPeriod), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountingPeriodRepository) Save(ctx context.Context, period *finance.AccountingPeriod) error {
	return m.Called(ctx, period).Error(0)
}

type MockJournalEntryRepository struct {
	mock.Mock
}

func (m *MockJournalEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.JournalEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.JournalEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.JournalEntry), args.Error(1)
}

func (m *MockJournalEntryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.JournalEntryFilter) ([]finance.JournalEntry, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]finance.JournalEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockJournalEntryRepository) ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error) {
	args := m.Called(ctx, tenantID, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournalEntryRepository) Save(ctx context.Context, entry *finance.JournalEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockJournalEntryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.InvoiceFilter) ([]finance.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]finance.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindOverdueCandidates(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]finance.Invoice, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, invoiceType finance.InvoiceType) (string, error) {
	args := m.Called(ctx, tenantID, invoiceType)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]finance.Payment, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Payment), args.Error(1)
}

type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.BankAccount, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]finance.BankAccount), args.Get(1).(int64), args.Error(2)
}

func (m *MockBankAccountRepository) ExistsByAccountNumber(ctx context.Context, tenantID uuid.UUID, accountNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, accountNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankAccountRepository) Save(ctx context.Context, account *finance.BankAccount) error {
	return m.Called(ctx, account).Error(0)
}

type MockBankTransactionRepository struct {
	mock.Mock
}

func (m *MockBankTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.BankTransactionFilter) ([]finance.BankTransaction, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]finance.BankTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockBankTransactionRepository) Save(ctx context.Context, tx *finance.BankTransaction) error {
	return m.Called(ctx, tx).Error(0)
}

// recordingOutbox keeps the events written in the unit of work
type recordingOutbox struct {
	events []shared.DomainEvent
	err    error
}

func (o *recordingOutbox) SaveEvents(_ context.Context, events ...shared.DomainEvent) error {
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, events...)
	return nil
}

func (o *recordingOutbox) types() []string {
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.EventType()
	}
	return out
}

// =============================================================================
// Unit of work and collaborators
// =============================================================================

type testRepos struct {
	accounts     *MockLedgerAccountRepository
	periods      *MockAccountingPeriodRepository
	journals     *MockJournalEntryRepository
	invoices     *MockInvoiceRepository
	payments     *MockPaymentRepository
	bankAccounts *MockBankAccountRepository
	bankTxs      *MockBankTransactionRepository
	outbox       *recordingOutbox
}

func newTestRepos() *testRepos {
	return &testRepos{
		accounts:     new(MockLedgerAccountRepository),
		periods:      new(MockAccountingPeriodRepository),
		journals:     new(MockJournalEntryRepository),
		invoices:     new(MockInvoiceRepository),
		payments:     new(MockPaymentRepository),
		bankAccounts: new(MockBankAccountRepository),
		bankTxs:      new(MockBankTransactionRepository),
		outbox:       &recordingOutbox{},
	}
}

func (r *testRepos) Accounts() finance.LedgerAccountRepository           { return r.accounts }
func (r *testRepos) Periods() finance.AccountingPeriodRepository         { return r.periods }
func (r *testRepos) Journals() finance.JournalEntryRepository            { return r.journals }
func (r *testRepos) Invoices() finance.InvoiceRepository                 { return r.invoices }
func (r *testRepos) Payments() finance.PaymentRepository                 { return r.payments }
func (r *testRepos) BankAccounts() finance.BankAccountRepository         { return r.bankAccounts }
func (r *testRepos) BankTransactions() finance.BankTransactionRepository { return r.bankTxs }
func (r *testRepos) Outbox() shared.OutboxEventSaver                     { return r.outbox }

// fakeTxScope runs the closure directly. It counts executions and records
// whether the last one committed.
type fakeTxScope struct {
	repos      *testRepos
	executions int
	committed  bool
}

func (s *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.executions++
	err := fn(s.repos)
	s.committed = err == nil
	return err
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

type MockOutboxSentMarker struct {
	mock.Mock
}

func (m *MockOutboxSentMarker) MarkSentByEventIDs(ctx context.Context, ids []uuid.UUID) error {
	return m.Called(ctx, ids).Error(0)
}

type MockLedgerRecorder struct {
	mock.Mock
}

func (m *MockLedgerRecorder) JournalPosted(ctx context.Context, tenantID uuid.UUID, source string) {
	m.Called(ctx, tenantID, source)
}

func (m *MockLedgerRecorder) PaymentRecorded(ctx context.Context, tenantID uuid.UUID, method string) {
	m.Called(ctx, tenantID, method)
}

func (m *MockLedgerRecorder) ListenerSkipped(ctx context.Context, listener, reason string) {
	m.Called(ctx, listener, reason)
}

func (m *MockLedgerRecorder) ListenerFailed(ctx context.Context, listener, reason string) {
	m.Called(ctx, listener, reason)
}

// testHarness wires a service's dependencies for a single tenant
type testHarness struct {
	tenantID  uuid.UUID
	userID    uuid.UUID
	repos     *testRepos
	scope     *fakeTxScope
	publisher *MockEventPublisher
	recorder  *MockLedgerRecorder
	ctx       context.Context
}

func newTestHarness() *testHarness {
	repos := newTestRepos()
	h := &testHarness{
		tenantID:  uuid.New(),
		userID:    uuid.New(),
		repos:     repos,
		scope:     &fakeTxScope{repos: repos},
		publisher: new(MockEventPublisher),
		recorder:  new(MockLedgerRecorder),
	}
	h.ctx = ContextWithPrincipal(context.Background(), &Principal{
		UserID:      h.userID,
		TenantID:    h.tenantID,
		Username:    "accountant",
		Permissions: []string{"finance:*"},
	})
	h.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return h
}

func (h *testHarness) deps() ServiceDeps {
	return ServiceDeps{
		TxScope:    h.scope,
		Dispatcher: NewEventDispatcher(h.publisher, nil, nil),
		Recorder:   h.recorder,
	}
}

// publishedTypes returns the event types published on the bus, in order
func (h *testHarness) publishedTypes() []string {
	var out []string
	for _, call := range h.publisher.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			out = append(out, e.EventType())
		}
	}
	return out
}
