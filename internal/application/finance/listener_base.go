package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// IntegrationAccounts are the ledger account codes used by listeners that
// produce journal entries
type IntegrationAccounts struct {
	SalaryExpense           string
	SalaryPayable           string
	DeductionsPayable       string
	DepreciationExpense     string
	AccumulatedDepreciation string
}

// IntegrationConfig shapes the documents produced from collaborator events
type IntegrationConfig struct {
	DefaultCurrency string
	InvoiceDueDays  int
	Accounts        IntegrationAccounts
}

// DefaultIntegrationConfig returns the stock chart of accounts mapping
func DefaultIntegrationConfig() IntegrationConfig {
	return IntegrationConfig{
		DefaultCurrency: valueobject.DefaultCurrency.String(),
		InvoiceDueDays:  30,
		Accounts: IntegrationAccounts{
			SalaryExpense:           "6100",
			SalaryPayable:           "2100",
			DeductionsPayable:       "2150",
			DepreciationExpense:     "6200",
			AccumulatedDepreciation: "1590",
		},
	}
}

// Skip reasons reported by listeners
const (
	skipMissingTenant  = "missing_tenant"
	skipMissingPartner = "missing_partner"
	skipNonPositive    = "non_positive_amount"
	skipNoValidLines   = "no_valid_lines"
	failUnexpectedType = "unexpected_event_type"
	failPanic          = "panic"
	failInternal       = "internal"
)

// InvoiceCreator is the invoice use case listeners call
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error)
}

// JournalCreator is the journal use case listeners call
type JournalCreator interface {
	Create(ctx context.Context, tenantID uuid.UUID, req CreateJournalEntryRequest) (*JournalEntryResponse, error)
}

// AccountResolver maps configured account codes to IDs
type AccountResolver interface {
	ResolveCodes(ctx context.Context, tenantID uuid.UUID, codes ...string) (map[string]uuid.UUID, error)
}

// listenerBase holds the guard, translation and isolation helpers shared by
// the integration listeners. A listener never returns an error to the bus:
// the emitting module's transaction has already committed.
type listenerBase struct {
	name     string
	cfg      IntegrationConfig
	recorder LedgerRecorder
	logger   *zap.Logger
}

func newListenerBase(name string, cfg IntegrationConfig, recorder LedgerRecorder, logger *zap.Logger) listenerBase {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = valueobject.DefaultCurrency.String()
	}
	if cfg.InvoiceDueDays <= 0 {
		cfg.InvoiceDueDays = 30
	}
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return listenerBase{
		name:     name,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With(zap.String("listener", name)),
	}
}

// run executes fn under the system principal of the event's tenant and
// swallows whatever it returns, including panics
func (b *listenerBase) run(ctx context.Context, event shared.DomainEvent, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("integration listener panicked",
				zap.String("event_id", event.EventID().String()),
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			b.recorder.ListenerFailed(ctx, b.name, failPanic)
			err = nil
		}
	}()

	if event.TenantID() == uuid.Nil {
		return b.skip(ctx, event, skipMissingTenant)
	}
	sysCtx := ContextWithPrincipal(ctx, SystemPrincipal(event.TenantID()))
	if err := fn(sysCtx); err != nil {
		return b.swallow(ctx, event, err)
	}
	return nil
}

// skip logs a guard hit and returns nil
func (b *listenerBase) skip(ctx context.Context, event shared.DomainEvent, reason string, fields ...zap.Field) error {
	b.logger.Info("integration event skipped",
		append([]zap.Field{
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.String("tenant_id", event.TenantID().String()),
			zap.String("reason", reason),
		}, fields...)...,
	)
	b.recorder.ListenerSkipped(ctx, b.name, reason)
	return nil
}

// swallow logs a downstream failure and returns nil
func (b *listenerBase) swallow(ctx context.Context, event shared.DomainEvent, err error) error {
	reason := failInternal
	if de, ok := shared.AsDomainError(err); ok {
		reason = de.Code
	}
	b.logger.Error("integration listener failed",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("source_id", event.AggregateID().String()),
		zap.String("reason", reason),
		zap.Error(err),
	)
	b.recorder.ListenerFailed(ctx, b.name, reason)
	return nil
}

// unexpected handles an event of the wrong concrete type
func (b *listenerBase) unexpected(ctx context.Context, event shared.DomainEvent, expected string) error {
	b.logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()),
	)
	b.recorder.ListenerFailed(ctx, b.name, failUnexpectedType)
	return nil
}

func (b *listenerBase) currency(code string) string {
	if strings.TrimSpace(code) == "" {
		return b.cfg.DefaultCurrency
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

func (b *listenerBase) dueDate(issue time.Time) time.Time {
	return issue.AddDate(0, 0, b.cfg.InvoiceDueDays)
}

// positiveAmount parses a monetary driver field; ok is false when it is
// missing, malformed or not greater than zero
func positiveAmount(s string) (decimal.Decimal, bool) {
	d, err := valueobject.ParseAmount(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// optionalAmount parses an amount that may be absent
func optionalAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return valueobject.ParseAmount(s)
}

// validInvoiceLines keeps the lines carrying a product, a positive quantity
// and a unit price
func validInvoiceLines(items []trade.LineItem) []InvoiceLineRequest {
	lines := make([]InvoiceLineRequest, 0, len(items))
	for _, item := range items {
		if item.ProductID == nil || *item.ProductID == uuid.Nil || item.UnitPrice == nil {
			continue
		}
		if _, ok := positiveAmount(item.Quantity); !ok {
			continue
		}
		price, err := valueobject.ParseAmount(*item.UnitPrice)
		if err != nil || price.IsNegative() {
			continue
		}
		taxRate := ""
		if rate, err := valueobject.ParseAmount(item.TaxRate); err == nil && !rate.IsNegative() {
			taxRate = item.TaxRate
		}
		lines = append(lines, InvoiceLineRequest{
			ProductID:   item.ProductID,
			Description: lineDescription(item),
			Quantity:    item.Quantity,
			UnitPrice:   *item.UnitPrice,
			TaxRate:     taxRate,
		})
	}
	return lines
}

func lineDescription(item trade.LineItem) string {
	switch {
	case item.ProductName != "" && item.ProductCode != "":
		return fmt.Sprintf("%s %s", item.ProductCode, item.ProductName)
	case item.ProductName != "":
		return item.ProductName
	case item.ProductCode != "":
		return item.ProductCode
	}
	return "Product " + item.ProductID.String()
}

// sourceNote embeds the originating record in the notes of a generated document
func sourceNote(kind, number string, id uuid.UUID) string {
	if number == "" {
		return fmt.Sprintf("Auto-generated from %s (id %s)", kind, id)
	}
	return fmt.Sprintf("Auto-generated from %s %s (id %s)", kind, number, id)
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
