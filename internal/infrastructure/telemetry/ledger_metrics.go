package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MeterName is the instrumentation scope of the ledger instruments
const MeterName = "github.com/erp/accounting/ledger"

// ErrMeterNil is returned when a nil meter is passed to NewLedgerMetrics
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Metric attribute keys
const (
	AttrTenantID = "tenant_id"
	AttrSource   = "source"
	AttrMethod   = "method"
	AttrListener = "listener"
	AttrReason   = "reason"
	AttrStatus   = "status"
)

// OutboxCounter reports outbox row counts keyed by status
type OutboxCounter func(ctx context.Context) (map[string]int64, error)

// LedgerMetrics records ledger business counters
type LedgerMetrics struct {
	logger *zap.Logger

	journalPosted      metric.Int64Counter
	paymentRecorded    metric.Int64Counter
	listenerFailures   metric.Int64Counter
	listenerSkipped    metric.Int64Counter
	outboxEntries      metric.Int64ObservableGauge
	outboxRegistration metric.Registration
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter, logger *zap.Logger) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &LedgerMetrics{logger: logger}

	var err error
	if m.journalPosted, err = meter.Int64Counter("erp_journal_posted_total",
		metric.WithDescription("Journal entries posted to the ledger"),
		metric.WithUnit("{entries}"),
	); err != nil {
		return nil, err
	}
	if m.paymentRecorded, err = meter.Int64Counter("erp_payment_recorded_total",
		metric.WithDescription("Payments applied to invoices"),
		metric.WithUnit("{payments}"),
	); err != nil {
		return nil, err
	}
	if m.listenerFailures, err = meter.Int64Counter("erp_integration_listener_failures_total",
		metric.WithDescription("Integration events a listener failed to turn into ledger documents"),
		metric.WithUnit("{events}"),
	); err != nil {
		return nil, err
	}
	if m.listenerSkipped, err = meter.Int64Counter("erp_integration_listener_skipped_total",
		metric.WithDescription("Integration events a listener ignored"),
		metric.WithUnit("{events}"),
	); err != nil {
		return nil, err
	}
	if m.outboxEntries, err = meter.Int64ObservableGauge("erp_outbox_entries",
		metric.WithDescription("Outbox rows by delivery status"),
		metric.WithUnit("{entries}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// JournalPosted counts a posted journal entry by its source
func (m *LedgerMetrics) JournalPosted(ctx context.Context, tenantID uuid.UUID, source string) {
	m.journalPosted.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTenantID, tenantID.String()),
		attribute.String(AttrSource, source),
	))
}

// PaymentRecorded counts an applied payment by method
func (m *LedgerMetrics) PaymentRecorded(ctx context.Context, tenantID uuid.UUID, method string) {
	m.paymentRecorded.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTenantID, tenantID.String()),
		attribute.String(AttrMethod, method),
	))
}

// ListenerSkipped counts an ignored integration event
func (m *LedgerMetrics) ListenerSkipped(ctx context.Context, listener, reason string) {
	m.listenerSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrListener, listener),
		attribute.String(AttrReason, reason),
	))
}

// ListenerFailed counts an integration event that could not be applied
func (m *LedgerMetrics) ListenerFailed(ctx context.Context, listener, reason string) {
	m.listenerFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrListener, listener),
		attribute.String(AttrReason, reason),
	))
}

// ObserveOutbox reports the outbox backlog through count on every collection.
// Calling it again replaces the previous callback.
func (m *LedgerMetrics) ObserveOutbox(meter metric.Meter, count OutboxCounter) error {
	if m.outboxRegistration != nil {
		if err := m.outboxRegistration.Unregister(); err != nil {
			return err
		}
	}
	reg, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		counts, err := count(ctx)
		if err != nil {
			m.logger.Warn("failed to count outbox entries", zap.Error(err))
			return nil
		}
		for status, n := range counts {
			o.ObserveInt64(m.outboxEntries, n, metric.WithAttributes(attribute.String(AttrStatus, status)))
		}
		return nil
	}, m.outboxEntries)
	if err != nil {
		return err
	}
	m.outboxRegistration = reg
	return nil
}

// Close unregisters the outbox callback
func (m *LedgerMetrics) Close() error {
	if m.outboxRegistration == nil {
		return nil
	}
	err := m.outboxRegistration.Unregister()
	m.outboxRegistration = nil
	return err
}
