package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T) (*telemetry.LedgerMetrics, *sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := telemetry.NewLedgerMetrics(mp.Meter(telemetry.MeterName), zap.NewNop())
	require.NoError(t, err)
	return m, reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewLedgerMetrics(nil, nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestLedgerMetrics_Counters(t *testing.T) {
	m, reader, _ := newTestMetrics(t)
	ctx := context.Background()
	tenantID := uuid.New()

	m.JournalPosted(ctx, tenantID, "manual")
	m.JournalPosted(ctx, tenantID, "manual")
	m.JournalPosted(ctx, tenantID, "payroll")
	m.PaymentRecorded(ctx, tenantID, "bank_transfer")
	m.ListenerFailed(ctx, "SalesOrderConfirmed", "validation")
	m.ListenerSkipped(ctx, "GoodsReceived", "zero_amount")
	m.ListenerSkipped(ctx, "GoodsReceived", "zero_amount")

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, metrics["erp_journal_posted_total"], telemetry.AttrSource, "manual"))
	assert.Equal(t, int64(1), sumFor(t, metrics["erp_journal_posted_total"], telemetry.AttrSource, "payroll"))
	assert.Equal(t, int64(1), sumFor(t, metrics["erp_payment_recorded_total"], telemetry.AttrMethod, "bank_transfer"))
	assert.Equal(t, int64(1), sumFor(t, metrics["erp_integration_listener_failures_total"], telemetry.AttrListener, "SalesOrderConfirmed"))
	assert.Equal(t, int64(2), sumFor(t, metrics["erp_integration_listener_skipped_total"], telemetry.AttrReason, "zero_amount"))
}

func TestLedgerMetrics_ObserveOutbox(t *testing.T) {
	m, reader, mp := newTestMetrics(t)

	err := m.ObserveOutbox(mp.Meter(telemetry.MeterName), func(context.Context) (map[string]int64, error) {
		return map[string]int64{"PENDING": 4, "DEAD": 1}, nil
	})
	require.NoError(t, err)

	gauge, ok := collect(t, reader)["erp_outbox_entries"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	got := make(map[string]int64)
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrStatus)
		got[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"PENDING": 4, "DEAD": 1}, got)

	require.NoError(t, m.Close())
	_, present := collect(t, reader)["erp_outbox_entries"]
	assert.False(t, present)
}

func TestLedgerMetrics_ObserveOutboxCountError(t *testing.T) {
	m, reader, mp := newTestMetrics(t)

	err := m.ObserveOutbox(mp.Meter(telemetry.MeterName), func(context.Context) (map[string]int64, error) {
		return nil, errors.New("db down")
	})
	require.NoError(t, err)

	_, present := collect(t, reader)["erp_outbox_entries"]
	assert.False(t, present)
}
