package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	infraevent "github.com/erp/accounting/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func newIngestService(pub *recordingPublisher) *IngestService {
	serializer := infraevent.NewEventSerializer()
	infraevent.RegisterIntegrationEvents(serializer)
	return NewIngestService(serializer, pub, nil, infraevent.IntegrationEventTypes, nil)
}

func ingestCtx(tenantID uuid.UUID, perms ...string) context.Context {
	if len(perms) == 0 {
		perms = []string{string(appfin.CapIntegrationIngest)}
	}
	return appfin.ContextWithPrincipal(context.Background(), &appfin.Principal{
		UserID:      uuid.New(),
		TenantID:    tenantID,
		Permissions: perms,
	})
}

func salesOrderPayload(t *testing.T, fields map[string]any) json.RawMessage {
	t.Helper()
	body := map[string]any{
		"aggregate_id":  uuid.New(),
		"order_id":      uuid.New(),
		"order_number":  "SO-1001",
		"customer_id":   uuid.New(),
		"customer_name": "Acme",
		"total_amount":  "110.00",
		"lines": []map[string]any{
			{"product_id": uuid.New(), "quantity": "2", "unit_price": "50.00", "tax_rate": "10"},
		},
	}
	for k, v := range fields {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func TestIngest_PublishesWithCallerTenant(t *testing.T) {
	tenantID := uuid.New()
	pub := &recordingPublisher{}
	svc := newIngestService(pub)

	resp, err := svc.Ingest(ingestCtx(tenantID), tenantID, IngestEventRequest{
		EventType: trade.EventTypeSalesOrderConfirmed,
		Payload:   salesOrderPayload(t, nil),
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)

	evt, ok := pub.events[0].(*trade.SalesOrderConfirmedEvent)
	require.True(t, ok)
	assert.Equal(t, tenantID, evt.TenantID())
	assert.Equal(t, "SO-1001", evt.OrderNumber)
	assert.Equal(t, evt.EventID(), resp.EventID)
	assert.Equal(t, trade.EventTypeSalesOrderConfirmed, resp.EventType)
	assert.NotEqual(t, uuid.Nil, resp.EventID)
}

func TestIngest_MatchingPayloadTenantAccepted(t *testing.T) {
	tenantID := uuid.New()
	pub := &recordingPublisher{}
	svc := newIngestService(pub)

	_, err := svc.Ingest(ingestCtx(tenantID), tenantID, IngestEventRequest{
		EventType: trade.EventTypeSalesOrderConfirmed,
		Payload:   salesOrderPayload(t, map[string]any{"tenant_id": tenantID}),
	})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestIngest_ForeignPayloadTenantRejected(t *testing.T) {
	tenantID := uuid.New()
	pub := &recordingPublisher{}
	svc := newIngestService(pub)

	_, err := svc.Ingest(ingestCtx(tenantID), tenantID, IngestEventRequest{
		EventType: trade.EventTypeSalesOrderConfirmed,
		Payload:   salesOrderPayload(t, map[string]any{"tenant_id": uuid.New()}),
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, pub.events)
}

func TestIngest_HandlerErrorsAreNotSurfaced(t *testing.T) {
	tenantID := uuid.New()
	pub := &recordingPublisher{err: errors.New("listener exploded")}
	svc := newIngestService(pub)

	resp, err := svc.Ingest(ingestCtx(tenantID), tenantID, IngestEventRequest{
		EventType: trade.EventTypeSalesOrderConfirmed,
		Payload:   salesOrderPayload(t, nil),
	})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestIngest_Rejections(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name    string
		ctx     context.Context
		req     IngestEventRequest
		wantErr *shared.DomainError
	}{
		{
			name:    "no principal",
			ctx:     context.Background(),
			req:     IngestEventRequest{EventType: trade.EventTypeSalesOrderConfirmed, Payload: json.RawMessage(`{}`)},
			wantErr: shared.ErrUnauthorized,
		},
		{
			name:    "missing capability",
			ctx:     ingestCtx(tenantID, string(appfin.CapInvoiceRead)),
			req:     IngestEventRequest{EventType: trade.EventTypeSalesOrderConfirmed, Payload: json.RawMessage(`{}`)},
			wantErr: shared.ErrForbidden,
		},
		{
			name:    "other tenant",
			ctx:     ingestCtx(uuid.New()),
			req:     IngestEventRequest{EventType: trade.EventTypeSalesOrderConfirmed, Payload: json.RawMessage(`{}`)},
			wantErr: shared.ErrForbidden,
		},
		{
			name:    "finance event type",
			ctx:     ingestCtx(tenantID),
			req:     IngestEventRequest{EventType: "JournalEntryPosted", Payload: json.RawMessage(`{}`)},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "payload is an array",
			ctx:     ingestCtx(tenantID),
			req:     IngestEventRequest{EventType: trade.EventTypeSalesOrderConfirmed, Payload: json.RawMessage(`[1,2]`)},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "payload is null",
			ctx:     ingestCtx(tenantID),
			req:     IngestEventRequest{EventType: trade.EventTypeSalesOrderConfirmed, Payload: json.RawMessage(`null`)},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "tenant_id is not a uuid",
			ctx:     ingestCtx(tenantID),
			req:     IngestEventRequest{EventType: trade.EventTypeSalesOrderConfirmed, Payload: json.RawMessage(`{"tenant_id":"abc"}`)},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "field of wrong type",
			ctx:     ingestCtx(tenantID),
			req:     IngestEventRequest{EventType: trade.EventTypeSalesOrderConfirmed, Payload: json.RawMessage(`{"order_number":42}`)},
			wantErr: shared.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			svc := newIngestService(pub)

			_, err := svc.Ingest(tt.ctx, tenantID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, pub.events)
		})
	}
}

func TestIngest_AcceptedTypes(t *testing.T) {
	svc := newIngestService(&recordingPublisher{})
	assert.ElementsMatch(t, infraevent.IntegrationEventTypes, svc.AcceptedTypes())
}
