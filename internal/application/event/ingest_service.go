package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventDecoder turns a collaborator payload into its registered event type
type EventDecoder interface {
	Deserialize(eventType string, data []byte) (shared.DomainEvent, error)
}

// IngestEventRequest is a collaborator event delivered over HTTP
type IngestEventRequest struct {
	EventType string          `json:"event_type" binding:"required"`
	Payload   json.RawMessage `json:"payload" binding:"required" swaggertype:"object"`
}

// IngestEventResponse acknowledges an accepted event
type IngestEventResponse struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"`
	TenantID  uuid.UUID `json:"tenant_id"`
}

// IngestService accepts collaborator events from outside the process and
// publishes them on the in-process bus. Listener outcomes are not reported
// back: a listener that skips or fails has already logged and counted it.
type IngestService struct {
	decoder   EventDecoder
	publisher shared.EventPublisher
	authz     appfin.Authorizer
	accepted  []string
	logger    *zap.Logger
}

// NewIngestService creates an IngestService accepting the given event types
func NewIngestService(decoder EventDecoder, publisher shared.EventPublisher, authz appfin.Authorizer, accepted []string, logger *zap.Logger) *IngestService {
	if authz == nil {
		authz = appfin.NewContextAuthorizer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		decoder:   decoder,
		publisher: publisher,
		authz:     authz,
		accepted:  slices.Clone(accepted),
		logger:    logger.Named("integration_ingest"),
	}
}

// AcceptedTypes returns the event types Ingest accepts
func (s *IngestService) AcceptedTypes() []string {
	return slices.Clone(s.accepted)
}

// Ingest decodes and publishes one event for tenantID. The payload's
// tenant_id is filled in when absent and must match tenantID when present.
func (s *IngestService) Ingest(ctx context.Context, tenantID uuid.UUID, req IngestEventRequest) (_ *IngestEventResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integration", "ingest")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())
	telemetry.SetAttribute(span, telemetry.SpanAttrEventType, req.EventType)

	if _, err := s.authz.Require(ctx, tenantID, appfin.CapIntegrationIngest); err != nil {
		return nil, err
	}
	if !slices.Contains(s.accepted, req.EventType) {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, fmt.Sprintf("Unsupported event type %q", req.EventType))
	}

	payload, err := stampTenant(req.Payload, tenantID)
	if err != nil {
		return nil, err
	}
	evt, err := s.decoder.Deserialize(req.EventType, payload)
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, fmt.Sprintf("Invalid %s payload: %v", req.EventType, err))
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrEntityID, evt.AggregateID().String())

	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationIngestEvent), func(ctx context.Context) {
		if perr := s.publisher.Publish(ctx, evt); perr != nil {
			s.logger.Warn("Ingested event had handler errors",
				zap.String("event_id", evt.EventID().String()),
				zap.String("event_type", evt.EventType()),
				zap.String("tenant_id", tenantID.String()),
				zap.Error(perr),
			)
		}
	})

	s.logger.Info("Integration event accepted",
		zap.String("event_id", evt.EventID().String()),
		zap.String("event_type", evt.EventType()),
		zap.String("tenant_id", tenantID.String()),
	)
	return &IngestEventResponse{
		EventID:   evt.EventID(),
		EventType: evt.EventType(),
		TenantID:  tenantID,
	}, nil
}

// stampTenant sets tenant_id on a JSON object payload
func stampTenant(payload json.RawMessage, tenantID uuid.UUID) ([]byte, error) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Payload must be a JSON object")
	}

	if raw, ok := fields["tenant_id"]; ok && string(raw) != "null" && string(raw) != `""` {
		var given uuid.UUID
		if err := json.Unmarshal(raw, &given); err != nil {
			return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Payload tenant_id is not a valid UUID")
		}
		if given != uuid.Nil && given != tenantID {
			return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Payload tenant does not match the caller's tenant")
		}
	}

	stamped, err := json.Marshal(tenantID)
	if err != nil {
		return nil, err
	}
	fields["tenant_id"] = stamped
	return json.Marshal(fields)
}
