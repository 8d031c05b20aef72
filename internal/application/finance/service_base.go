package finance

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ServiceDeps are the collaborators shared by the ledger services
type ServiceDeps struct {
	TxScope    TransactionScope
	Authorizer Authorizer
	Dispatcher *EventDispatcher
	Recorder   LedgerRecorder
	Logger     *zap.Logger
}

type serviceBase struct {
	txScope    TransactionScope
	authz      Authorizer
	dispatcher *EventDispatcher
	recorder   LedgerRecorder
	logger     *zap.Logger
	name       string
}

func newServiceBase(name string, deps ServiceDeps) serviceBase {
	b := serviceBase{
		txScope:    deps.TxScope,
		authz:      deps.Authorizer,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		name:       name,
	}
	if b.authz == nil {
		b.authz = NewContextAuthorizer()
	}
	if b.recorder == nil {
		b.recorder = NoopRecorder{}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// begin checks the capability and opens the operation span. The returned
// span must be ended by the caller.
func (b *serviceBase) begin(ctx context.Context, method string, tenantID uuid.UUID, c Capability) (context.Context, trace.Span, *Principal, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, b.name, method)
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())
	p, err := b.authz.Require(ctx, tenantID, c)
	if err != nil {
		telemetry.RecordError(span, err)
		return ctx, span, nil, err
	}
	return ctx, span, p, nil
}

// fail records err on the span and returns it
func (b *serviceBase) fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	return err
}

// commit publishes events of a committed unit of work
func (b *serviceBase) commit(ctx context.Context, events []shared.DomainEvent) {
	b.dispatcher.Dispatch(ctx, events)
}

// actorID returns the user behind p, or uuid.Nil for system callers
func actorID(p *Principal) uuid.UUID {
	if p == nil || p.System {
		return uuid.Nil
	}
	return p.UserID
}
