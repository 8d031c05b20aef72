package finance

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Capability names a permission checked at the entry of an operation
type Capability string

// Capabilities of the accounting core
const (
	CapAccountCreate     Capability = "finance:account:create"
	CapAccountUpdate     Capability = "finance:account:update"
	CapAccountDelete     Capability = "finance:account:delete"
	CapAccountRead       Capability = "finance:account:read"
	CapPeriodCreate      Capability = "finance:period:create"
	CapPeriodClose       Capability = "finance:period:close"
	CapPeriodLock        Capability = "finance:period:lock"
	CapPeriodRead        Capability = "finance:period:read"
	CapJournalCreate     Capability = "finance:journal:create"
	CapJournalPost       Capability = "finance:journal:post"
	CapJournalReverse    Capability = "finance:journal:reverse"
	CapJournalRead       Capability = "finance:journal:read"
	CapInvoiceCreate     Capability = "finance:invoice:create"
	CapInvoiceSend       Capability = "finance:invoice:send"
	CapInvoiceCancel     Capability = "finance:invoice:cancel"
	CapInvoiceRead       Capability = "finance:invoice:read"
	CapPaymentCreate     Capability = "finance:payment:create"
	CapCreditNoteCreate  Capability = "finance:credit_note:create"
	CapBankCreate        Capability = "finance:bank:create"
	CapBankRecord        Capability = "finance:bank:record"
	CapBankReconcile     Capability = "finance:bank:reconcile"
	CapBankRead          Capability = "finance:bank:read"
	CapOutboxAdminister  Capability = "finance:outbox:admin"
	CapIntegrationIngest Capability = "finance:integration:ingest"
)

// WildcardPermission grants every capability
const WildcardPermission = "*"

// Principal is the caller an operation runs on behalf of
type Principal struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Username    string
	Permissions []string
	System      bool
}

// SystemPrincipal is used by event listeners and scheduled jobs
func SystemPrincipal(tenantID uuid.UUID) *Principal {
	return &Principal{
		TenantID:    tenantID,
		Username:    "system",
		Permissions: []string{WildcardPermission},
		System:      true,
	}
}

// Can reports whether the principal holds the capability. A permission ending
// in ":*" grants every capability under that prefix.
func (p *Principal) Can(c Capability) bool {
	if p == nil {
		return false
	}
	for _, perm := range p.Permissions {
		if perm == WildcardPermission || perm == string(c) {
			return true
		}
		if prefix, ok := strings.CutSuffix(perm, ":*"); ok && strings.HasPrefix(string(c), prefix+":") {
			return true
		}
	}
	return false
}

type principalKey struct{}

// ContextWithPrincipal attaches the principal to ctx
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached to ctx, if any
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Authorizer performs the capability check at the entry of each operation
type Authorizer interface {
	// Require returns the principal if it holds the capability for tenantID
	Require(ctx context.Context, tenantID uuid.UUID, c Capability) (*Principal, error)
}

// ContextAuthorizer checks the principal carried by the request context
type ContextAuthorizer struct{}

// NewContextAuthorizer creates a ContextAuthorizer
func NewContextAuthorizer() *ContextAuthorizer {
	return &ContextAuthorizer{}
}

// Require implements Authorizer
func (a *ContextAuthorizer) Require(ctx context.Context, tenantID uuid.UUID, c Capability) (*Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	if p.TenantID != tenantID {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Principal does not belong to this tenant")
	}
	if !p.Can(c) {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, fmt.Sprintf("Missing capability %s", c))
	}
	return p, nil
}

// RequireCapability checks a platform-level capability. The principal's
// tenant is not compared; outbox administration spans tenants.
func RequireCapability(ctx context.Context, c Capability) (*Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	if !p.Can(c) {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, fmt.Sprintf("Missing capability %s", c))
	}
	return p, nil
}

// AllCapabilities lists every capability, sorted
func AllCapabilities() []Capability {
	caps := []Capability{
		CapAccountCreate, CapAccountUpdate, CapAccountDelete, CapAccountRead,
		CapPeriodCreate, CapPeriodClose, CapPeriodLock, CapPeriodRead,
		CapJournalCreate, CapJournalPost, CapJournalReverse, CapJournalRead,
		CapInvoiceCreate, CapInvoiceSend, CapInvoiceCancel, CapInvoiceRead,
		CapPaymentCreate, CapCreditNoteCreate,
		CapBankCreate, CapBankRecord, CapBankReconcile, CapBankRead,
		CapOutboxAdminister, CapIntegrationIngest,
	}
	slices.Sort(caps)
	return caps
}

var _ Authorizer = (*ContextAuthorizer)(nil)
