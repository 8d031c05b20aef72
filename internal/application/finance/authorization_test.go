package finance

import (
	"context"
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipal_Can(t *testing.T) {
	tests := []struct {
		name  string
		perms []string
		cap   Capability
		want  bool
	}{
		{"exact match", []string{"finance:journal:post"}, CapJournalPost, true},
		{"wildcard", []string{"*"}, CapOutboxAdminister, true},
		{"module prefix", []string{"finance:*"}, CapBankReconcile, true},
		{"resource prefix", []string{"finance:journal:*"}, CapJournalReverse, true},
		{"prefix of another resource", []string{"finance:journal:*"}, CapPeriodClose, false},
		{"partial word prefix", []string{"finance:jour:*"}, CapJournalPost, false},
		{"no permissions", nil, CapAccountRead, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &Principal{Permissions: tc.perms}
			assert.Equal(t, tc.want, p.Can(tc.cap))
		})
	}

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.Can(CapAccountRead))
}

func TestContextAuthorizer_Require(t *testing.T) {
	tenantID := uuid.New()
	authz := NewContextAuthorizer()

	_, err := authz.Require(context.Background(), tenantID, CapJournalRead)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	ctx := withPermissions(uuid.New(), "*")
	_, err = authz.Require(ctx, tenantID, CapJournalRead)
	assert.Equal(t, shared.ErrForbidden.Code, errCode(t, err))

	ctx = withPermissions(tenantID, string(CapJournalRead))
	_, err = authz.Require(ctx, tenantID, CapJournalPost)
	assert.Equal(t, shared.ErrForbidden.Code, errCode(t, err))
	assert.Contains(t, err.Error(), string(CapJournalPost))

	p, err := authz.Require(ctx, tenantID, CapJournalRead)
	require.NoError(t, err)
	assert.Equal(t, tenantID, p.TenantID)
}

func TestSystemPrincipal(t *testing.T) {
	tenantID := uuid.New()
	p := SystemPrincipal(tenantID)

	assert.True(t, p.System)
	for _, c := range AllCapabilities() {
		assert.True(t, p.Can(c), c)
	}
	assert.Equal(t, uuid.Nil, actorID(p))
	assert.Equal(t, uuid.Nil, actorID(nil))
}
