package finance

import (
	"testing"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Import(t *testing.T) {
	t.Run("children may precede their parents", func(t *testing.T) {
		h := newTestHarness()
		existing := testAccount(t, h.tenantID, "2000", finance.AccountClassLiability)
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, mock.Anything).Return(false, nil)
		h.repos.accounts.On("FindByCode", mock.Anything, h.tenantID, "2000").Return(existing, nil)
		var saved []string
		h.repos.accounts.On("Save", mock.Anything, mock.AnythingOfType("*finance.LedgerAccount")).
			Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*finance.LedgerAccount).Code) }).
			Return(nil)

		resp, err := NewAccountService(h.deps()).Import(h.ctx, h.tenantID, ImportAccountsRequest{Rows: []ImportAccountRow{
			{Line: 2, Code: "1010", Name: "Petty cash", Class: "asset", ParentCode: "1000"},
			{Line: 3, Code: "1000", Name: "Cash", Class: "Asset"},
			{Line: 4, Code: "2100", Name: "Trade payables", Class: "liability", ParentCode: "2000"},
		}})

		require.NoError(t, err)
		assert.True(t, resp.Valid())
		assert.Equal(t, 3, resp.Created)
		assert.Equal(t, []string{"1000", "1010", "2100"}, saved)
		require.Len(t, resp.Accounts, 3)
		require.NotNil(t, resp.Accounts[0].ParentID)
		assert.Equal(t, resp.Accounts[1].ID, *resp.Accounts[0].ParentID)
		assert.Equal(t, existing.ID, *resp.Accounts[2].ParentID)
		assert.Len(t, h.repos.outbox.types(), 3)
	})

	t.Run("row errors reject the whole batch", func(t *testing.T) {
		h := newTestHarness()
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, "1000").Return(true, nil)
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, mock.Anything).Return(false, nil)
		h.repos.accounts.On("FindByCode", mock.Anything, h.tenantID, "9999").Return(nil, shared.NotFound("Ledger account"))

		resp, err := NewAccountService(h.deps()).Import(h.ctx, h.tenantID, ImportAccountsRequest{Rows: []ImportAccountRow{
			{Line: 2, Code: "1000", Name: "Cash", Class: "asset"},
			{Line: 3, Code: "1100", Name: "", Class: "asset"},
			{Line: 4, Code: "1200", Name: "Receivables", Class: "contra"},
			{Line: 5, Code: "1300", Name: "Inventory", Class: "asset", ParentCode: "9999"},
			{Line: 6, Code: "1300", Name: "Inventory again", Class: "asset"},
			{Line: 7, Code: "4000", Name: "Sales", Class: "revenue", ParentCode: "1000"},
		}})

		require.NoError(t, err)
		assert.False(t, resp.Valid())
		assert.Zero(t, resp.Created)
		assert.Empty(t, resp.Accounts)
		got := make(map[int]string, len(resp.Errors))
		for _, e := range resp.Errors {
			got[e.Line] = e.Code
		}
		assert.Equal(t, map[int]string{
			2: ImportErrDuplicateInDB,
			3: ImportErrRequired,
			4: ImportErrInvalidValue,
			5: ImportErrParentNotFound,
			6: ImportErrDuplicateInFile,
			7: ImportErrInvalidParent,
		}, got)
		h.repos.accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, h.repos.outbox.types())
	})

	t.Run("parent cycle", func(t *testing.T) {
		h := newTestHarness()
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, mock.Anything).Return(false, nil)

		resp, err := NewAccountService(h.deps()).Import(h.ctx, h.tenantID, ImportAccountsRequest{Rows: []ImportAccountRow{
			{Line: 2, Code: "1000", Name: "Cash", Class: "asset", ParentCode: "1010"},
			{Line: 3, Code: "1010", Name: "Petty cash", Class: "asset", ParentCode: "1000"},
		}})

		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, ImportErrParentCycle, resp.Errors[0].Code)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		h := newTestHarness()
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, "1000").Return(false, nil)

		resp, err := NewAccountService(h.deps()).Import(h.ctx, h.tenantID, ImportAccountsRequest{
			DryRun: true,
			Rows:   []ImportAccountRow{{Line: 2, Code: "1000", Name: "Cash", Class: "asset"}},
		})

		require.NoError(t, err)
		assert.True(t, resp.Valid())
		assert.True(t, resp.DryRun)
		assert.Zero(t, resp.Created)
		h.repos.accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("empty batch", func(t *testing.T) {
		h := newTestHarness()

		_, err := NewAccountService(h.deps()).Import(h.ctx, h.tenantID, ImportAccountsRequest{})

		assert.Equal(t, shared.ErrValidationFailed.Code, errCode(t, err))
		assert.Zero(t, h.scope.executions)
	})

	t.Run("requires create permission", func(t *testing.T) {
		h := newTestHarness()
		ctx := withPermissions(h.tenantID, string(CapAccountRead))

		_, err := NewAccountService(h.deps()).Import(ctx, h.tenantID, ImportAccountsRequest{
			Rows: []ImportAccountRow{{Line: 2, Code: "1000", Name: "Cash", Class: "asset"}},
		})

		assert.Equal(t, "FORBIDDEN", errCode(t, err))
	})
}
