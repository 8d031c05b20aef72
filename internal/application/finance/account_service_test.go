package finance

import (
	"testing"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Create(t *testing.T) {
	t.Run("under a parent of the same class", func(t *testing.T) {
		h := newTestHarness()
		parent := testAccount(t, h.tenantID, "1000", finance.AccountClassAsset)
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, "1010").Return(false, nil)
		h.repos.accounts.On("FindByID", mock.Anything, h.tenantID, parent.ID).Return(parent, nil)
		h.repos.accounts.On("Save", mock.Anything, mock.AnythingOfType("*finance.LedgerAccount")).Return(nil)

		resp, err := NewAccountService(h.deps()).Create(h.ctx, h.tenantID, CreateAccountRequest{
			Code:     "1010",
			Name:     "Petty cash",
			Class:    "asset",
			ParentID: &parent.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, "1010", resp.Code)
		assert.True(t, resp.IsActive)
		assert.Equal(t, "0.00000000", resp.Balance)
		assert.Equal(t, "USD", resp.Currency)
		require.NotNil(t, resp.ParentID)
		assert.Equal(t, parent.ID, *resp.ParentID)
		assert.Equal(t, []string{finance.EventTypeLedgerAccountCreated}, h.repos.outbox.types())
	})

	t.Run("parent of another class", func(t *testing.T) {
		h := newTestHarness()
		parent := testAccount(t, h.tenantID, "2000", finance.AccountClassLiability)
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, "1010").Return(false, nil)
		h.repos.accounts.On("FindByID", mock.Anything, h.tenantID, parent.ID).Return(parent, nil)

		_, err := NewAccountService(h.deps()).Create(h.ctx, h.tenantID, CreateAccountRequest{
			Code: "1010", Name: "Petty cash", Class: "asset", ParentID: &parent.ID,
		})

		assert.Equal(t, "INVALID_PARENT", errCode(t, err))
	})

	t.Run("duplicate code", func(t *testing.T) {
		h := newTestHarness()
		h.repos.accounts.On("ExistsByCode", mock.Anything, h.tenantID, "1010").Return(true, nil)

		_, err := NewAccountService(h.deps()).Create(h.ctx, h.tenantID, CreateAccountRequest{
			Code: "1010", Name: "Petty cash", Class: "asset",
		})

		assert.Equal(t, "ACCOUNT_CODE_EXISTS", errCode(t, err))
	})

	t.Run("unknown class", func(t *testing.T) {
		h := newTestHarness()

		_, err := NewAccountService(h.deps()).Create(h.ctx, h.tenantID, CreateAccountRequest{
			Code: "1010", Name: "Petty cash", Class: "contra",
		})

		assert.Equal(t, shared.ErrValidationFailed.Code, errCode(t, err))
		assert.Zero(t, h.scope.executions)
	})
}

func TestAccountService_Delete(t *testing.T) {
	tests := []struct {
		name        string
		referenced  bool
		hasChildren bool
		wantCode    string
	}{
		{name: "unreferenced leaf"},
		{name: "referenced by journal lines", referenced: true, wantCode: "ACCOUNT_IN_USE"},
		{name: "has children", hasChildren: true, wantCode: "ACCOUNT_IN_USE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHarness()
			account := testAccount(t, h.tenantID, "6100", finance.AccountClassExpense)
			h.repos.accounts.On("FindByIDForUpdate", mock.Anything, h.tenantID, account.ID).Return(account, nil)
			h.repos.accounts.On("IsReferenced", mock.Anything, h.tenantID, account.ID).Return(tc.referenced, nil)
			h.repos.accounts.On("HasChildren", mock.Anything, h.tenantID, account.ID).Return(tc.hasChildren, nil).Maybe()
			h.repos.accounts.On("Delete", mock.Anything, h.tenantID, account.ID).Return(nil).Maybe()

			err := NewAccountService(h.deps()).Delete(h.ctx, h.tenantID, account.ID)

			if tc.wantCode == "" {
				require.NoError(t, err)
				h.repos.accounts.AssertCalled(t, "Delete", mock.Anything, h.tenantID, account.ID)
				return
			}
			assert.Equal(t, tc.wantCode, errCode(t, err))
			h.repos.accounts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAccountService_Deactivate(t *testing.T) {
	h := newTestHarness()
	account := testAccount(t, h.tenantID, "6100", finance.AccountClassExpense)
	h.repos.accounts.On("FindByIDForUpdate", mock.Anything, h.tenantID, account.ID).Return(account, nil)
	h.repos.accounts.On("Save", mock.Anything, account).Return(nil)

	resp, err := NewAccountService(h.deps()).Deactivate(h.ctx, h.tenantID, account.ID)

	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.Equal(t, []string{finance.EventTypeLedgerAccountStatusChanged}, h.repos.outbox.types())
}

func TestBuildAccountTree(t *testing.T) {
	h := newTestHarness()
	assets := testAccount(t, h.tenantID, "1000", finance.AccountClassAsset)
	cash := testAccount(t, h.tenantID, "1010", finance.AccountClassAsset)
	bank := testAccount(t, h.tenantID, "1020", finance.AccountClassAsset)
	revenue := testAccount(t, h.tenantID, "4000", finance.AccountClassRevenue)
	orphan := testAccount(t, h.tenantID, "4100", finance.AccountClassRevenue)
	require.NoError(t, cash.AttachTo(assets))
	require.NoError(t, bank.AttachTo(assets))
	missing := testAccount(t, h.tenantID, "4999", finance.AccountClassRevenue)
	require.NoError(t, orphan.AttachTo(missing))

	roots := BuildAccountTree([]finance.LedgerAccount{*assets, *cash, *bank, *revenue, *orphan})

	require.Len(t, roots, 3)
	assert.Equal(t, "1000", roots[0].Code)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "1010", roots[0].Children[0].Code)
	assert.Equal(t, "1020", roots[0].Children[1].Code)
	assert.Equal(t, "4000", roots[1].Code)
	assert.Empty(t, roots[1].Children)
	assert.Equal(t, "4100", roots[2].Code)
}

func TestAccountService_ResolveCodes(t *testing.T) {
	h := newTestHarness()
	expense := testAccount(t, h.tenantID, "6100", finance.AccountClassExpense)
	payable := testAccount(t, h.tenantID, "2100", finance.AccountClassLiability)
	retired := testAccount(t, h.tenantID, "2150", finance.AccountClassLiability)
	require.NoError(t, retired.Deactivate())
	h.repos.accounts.On("FindByCode", mock.Anything, h.tenantID, "6100").Return(expense, nil)
	h.repos.accounts.On("FindByCode", mock.Anything, h.tenantID, "2100").Return(payable, nil)
	h.repos.accounts.On("FindByCode", mock.Anything, h.tenantID, "2150").Return(retired, nil)
	h.repos.accounts.On("FindByCode", mock.Anything, h.tenantID, "9999").Return(nil, shared.NotFound("Ledger account"))
	svc := NewAccountService(h.deps())

	ids, err := svc.ResolveCodes(h.ctx, h.tenantID, "6100", "2100")
	require.NoError(t, err)
	assert.Equal(t, expense.ID, ids["6100"])
	assert.Equal(t, payable.ID, ids["2100"])

	_, err = svc.ResolveCodes(h.ctx, h.tenantID, "6100", "2150")
	assert.Equal(t, "ACCOUNT_INACTIVE", errCode(t, err))

	_, err = svc.ResolveCodes(h.ctx, h.tenantID, "9999")
	assert.True(t, shared.IsNotFound(err))
	assert.Contains(t, err.Error(), "9999")
}
