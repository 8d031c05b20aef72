package handler

import (
	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles chart of accounts HTTP requests
type AccountHandler struct {
	BaseHandler
	accountService *appfin.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *appfin.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Create godoc
// @ID           createFinanceAccount
// @Summary      Create a ledger account
// @Description  Add an account to the tenant's chart of accounts
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body appfin.CreateAccountRequest true "Account"
// @Success      201 {object} dto.Response{data=appfin.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appfin.CreateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Update godoc
// @ID           updateFinanceAccount
// @Summary      Update a ledger account
// @Description  Change an account's name, subtype, description or parent
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body appfin.UpdateAccountRequest true "Account changes"
// @Success      200 {object} dto.Response{data=appfin.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "account")
	if !ok {
		return
	}
	var req appfin.UpdateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Activate godoc
// @ID           activateFinanceAccount
// @Summary      Activate a ledger account
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.AccountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/accounts/{id}/activate [post]
func (h *AccountHandler) Activate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "account")
	if !ok {
		return
	}

	account, err := h.accountService.Activate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Deactivate godoc
// @ID           deactivateFinanceAccount
// @Summary      Deactivate a ledger account
// @Description  Inactive accounts keep their history but accept no new journal lines
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.AccountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/accounts/{id}/deactivate [post]
func (h *AccountHandler) Deactivate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "account")
	if !ok {
		return
	}

	account, err := h.accountService.Deactivate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Delete godoc
// @ID           deleteFinanceAccount
// @Summary      Delete a ledger account
// @Description  Only accounts with no journal lines and no children can be deleted
// @Tags         accounts
// @Param        id path string true "Account ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "account")
	if !ok {
		return
	}

	if err := h.accountService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Get godoc
// @ID           getFinanceAccount
// @Summary      Get a ledger account
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.AccountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "account")
	if !ok {
		return
	}

	account, err := h.accountService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// List godoc
// @ID           listFinanceAccounts
// @Summary      List ledger accounts
// @Tags         accounts
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Code or name"
// @Param        class query string false "Account class" Enums(asset, liability, equity, revenue, expense)
// @Param        is_active query bool false "Active flag"
// @Param        parent_id query string false "Parent account ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appfin.AccountResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	req := appfin.ListAccountsRequest{
		Page:     q.Int("page"),
		PageSize: q.Int("page_size"),
		Search:   q.String("search"),
		Class:    q.String("class"),
		IsActive: q.Bool("is_active"),
		ParentID: q.UUID("parent_id"),
	}
	if !h.checkQuery(c, q) {
		return
	}

	page, err := h.accountService.List(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Tree godoc
// @ID           getFinanceAccountTree
// @Summary      Get the chart of accounts as a tree
// @Tags         accounts
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appfin.AccountTreeNode}
// @Security     BearerAuth
// @Router       /finance/accounts/tree [get]
func (h *AccountHandler) Tree(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	tree, err := h.accountService.Tree(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}
