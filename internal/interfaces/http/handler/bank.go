package handler

import (
	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// BankHandler handles bank account and reconciliation HTTP requests
type BankHandler struct {
	BaseHandler
	bankService *appfin.BankService
}

// NewBankHandler creates a new BankHandler
func NewBankHandler(bankService *appfin.BankService) *BankHandler {
	return &BankHandler{bankService: bankService}
}

// CreateAccount godoc
// @ID           createFinanceBankAccount
// @Summary      Register a bank account
// @Tags         bank
// @Accept       json
// @Produce      json
// @Param        request body appfin.CreateBankAccountRequest true "Bank account"
// @Success      201 {object} dto.Response{data=appfin.BankAccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-accounts [post]
func (h *BankHandler) CreateAccount(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appfin.CreateBankAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.bankService.CreateBankAccount(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// DeactivateAccount godoc
// @ID           deactivateFinanceBankAccount
// @Summary      Deactivate a bank account
// @Tags         bank
// @Produce      json
// @Param        id path string true "Bank account ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.BankAccountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-accounts/{id}/deactivate [post]
func (h *BankHandler) DeactivateAccount(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "bank account")
	if !ok {
		return
	}

	account, err := h.bankService.DeactivateBankAccount(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// GetAccount godoc
// @ID           getFinanceBankAccount
// @Summary      Get a bank account
// @Tags         bank
// @Produce      json
// @Param        id path string true "Bank account ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.BankAccountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-accounts/{id} [get]
func (h *BankHandler) GetAccount(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "bank account")
	if !ok {
		return
	}

	account, err := h.bankService.GetBankAccount(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// ListAccounts godoc
// @ID           listFinanceBankAccounts
// @Summary      List bank accounts
// @Tags         bank
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Name, number or bank"
// @Success      200 {object} dto.Response{data=[]appfin.BankAccountResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-accounts [get]
func (h *BankHandler) ListAccounts(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	pageNo, pageSize, search := q.Int("page"), q.Int("page_size"), q.String("search")
	if !h.checkQuery(c, q) {
		return
	}

	page, err := h.bankService.ListBankAccounts(c.Request.Context(), tenantID, pageNo, pageSize, search)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// RecordTransaction godoc
// @ID           recordFinanceBankTransaction
// @Summary      Record a bank statement line
// @Tags         bank
// @Accept       json
// @Produce      json
// @Param        request body appfin.RecordBankTransactionRequest true "Bank transaction"
// @Success      201 {object} dto.Response{data=appfin.BankTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-transactions [post]
func (h *BankHandler) RecordTransaction(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appfin.RecordBankTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.bankService.RecordTransaction(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// Reconcile godoc
// @ID           reconcileFinanceBankTransaction
// @Summary      Match a bank transaction to a posted journal entry
// @Tags         bank
// @Accept       json
// @Produce      json
// @Param        id path string true "Bank transaction ID" format(uuid)
// @Param        request body appfin.ReconcileRequest true "Journal entry to match"
// @Success      200 {object} dto.Response{data=appfin.BankTransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-transactions/{id}/reconcile [post]
func (h *BankHandler) Reconcile(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "bank transaction")
	if !ok {
		return
	}
	var req appfin.ReconcileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.bankService.Reconcile(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// GetTransaction godoc
// @ID           getFinanceBankTransaction
// @Summary      Get a bank transaction
// @Tags         bank
// @Produce      json
// @Param        id path string true "Bank transaction ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.BankTransactionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-transactions/{id} [get]
func (h *BankHandler) GetTransaction(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "bank transaction")
	if !ok {
		return
	}

	tx, err := h.bankService.GetTransaction(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// ListTransactions godoc
// @ID           listFinanceBankTransactions
// @Summary      List bank transactions
// @Tags         bank
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        bank_account_id query string false "Bank account ID" format(uuid)
// @Param        status query string false "Status" Enums(unreconciled, reconciled)
// @Param        from_date query string false "Transaction date from (inclusive)"
// @Param        to_date query string false "Transaction date to (inclusive)"
// @Success      200 {object} dto.Response{data=[]appfin.BankTransactionResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/bank-transactions [get]
func (h *BankHandler) ListTransactions(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	req := appfin.ListBankTransactionsRequest{
		Page:          q.Int("page"),
		PageSize:      q.Int("page_size"),
		BankAccountID: q.UUID("bank_account_id"),
		Status:        q.String("status"),
		FromDate:      q.Date("from_date"),
		ToDate:        q.Date("to_date"),
	}
	if !h.checkQuery(c, q) {
		return
	}

	page, err := h.bankService.ListTransactions(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
