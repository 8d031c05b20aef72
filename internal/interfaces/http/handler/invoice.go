package handler

import (
	"time"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice, payment and credit note HTTP requests
type InvoiceHandler struct {
	BaseHandler
	invoiceService *appfin.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *appfin.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// MarkOverdueResponse reports how many invoices a sweep marked overdue
type MarkOverdueResponse struct {
	AsOf   time.Time `json:"as_of"`
	Marked int       `json:"marked"`
}

// Create godoc
// @ID           createFinanceInvoice
// @Summary      Create a draft invoice or vendor bill
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body appfin.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=appfin.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appfin.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Send godoc
// @ID           sendFinanceInvoice
// @Summary      Send a draft invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Send(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Cancel godoc
// @ID           cancelFinanceInvoice
// @Summary      Cancel an invoice
// @Description  Invoices with recorded payments cannot be cancelled
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body appfin.CancelInvoiceRequest false "Cancellation reason"
// @Success      200 {object} dto.Response{data=appfin.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appfin.CancelInvoiceRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RecordPayment godoc
// @ID           recordFinanceInvoicePayment
// @Summary      Record a payment against an invoice
// @Description  The amount may not exceed the amount due; a payment that settles the invoice marks it paid
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body appfin.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=appfin.PaymentResultResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appfin.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.InvoiceID = id

	result, err := h.invoiceService.RecordPayment(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListPayments godoc
// @ID           listFinanceInvoicePayments
// @Summary      List the payments recorded against an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appfin.PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	payments, err := h.invoiceService.ListPayments(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if payments == nil {
		payments = []appfin.PaymentResponse{}
	}
	h.Success(c, payments)
}

// IssueCreditNote godoc
// @ID           issueFinanceCreditNote
// @Summary      Issue a credit note against an invoice
// @Description  The amount may not exceed the source invoice total; the source invoice itself is unchanged
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Source invoice ID" format(uuid)
// @Param        request body appfin.IssueCreditNoteRequest true "Credit note"
// @Success      201 {object} dto.Response{data=appfin.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/credit-notes [post]
func (h *InvoiceHandler) IssueCreditNote(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	var req appfin.IssueCreditNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.SourceInvoiceID = id

	note, err := h.invoiceService.IssueCreditNote(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, note)
}

// MarkOverdue godoc
// @ID           markFinanceInvoicesOverdue
// @Summary      Mark sent invoices past their due date overdue
// @Description  Runs the overdue sweep for the caller's tenant; the daily scheduler does the same for every tenant
// @Tags         invoices
// @Produce      json
// @Param        as_of query string false "Reference date, defaults to now"
// @Success      200 {object} dto.Response{data=MarkOverdueResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/mark-overdue [post]
func (h *InvoiceHandler) MarkOverdue(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	asOf := q.Date("as_of")
	if !h.checkQuery(c, q) {
		return
	}
	if asOf == nil {
		now := time.Now().UTC()
		asOf = &now
	}

	marked, err := h.invoiceService.MarkOverdue(c.Request.Context(), tenantID, *asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MarkOverdueResponse{AsOf: *asOf, Marked: marked})
}

// Get godoc
// @ID           getFinanceInvoice
// @Summary      Get an invoice with its lines
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List godoc
// @ID           listFinanceInvoices
// @Summary      List invoices, vendor bills and credit notes
// @Tags         invoices
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Invoice number or notes"
// @Param        type query string false "Type" Enums(invoice, vendor_bill, credit_note)
// @Param        status query string false "Status" Enums(draft, sent, overdue, paid, cancelled)
// @Param        partner_id query string false "Partner ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appfin.InvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	req := appfin.ListInvoicesRequest{
		Page:      q.Int("page"),
		PageSize:  q.Int("page_size"),
		Search:    q.String("search"),
		Type:      q.String("type"),
		Status:    q.String("status"),
		PartnerID: q.UUID("partner_id"),
	}
	if !h.checkQuery(c, q) {
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
