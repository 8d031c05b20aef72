package handler

import (
	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// JournalHandler handles journal entry HTTP requests
type JournalHandler struct {
	BaseHandler
	journalService *appfin.JournalService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journalService *appfin.JournalService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

// Create godoc
// @ID           createFinanceJournalEntry
// @Summary      Record a draft journal entry
// @Tags         journal-entries
// @Accept       json
// @Produce      json
// @Param        request body appfin.CreateJournalEntryRequest true "Journal entry"
// @Success      201 {object} dto.Response{data=appfin.JournalEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/journal-entries [post]
func (h *JournalHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appfin.CreateJournalEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entry, err := h.journalService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// Post godoc
// @ID           postFinanceJournalEntry
// @Summary      Post a draft journal entry
// @Description  Posting requires a balanced entry dated inside an open period and updates account balances
// @Tags         journal-entries
// @Produce      json
// @Param        id path string true "Journal entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.JournalEntryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/journal-entries/{id}/post [post]
func (h *JournalHandler) Post(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "journal entry")
	if !ok {
		return
	}

	entry, err := h.journalService.Post(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// UpdateDraft godoc
// @ID           updateFinanceJournalEntry
// @Summary      Replace the content of a draft journal entry
// @Tags         journal-entries
// @Accept       json
// @Produce      json
// @Param        id path string true "Journal entry ID" format(uuid)
// @Param        request body appfin.UpdateJournalEntryRequest true "Journal entry content"
// @Success      200 {object} dto.Response{data=appfin.JournalEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/journal-entries/{id} [put]
func (h *JournalHandler) UpdateDraft(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "journal entry")
	if !ok {
		return
	}
	var req appfin.UpdateJournalEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entry, err := h.journalService.UpdateDraft(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// DeleteDraft godoc
// @ID           deleteFinanceJournalEntry
// @Summary      Delete a draft journal entry
// @Tags         journal-entries
// @Param        id path string true "Journal entry ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/journal-entries/{id} [delete]
func (h *JournalHandler) DeleteDraft(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "journal entry")
	if !ok {
		return
	}

	if err := h.journalService.DeleteDraft(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Reverse godoc
// @ID           reverseFinanceJournalEntry
// @Summary      Reverse a posted journal entry
// @Description  Posts a mirror entry with debits and credits swapped and marks the original reversed
// @Tags         journal-entries
// @Accept       json
// @Produce      json
// @Param        id path string true "Journal entry ID" format(uuid)
// @Param        request body appfin.ReverseJournalEntryRequest false "Reversal options"
// @Success      201 {object} dto.Response{data=appfin.JournalEntryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/journal-entries/{id}/reverse [post]
func (h *JournalHandler) Reverse(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "journal entry")
	if !ok {
		return
	}
	var req appfin.ReverseJournalEntryRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	reversal, err := h.journalService.Reverse(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, reversal)
}

// Get godoc
// @ID           getFinanceJournalEntry
// @Summary      Get a journal entry with its lines
// @Tags         journal-entries
// @Produce      json
// @Param        id path string true "Journal entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.JournalEntryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/journal-entries/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "journal entry")
	if !ok {
		return
	}

	entry, err := h.journalService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// List godoc
// @ID           listFinanceJournalEntries
// @Summary      List journal entries
// @Tags         journal-entries
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Reference or description"
// @Param        status query string false "Status" Enums(draft, posted, reversed)
// @Param        account_id query string false "Entries touching this account" format(uuid)
// @Param        from_date query string false "Entry date from (inclusive)"
// @Param        to_date query string false "Entry date to (inclusive)"
// @Success      200 {object} dto.Response{data=[]appfin.JournalEntryResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/journal-entries [get]
func (h *JournalHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	req := appfin.ListJournalEntriesRequest{
		Page:      q.Int("page"),
		PageSize:  q.Int("page_size"),
		Search:    q.String("search"),
		Status:    q.String("status"),
		AccountID: q.UUID("account_id"),
		FromDate:  q.Date("from_date"),
		ToDate:    q.Date("to_date"),
	}
	if !h.checkQuery(c, q) {
		return
	}

	page, err := h.journalService.List(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
