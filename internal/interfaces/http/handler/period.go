package handler

import (
	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// PeriodHandler handles accounting period HTTP requests
type PeriodHandler struct {
	BaseHandler
	periodService *appfin.PeriodService
}

// NewPeriodHandler creates a new PeriodHandler
func NewPeriodHandler(periodService *appfin.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodService: periodService}
}

// Create godoc
// @ID           createFinancePeriod
// @Summary      Open an accounting period
// @Description  Periods cover [start_date, end_date) and may not overlap
// @Tags         periods
// @Accept       json
// @Produce      json
// @Param        request body appfin.CreatePeriodRequest true "Period"
// @Success      201 {object} dto.Response{data=appfin.PeriodResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appfin.CreatePeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}

	period, err := h.periodService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, period)
}

// Close godoc
// @ID           closeFinancePeriod
// @Summary      Close an accounting period
// @Tags         periods
// @Produce      json
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/periods/{id}/close [post]
func (h *PeriodHandler) Close(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "period")
	if !ok {
		return
	}

	period, err := h.periodService.Close(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// Lock godoc
// @ID           lockFinancePeriod
// @Summary      Lock a closed accounting period
// @Tags         periods
// @Produce      json
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/periods/{id}/lock [post]
func (h *PeriodHandler) Lock(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "period")
	if !ok {
		return
	}

	period, err := h.periodService.Lock(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// Get godoc
// @ID           getFinancePeriod
// @Summary      Get an accounting period
// @Tags         periods
// @Produce      json
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfin.PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "period")
	if !ok {
		return
	}

	period, err := h.periodService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// FindForDate godoc
// @ID           findFinancePeriodForDate
// @Summary      Find the period covering a date
// @Tags         periods
// @Produce      json
// @Param        date query string true "Date (YYYY-MM-DD or RFC3339)"
// @Success      200 {object} dto.Response{data=appfin.PeriodResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/periods/for-date [get]
func (h *PeriodHandler) FindForDate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	date := q.Date("date")
	if !h.checkQuery(c, q) {
		return
	}
	if date == nil {
		h.BadRequest(c, "Query parameter date is required")
		return
	}

	period, err := h.periodService.FindForDate(c.Request.Context(), tenantID, *date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// List godoc
// @ID           listFinancePeriods
// @Summary      List accounting periods
// @Tags         periods
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        fiscal_year query int false "Fiscal year"
// @Param        status query string false "Status" Enums(open, closed, locked)
// @Success      200 {object} dto.Response{data=[]appfin.PeriodResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	req := appfin.ListPeriodsRequest{
		Page:       q.Int("page"),
		PageSize:   q.Int("page_size"),
		FiscalYear: q.IntPtr("fiscal_year"),
		Status:     q.String("status"),
	}
	if !h.checkQuery(c, q) {
		return
	}

	page, err := h.periodService.List(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
