package handler

import (
	"errors"
	"io"
	"net/http"

	appfin "github.com/erp/accounting/internal/application/finance"
	csvimport "github.com/erp/accounting/internal/infrastructure/import"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ErrCodeImportRejected marks an import whose rows failed validation
const ErrCodeImportRejected = "IMPORT_REJECTED"

// chartColumns are the header columns of a chart of accounts CSV
var chartColumns = []string{"code", "name", "class"}

// ImportRejectedResponse carries the row errors of a rejected import
type ImportRejectedResponse struct {
	Success bool                          `json:"success"`
	Data    appfin.ImportAccountsResponse `json:"data"`
	Error   dto.ErrorInfo                 `json:"error"`
}

// Import godoc
// @ID           importFinanceAccounts
// @Summary      Import a chart of accounts from CSV
// @Description  Columns: code, name, class, and optionally subtype, description, parent_code, currency.
// @Description  Send the file as text/csv or as the multipart field "file". All rows are created or none are.
// @Tags         accounts
// @Accept       text/csv,mpfd
// @Produce      json
// @Param        file formData file false "CSV file"
// @Param        dry_run query bool false "Validate without creating"
// @Success      200 {object} dto.Response{data=appfin.ImportAccountsResponse} "Dry run"
// @Success      201 {object} dto.Response{data=appfin.ImportAccountsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} ImportRejectedResponse
// @Security     BearerAuth
// @Router       /finance/accounts/import [post]
func (h *AccountHandler) Import(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	q := newQueryParams(c)
	dryRun := q.Bool("dry_run")
	if !h.checkQuery(c, q) {
		return
	}

	src, closeSrc, err := csvSource(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	defer closeSrc()

	rows, err := csvimport.NewReader(
		csvimport.WithRequiredColumns(chartColumns...),
		csvimport.WithMaxRows(appfin.MaxImportRows),
	).ReadAll(src)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.InvalidJSON(c, err)
			return
		}
		h.BadRequest(c, err.Error())
		return
	}

	req := appfin.ImportAccountsRequest{Rows: make([]appfin.ImportAccountRow, 0, len(rows))}
	if dryRun != nil {
		req.DryRun = *dryRun
	}
	for _, row := range rows {
		req.Rows = append(req.Rows, appfin.ImportAccountRow{
			Line:        row.Line,
			Code:        row.Get("code"),
			Name:        row.Get("name"),
			Class:       row.Get("class"),
			Subtype:     row.Get("subtype"),
			Description: row.Get("description"),
			ParentCode:  row.Get("parent_code"),
			Currency:    row.Get("currency"),
		})
	}

	result, err := h.accountService.Import(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	switch {
	case !result.Valid():
		c.JSON(http.StatusUnprocessableEntity, ImportRejectedResponse{
			Data: *result,
			Error: dto.ErrorInfo{
				Code:      ErrCodeImportRejected,
				Message:   "Import rejected; no accounts were created",
				RequestID: requestID(c),
			},
		})
	case result.DryRun:
		h.Success(c, result)
	default:
		h.Created(c, result)
	}
}

// csvSource returns the uploaded file of a multipart request or the raw body
func csvSource(c *gin.Context) (io.Reader, func(), error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return c.Request.Body, func() {}, nil
	}
	header, err := c.FormFile("file")
	if err != nil {
		return nil, nil, errors.New("multipart field \"file\" is required")
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
