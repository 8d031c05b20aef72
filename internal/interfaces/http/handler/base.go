package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// queryDateLayouts are accepted for date query parameters
var queryDateLayouts = []string{"2006-01-02", time.RFC3339}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated sends a page of items with its counts in meta
func Paginated[T any](c *gin.Context, page *shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.transportError(c, dto.ErrCodeBadRequest, message)
}

// InvalidJSON sends a 400 response for an unreadable body
func (h *BaseHandler) InvalidJSON(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.transportError(c, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	h.transportError(c, dto.ErrCodeInvalidJSON, "Request body is not valid JSON for this operation")
}

func (h *BaseHandler) transportError(c *gin.Context, code, message string) {
	c.JSON(dto.TransportStatus(code), dto.NewErrorResponse(code, message, requestID(c)))
}

// HandleError writes a domain failure with its code and status, and
// anything else as a 500 without leaking the cause
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if domainErr, ok := shared.AsDomainError(err); ok {
		c.JSON(dto.DomainStatus(domainErr.Code), dto.NewErrorResponse(domainErr.Code, domainErr.Message, requestID(c)))
		return
	}

	_ = c.Error(err)
	logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID(c),
	))
}

// tenantID returns the caller's tenant. Authenticate guarantees a
// principal on every protected route.
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.HandleError(c, shared.ErrUnauthorized)
		return uuid.Nil, false
	}
	return p.TenantID, true
}

// pathID parses a UUID path parameter
func (h *BaseHandler) pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into req, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.InvalidJSON(c, err)
		return false
	}
	return true
}

func requestID(c *gin.Context) string {
	if id := logger.RequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// queryParams reads typed query parameters, remembering the first
// malformed one
type queryParams struct {
	c   *gin.Context
	bad string
}

func newQueryParams(c *gin.Context) *queryParams {
	return &queryParams{c: c}
}

func (q *queryParams) fail(name string) {
	if q.bad == "" {
		q.bad = name
	}
}

func (q *queryParams) String(name string) string {
	return q.c.Query(name)
}

func (q *queryParams) Int(name string) int {
	raw := q.c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(name)
	}
	return n
}

func (q *queryParams) IntPtr(name string) *int {
	if q.c.Query(name) == "" {
		return nil
	}
	n := q.Int(name)
	return &n
}

func (q *queryParams) Bool(name string) *bool {
	raw := q.c.Query(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(name)
		return nil
	}
	return &b
}

func (q *queryParams) UUID(name string) *uuid.UUID {
	raw := q.c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		q.fail(name)
		return nil
	}
	return &id
}

func (q *queryParams) Date(name string) *time.Time {
	raw := q.c.Query(name)
	if raw == "" {
		return nil
	}
	for _, layout := range queryDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	q.fail(name)
	return nil
}

// checkQuery answers 400 when a query parameter was malformed
func (h *BaseHandler) checkQuery(c *gin.Context, q *queryParams) bool {
	if q.bad != "" {
		h.BadRequest(c, "Invalid query parameter: "+q.bad)
		return false
	}
	return true
}
