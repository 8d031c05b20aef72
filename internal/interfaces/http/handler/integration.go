package handler

import (
	"github.com/erp/accounting/internal/application/event"
	"github.com/gin-gonic/gin"
)

// IntegrationHandler accepts events from collaborating modules
type IntegrationHandler struct {
	BaseHandler
	ingestService *event.IngestService
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(ingestService *event.IngestService) *IntegrationHandler {
	return &IntegrationHandler{ingestService: ingestService}
}

// AcceptedTypesResponse lists the event types the endpoint accepts
type AcceptedTypesResponse struct {
	EventTypes []string `json:"event_types"`
}

// Ingest godoc
// @ID           ingestIntegrationEvent
// @Summary      Deliver a collaborator event
// @Description  Publishes the event to the finance listeners. The response acknowledges delivery only; listener outcomes are not reported.
// @Tags         integration
// @Accept       json
// @Produce      json
// @Param        request body event.IngestEventRequest true "Event envelope"
// @Success      202 {object} dto.Response{data=event.IngestEventResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integration/events [post]
func (h *IntegrationHandler) Ingest(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req event.IngestEventRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.ingestService.Ingest(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, resp)
}

// AcceptedTypes godoc
// @ID           listIntegrationEventTypes
// @Summary      List accepted collaborator event types
// @Tags         integration
// @Produce      json
// @Success      200 {object} dto.Response{data=AcceptedTypesResponse}
// @Security     BearerAuth
// @Router       /integration/events/types [get]
func (h *IntegrationHandler) AcceptedTypes(c *gin.Context) {
	h.Success(c, AcceptedTypesResponse{EventTypes: h.ingestService.AcceptedTypes()})
}
