package maintenance

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/pkg/async"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/middleware"
)

// Handler serves maintenance ticket writes. Schedule reads are served by
// the analytics handler, which owns the snapshot.
type Handler struct {
	service *Service
}

// NewHandler creates a new maintenance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the ticket endpoints under rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/schedule", h.CreateTicket)
	rg.GET("/schedule/:id", h.GetTicket)
	rg.PUT("/schedule/:id", h.UpdateTicket)
	rg.DELETE("/schedule/:id", h.DeleteTicket)
}

// CreateTicket handles POST /maintenance/schedule
func (h *Handler) CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if !common.BindJSON(c, &req) {
		return
	}

	ticket, err := h.service.Create(actorContext(c), req)
	if common.HandleServiceError(c, err, "failed to create maintenance ticket") {
		return
	}

	common.CreatedResponse(c, ticket)
}

// GetTicket handles GET /maintenance/schedule/:id
func (h *Handler) GetTicket(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "ticket id")
	if !ok {
		return
	}

	ticket, err := h.service.Get(c.Request.Context(), id)
	if common.HandleServiceError(c, err, "failed to get maintenance ticket") {
		return
	}

	common.SuccessResponse(c, ticket)
}

// UpdateTicket handles PUT /maintenance/schedule/:id
func (h *Handler) UpdateTicket(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "ticket id")
	if !ok {
		return
	}

	var req UpdateTicketRequest
	if !common.BindJSON(c, &req) {
		return
	}

	ticket, err := h.service.Update(actorContext(c), id, req)
	if common.HandleServiceError(c, err, "failed to update maintenance ticket") {
		return
	}

	common.SuccessResponse(c, ticket)
}

// DeleteTicket handles DELETE /maintenance/schedule/:id
func (h *Handler) DeleteTicket(c *gin.Context) {
	id, ok := common.RequireParam(c, "id", "ticket id")
	if !ok {
		return
	}

	ticket, err := h.service.Delete(actorContext(c), id)
	if common.HandleServiceError(c, err, "failed to delete maintenance ticket") {
		return
	}

	common.SuccessResponse(c, ticket)
}

func actorContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if userID, err := middleware.GetUserID(c); err == nil {
		ctx = async.WithActor(ctx, userID)
	}
	return ctx
}
