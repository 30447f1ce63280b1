package analytics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/pkg/common"
)

// Handler handles HTTP requests for analytics
type Handler struct {
	service *Service
}

// NewHandler creates a new analytics handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetReport handles GET /reports?type=<variant>
func (h *Handler) GetReport(c *gin.Context) {
	h.report(c, c.Query("type"))
}

// GetReportByType handles GET /reports/:type
func (h *Handler) GetReportByType(c *gin.Context) {
	h.report(c, c.Param("type"))
}

func (h *Handler) report(c *gin.Context, variantName string) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}

	report, err := h.service.GenerateReport(c.Request.Context(), ParseVariant(variantName), criteria)
	if common.HandleServiceError(c, err, "failed to generate report") {
		return
	}

	common.SuccessResponse(c, report)
}

// GetTrends handles GET /trends?mode=trailing|data&months=N
func (h *Handler) GetTrends(c *gin.Context) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}

	mode := TrendMode(c.DefaultQuery("mode", string(TrendTrailing)))
	if mode != TrendTrailing && mode != TrendData {
		common.ErrorResponse(c, http.StatusBadRequest, "mode must be one of trailing, data")
		return
	}

	months, err := boundedQueryInt(c, "months", DefaultTrendMonths, 1, 60)
	if common.HandleServiceError(c, err, "invalid months") {
		return
	}

	trends, err := h.service.Trends(c.Request.Context(), mode, months, criteria)
	if common.HandleServiceError(c, err, "failed to compute trends") {
		return
	}

	common.SuccessResponse(c, trends)
}

// GetLeaderboard handles GET /leaderboards/:dimension?limit=N
func (h *Handler) GetLeaderboard(c *gin.Context) {
	dim, err := ParseDimension(c.Param("dimension"))
	if common.HandleServiceError(c, err, "invalid dimension") {
		return
	}

	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}

	limit, err := boundedQueryInt(c, "limit", DefaultTopN, 1, 100)
	if common.HandleServiceError(c, err, "invalid limit") {
		return
	}

	board, err := h.service.Leaderboard(c.Request.Context(), dim, limit, criteria)
	if common.HandleServiceError(c, err, "failed to rank entities") {
		return
	}

	common.SuccessResponse(c, board)
}

// GetMaintenanceSchedule handles GET /maintenance/schedule
func (h *Handler) GetMaintenanceSchedule(c *gin.Context) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}

	schedule, err := h.service.Schedule(c.Request.Context(), criteria)
	if common.HandleServiceError(c, err, "failed to build maintenance schedule") {
		return
	}

	common.SuccessResponse(c, gin.H{"schedule": schedule, "total": len(schedule)})
}

// GetVehicleMaintenance handles GET /maintenance/vehicles/:id
func (h *Handler) GetVehicleMaintenance(c *gin.Context) {
	vehicleID, ok := common.RequireParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	entry, err := h.service.VehicleMaintenance(c.Request.Context(), vehicleID)
	if common.HandleServiceError(c, err, "failed to classify vehicle") {
		return
	}

	common.SuccessResponse(c, entry)
}

// bindCriteria reads filter query parameters and validates them before
// any store access.
func bindCriteria(c *gin.Context) (Criteria, bool) {
	var criteria Criteria
	if !common.BindQuery(c, &criteria) {
		return Criteria{}, false
	}
	if err := criteria.Validate(); err != nil {
		common.HandleServiceError(c, err, "invalid filters")
		return Criteria{}, false
	}
	return criteria, true
}

// boundedQueryInt reads an optional integer query parameter. An absent value
// yields def; anything non-numeric or outside [lo, hi] is a validation error.
func boundedQueryInt(c *gin.Context, name string, def, lo, hi int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, common.NewValidationError(fmt.Sprintf("%s must be an integer between %d and %d", name, lo, hi))
	}
	return n, nil
}
