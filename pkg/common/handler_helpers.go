package common

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/pkg/logger"
	"go.uber.org/zap"
)

// HandleServiceError handles service errors with consistent patterns.
// Returns true if an error was handled (and response was sent), false otherwise.
//
// Usage:
//
//	report, err := h.service.GenerateReport(ctx, variant, criteria)
//	if common.HandleServiceError(c, err, "failed to generate report") {
//	    return
//	}
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError(fallbackMessage, err)
	}
	if appErr.Code >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), fallbackMessage, zap.Error(err))
		_ = c.Error(err)
	}
	AppErrorResponse(c, appErr)
	return true
}

// RequireParam reads a required path parameter.
// Returns the value and true on success, or sends a 400 response and returns false.
//
// Usage:
//
//	ticketID, ok := common.RequireParam(c, "id", "ticket id")
//	if !ok {
//	    return
//	}
func RequireParam(c *gin.Context, paramName, displayName string) (string, bool) {
	value := strings.TrimSpace(c.Param(paramName))
	if value == "" {
		ErrorResponse(c, http.StatusBadRequest, displayName+" is required")
		return "", false
	}
	return value, true
}

// BindJSON binds JSON request body and sends error response on failure.
// Returns true on success, false on failure (response already sent).
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// BindQuery binds query parameters and sends error response on failure.
// Returns true on success, false on failure (response already sent).
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
