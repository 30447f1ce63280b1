package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the uniform error payload
type ErrorBody struct {
	Error string `json:"error"`
}

// SuccessResponse sends the payload as the response body
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// CreatedResponse sends a created response
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{Error: message})
}

// AppErrorResponse sends an AppError response
func AppErrorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.Code, ErrorBody{Error: err.Message})
}
