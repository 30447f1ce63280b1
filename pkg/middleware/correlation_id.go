package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/tracing"
)

const (
	// CorrelationIDHeader carries the request id in and out
	CorrelationIDHeader = "X-Request-ID"
	// LegacyCorrelationIDHeader is accepted from older dispatch consoles
	LegacyCorrelationIDHeader = "X-Correlation-ID"
	// CorrelationIDKey is the gin context key
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLen = 128
)

// CorrelationID reuses a well-formed inbound request id or mints a UUID,
// then exposes it to handlers, logs, spans and the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := inboundCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.Set(CorrelationIDKey, correlationID)
		ctx := logger.ContextWithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)
		tracing.AddSpanAttributes(ctx, tracing.CorrelationIDKey.String(correlationID))
		c.Writer.Header().Set(CorrelationIDHeader, correlationID)

		c.Next()
	}
}

// GetCorrelationID extracts correlation ID from gin context
func GetCorrelationID(c *gin.Context) string {
	if id, ok := c.Get(CorrelationIDKey); ok {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}

func inboundCorrelationID(c *gin.Context) string {
	for _, header := range []string{CorrelationIDHeader, LegacyCorrelationIDHeader} {
		if id := strings.TrimSpace(c.GetHeader(header)); validCorrelationID(id) {
			return id
		}
	}
	return ""
}

// validCorrelationID accepts short ids of letters, digits and -_.: so
// they are safe to echo in headers and log fields.
func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
