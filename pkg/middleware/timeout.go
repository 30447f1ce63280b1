package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/config"
	"github.com/richxcame/transit-ops/pkg/logger"
	"go.uber.org/zap"
)

// RouteKey builds the key used for per-route timeout overrides, e.g. "GET:/api/v1/analytics/reports"
func RouteKey(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.Request.Method + ":" + route
}

// RequestTimeout bounds request processing with the configured default or
// route-specific timeout. Expired requests get a 504.
func RequestTimeout(cfg *config.TimeoutConfig) gin.HandlerFunc {
	var handlers sync.Map // time.Duration -> gin.HandlerFunc

	return func(c *gin.Context) {
		d := cfg.RequestTimeoutFor(RouteKey(c))

		h, ok := handlers.Load(d)
		if !ok {
			h, _ = handlers.LoadOrStore(d, newTimeoutHandler(d))
		}
		h.(gin.HandlerFunc)(c)
	}
}

func newTimeoutHandler(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			logger.WithContext(c.Request.Context()).Warn("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Duration("timeout", d),
			)
			c.Header("X-Timeout", "true")
			c.JSON(http.StatusGatewayTimeout, common.ErrorBody{Error: "request timeout"})
		}),
	)
}
