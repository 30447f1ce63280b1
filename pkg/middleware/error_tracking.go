package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/errors"
)

// SentryMiddleware attaches a Sentry hub to every request
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorHandler reports unexpected handler errors and 5xx responses to Sentry.
// Place it after the other middleware in the chain.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		errors.AddBreadcrumbForRequest(c.Request.Method, c.Request.URL.Path, statusCode, duration)

		for _, err := range c.Errors {
			if errors.ShouldReportError(err.Err, statusCode) {
				captureError(c, err.Err, statusCode, duration)
			}
		}

		if statusCode >= 500 && len(c.Errors) == 0 {
			captureError(c, fmt.Errorf("HTTP %d: %s %s", statusCode, c.Request.Method, c.Request.URL.Path), statusCode, duration)
		}
	}
}

// RecoveryWithSentry recovers from panics, reports them and answers 500
func RecoveryWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				hub := hubFor(c)
				hub.Scope().SetRequest(c.Request)
				hub.Scope().SetContext("panic", map[string]interface{}{
					"value":      fmt.Sprintf("%v", err),
					"stacktrace": string(debug.Stack()),
				})
				hub.RecoverWithContext(c.Request.Context(), err)
				hub.Flush(2 * time.Second)

				c.AbortWithStatusJSON(http.StatusInternalServerError, common.ErrorBody{Error: "internal server error"})
			}
		}()

		c.Next()
	}
}

func captureError(c *gin.Context, err error, statusCode int, duration time.Duration) {
	hub := hubFor(c)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request)
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("http.method", c.Request.Method)
		scope.SetTag("http.status_code", fmt.Sprintf("%d", statusCode))
		scope.SetTag("endpoint", c.FullPath())
		scope.SetTag("correlation_id", GetCorrelationID(c))
		if userID, err := GetUserID(c); err == nil {
			scope.SetUser(sentry.User{ID: userID, IPAddress: c.ClientIP()})
		}
		if fp := errors.Fingerprint(err); fp != nil {
			scope.SetFingerprint(fp)
		}
		scope.SetContext("http", map[string]interface{}{
			"method":      c.Request.Method,
			"url":         c.Request.URL.String(),
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		})
		hub.CaptureException(err)
	})
}

func hubFor(c *gin.Context) *sentry.Hub {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		return hub
	}
	return sentry.CurrentHub().Clone()
}
