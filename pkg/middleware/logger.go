package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// probe paths are polled constantly and only logged at debug
var probePrefixes = []string{"/healthz", "/health/", "/metrics"}

// RequestLogger logs one line per request. Probes log at debug, client
// errors at warn, server errors at error.
func RequestLogger(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("service", serviceName),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if userID, err := GetUserID(c); err == nil {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := logger.WithContext(c.Request.Context()).Check(requestLevel(path, status, len(c.Errors) > 0), "Request completed"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestLevel(path string, status int, hasErrors bool) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	case hasErrors:
		return zapcore.ErrorLevel
	}
	for _, prefix := range probePrefixes {
		if strings.HasPrefix(path, prefix) {
			return zapcore.DebugLevel
		}
	}
	return zapcore.InfoLevel
}
