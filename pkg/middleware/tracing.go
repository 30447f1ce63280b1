package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request. Report variants,
// leaderboard dimensions, ticket ids and date filters are copied onto the
// span so slow reports can be found by what they asked for.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+routeOf(c),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(c)...),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header("X-Trace-ID", sc.TraceID().String())
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if userID, err := GetUserID(c); err == nil {
			span.SetAttributes(tracing.UserIDKey.String(userID))
		}
		for _, err := range c.Errors {
			span.RecordError(err.Err)
		}
		// 4xx is the caller's problem, not a span error
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", c.FullPath()),
		attribute.String("http.target", c.Request.URL.RequestURI()),
	}
	if id := GetCorrelationID(c); id != "" {
		attrs = append(attrs, tracing.CorrelationIDKey.String(id))
	}
	if v := c.Param("type"); v != "" {
		attrs = append(attrs, tracing.ReportVariantKey.String(v))
	} else if v := c.Query("type"); v != "" {
		attrs = append(attrs, tracing.ReportVariantKey.String(v))
	}
	if v := c.Param("dimension"); v != "" {
		attrs = append(attrs, tracing.ReportDimensionKey.String(v))
	}
	if v := c.Param("id"); v != "" {
		attrs = append(attrs, tracing.TicketIDKey.String(v))
	}
	if v := c.Query("startDate"); v != "" {
		attrs = append(attrs, tracing.FilterStartKey.String(v))
	}
	if v := c.Query("endDate"); v != "" {
		attrs = append(attrs, tracing.FilterEndKey.String(v))
	}
	return attrs
}
