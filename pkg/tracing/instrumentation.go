package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store span attributes
const (
	DBSystemKey    = attribute.Key("db.system")
	DBOperationKey = attribute.Key("db.operation")
	DBNameKey      = attribute.Key("db.name")
)

// Redis span attributes
const (
	RedisCommandKey = attribute.Key("redis.command")
	RedisKeyKey     = attribute.Key("redis.key")
)

// Business logic span attributes
const (
	ReportVariantKey   = attribute.Key("report.variant")
	ReportDimensionKey = attribute.Key("report.dimension")
	FilterStartKey     = attribute.Key("filter.start_date")
	FilterEndKey       = attribute.Key("filter.end_date")
	TicketIDKey        = attribute.Key("ticket.id")
	VehicleIDKey       = attribute.Key("vehicle.id")
	TicketStatusKey    = attribute.Key("ticket.status")
	UserIDKey          = attribute.Key("user.id")
	CorrelationIDKey   = attribute.Key("correlation.id")
	StoreBackendKey    = attribute.Key("transit.store.backend")
)

// TraceStoreCall wraps a record-store round trip with a client span
func TraceStoreCall(ctx context.Context, tracerName, system, operation string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("%s.%s", system, operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		DBSystemKey.String(system),
		DBOperationKey.String(operation),
	)

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// TraceRedisCommand wraps a Redis command with tracing. A cache miss is not an error.
func TraceRedisCommand(ctx context.Context, tracerName, command, key string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("redis.%s", command),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		DBSystemKey.String("redis"),
		RedisCommandKey.String(command),
		RedisKeyKey.String(key),
	)

	err := fn(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// TraceBusinessLogic wraps business logic with tracing
func TraceBusinessLogic(ctx context.Context, tracerName, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	// attributes go in at start so samplers can see them
	ctx, span := StartSpan(ctx, tracerName, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	span.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// ReportAttributes builds span attributes for a report request
func ReportAttributes(variant, startDate, endDate string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{ReportVariantKey.String(variant)}
	if startDate != "" {
		attrs = append(attrs, FilterStartKey.String(startDate))
	}
	if endDate != "" {
		attrs = append(attrs, FilterEndKey.String(endDate))
	}
	return attrs
}

// TicketAttributes builds span attributes for a maintenance ticket mutation
func TicketAttributes(ticketID, vehicleID, status string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if ticketID != "" {
		attrs = append(attrs, TicketIDKey.String(ticketID))
	}
	if vehicleID != "" {
		attrs = append(attrs, VehicleIDKey.String(vehicleID))
	}
	if status != "" {
		attrs = append(attrs, TicketStatusKey.String(status))
	}
	return attrs
}
