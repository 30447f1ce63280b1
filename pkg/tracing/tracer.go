package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultOTLPEndpoint = "localhost:4317"

// MaintenanceSpanPrefix names the spans opened around ticket writes.
const MaintenanceSpanPrefix = "maintenance."

// Config holds the configuration for the tracer
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
	Enabled        bool

	// StoreBackend is recorded on the resource so traces can be split by backend.
	StoreBackend string
	// AlwaysSample lists span name prefixes that bypass ratio sampling.
	// Defaults to MaintenanceSpanPrefix.
	AlwaysSample []string
}

var globalTracerProvider *sdktrace.TracerProvider

// InitTracer installs an OTLP/gRPC tracer provider. It returns nil without
// error when tracing is disabled.
func InitTracer(cfg Config, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		logger.Info("Tracing is disabled")
		return nil, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	endpoint := cfg.OTLPEndpoint
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(otlptracegrpc.WithGRPCConn(conn)))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(configureSampler(cfg)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	globalTracerProvider = tp

	logger.Info("OpenTelemetry tracer initialized",
		zap.String("endpoint", endpoint),
		zap.Float64("sample_rate", effectiveSampleRate(cfg)),
		zap.Strings("always_sample", alwaysSamplePrefixes(cfg)),
	)
	return tp, nil
}

func resourceAttributes(cfg Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		semconv.HostNameKey.String(hostname()),
	}
	if cfg.StoreBackend != "" {
		attrs = append(attrs, StoreBackendKey.String(cfg.StoreBackend))
	}
	return attrs
}

func effectiveSampleRate(cfg Config) float64 {
	if cfg.SampleRate > 0 {
		return cfg.SampleRate
	}
	switch cfg.Environment {
	case "staging", "stage":
		return 0.5
	case "production", "prod":
		return 0.1
	default:
		return 1.0
	}
}

func alwaysSamplePrefixes(cfg Config) []string {
	if cfg.AlwaysSample == nil {
		return []string{MaintenanceSpanPrefix}
	}
	return cfg.AlwaysSample
}

func configureSampler(cfg Config) sdktrace.Sampler {
	ratio := sdktrace.TraceIDRatioBased(effectiveSampleRate(cfg))
	root := prefixSampler{prefixes: alwaysSamplePrefixes(cfg), fallback: ratio}
	return sdktrace.ParentBased(root,
		sdktrace.WithRemoteParentSampled(sdktrace.AlwaysSample()),
		sdktrace.WithRemoteParentNotSampled(root),
	)
}

// prefixSampler records every root span whose name starts with one of
// prefixes and defers to fallback for the rest. Ticket writes are rare
// enough that keeping all of them costs little.
type prefixSampler struct {
	prefixes []string
	fallback sdktrace.Sampler
}

func (s prefixSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(p.Name, prefix) {
			return sdktrace.SamplingResult{
				Decision:   sdktrace.RecordAndSample,
				Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
			}
		}
	}
	return s.fallback.ShouldSample(p)
}

func (s prefixSampler) Description() string {
	return fmt.Sprintf("PrefixSampler{%s,%s}", strings.Join(s.prefixes, "|"), s.fallback.Description())
}

// Shutdown flushes and stops the installed tracer provider.
func Shutdown(ctx context.Context) error {
	if globalTracerProvider == nil {
		return nil
	}
	return globalTracerProvider.Shutdown(ctx)
}

// StartSpan starts a span on the named tracer.
func StartSpan(ctx context.Context, tracerName, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, opts...)
}

// AddSpanAttributes adds attributes to the current span when it is recording.
func AddSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// GetTraceID returns the trace id from ctx, or "" outside a trace.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
