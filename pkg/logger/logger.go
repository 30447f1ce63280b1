package logger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log   *zap.Logger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

type contextKey string

const (
	correlationIDContextKey contextKey = "correlation_id"
	actorContextKey         contextKey = "actor"
)

// Init builds the global logger. Production writes JSON with ISO8601
// timestamps at info level. Other environments use the console encoder at
// debug level. SetLevel can adjust either afterwards.
func Init(environment, serviceName string) error {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		level.SetLevel(zapcore.InfoLevel)
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		level.SetLevel(zapcore.DebugLevel)
	}
	cfg.Level = level
	if serviceName != "" {
		cfg.InitialFields = map[string]interface{}{"service": serviceName}
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	log = built
	return nil
}

// SetLevel changes the minimum level of the global logger. An empty string
// leaves it unchanged.
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// Get returns the global logger instance
func Get() *zap.Logger {
	if log == nil {
		log, _ = zap.NewDevelopment()
	}
	return log
}

// SetForTest swaps the global logger and returns a restore func
func SetForTest(l *zap.Logger) func() {
	original := log
	log = l
	return func() { log = original }
}

// WithContext returns the global logger with the request's correlation id,
// acting user and trace id attached when present.
func WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Get()
	}
	if fields := contextFields(ctx); len(fields) > 0 {
		return Get().With(fields...)
	}
	return Get()
}

func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := CorrelationIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String(string(correlationIDContextKey), id))
	}
	if actor := ActorFromContext(ctx); actor != "" {
		fields = append(fields, zap.String(string(actorContextKey), actor))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	return fields
}

// ContextWithCorrelationID returns a context carrying correlationID.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

// CorrelationIDFromContext returns the correlation id in ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDContextKey).(string)
	return id
}

// ContextWithActor records the user performing a write.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the acting user id in ctx, or "".
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	actor, _ := ctx.Value(actorContextKey).(string)
	return actor
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// InfoContext logs at info level with the context fields attached.
func InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Info(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// ErrorContext logs at error level with the context fields attached.
func ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Error(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// DebugContext logs at debug level with the context fields attached.
func DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// WarnContext logs at warn level with the context fields attached.
func WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Warn(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}
