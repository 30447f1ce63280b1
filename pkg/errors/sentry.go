package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/resilience"
	"github.com/sony/gobreaker"
)

// SentryConfig holds configuration for Sentry integration
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
	ServerName       string
}

// DefaultSentryConfig reads Sentry settings from the environment
func DefaultSentryConfig(serviceName string) *SentryConfig {
	env := getEnvironment()
	tracesRate := 1.0
	if env == "production" {
		tracesRate = 0.1
	}
	return &SentryConfig{
		DSN:              os.Getenv("SENTRY_DSN"),
		Environment:      env,
		Release:          os.Getenv("SENTRY_RELEASE"),
		SampleRate:       envFloat("SENTRY_SAMPLE_RATE", 1.0),
		TracesSampleRate: envFloat("SENTRY_TRACES_SAMPLE_RATE", tracesRate),
		Debug:            os.Getenv("SENTRY_DEBUG") == "true",
		ServerName:       serviceName,
	}
}

// ErrSentryDisabled is returned by InitSentry when no DSN is configured
var ErrSentryDisabled = stderrors.New("sentry DSN is not configured")

// Fingerprints group outage noise into one issue per failure mode.
const (
	FingerprintStoreUnavailable = "store-unavailable"
	FingerprintBreakerOpen      = "store-breaker-open"
	FingerprintTicketEvent      = "ticket-event-publish"
)

var sensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

// InitSentry initializes the Sentry SDK with the given configuration
func InitSentry(config *SentryConfig) error {
	if config.DSN == "" {
		return ErrSentryDisabled
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		SampleRate:       config.SampleRate,
		TracesSampleRate: config.TracesSampleRate,
		Debug:            config.Debug,
		ServerName:       config.ServerName,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrubEvent(event)
		},
		BeforeBreadcrumb: func(breadcrumb *sentry.Breadcrumb, _ *sentry.BreadcrumbHint) *sentry.Breadcrumb {
			if breadcrumb.Data != nil {
				for _, h := range sensitiveHeaders {
					delete(breadcrumb.Data, h)
				}
			}
			return breadcrumb
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}

// scrubEvent drops low-severity events and strips credentials from the
// captured request. A nil return discards the event.
func scrubEvent(event *sentry.Event) *sentry.Event {
	if event == nil || event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
		return nil
	}
	if event.Request != nil {
		for _, h := range sensitiveHeaders {
			delete(event.Request.Headers, h)
		}
		event.Request.Cookies = ""
	}
	return event
}

// Flush flushes the Sentry buffer
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// Fingerprint picks a grouping key for err, or nil to let Sentry decide.
func Fingerprint(err error) []string {
	if stderrors.Is(err, resilience.ErrCircuitOpen) ||
		stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return []string{FingerprintBreakerOpen}
	}
	var appErr *common.AppError
	if stderrors.As(err, &appErr) && appErr.Code == http.StatusInternalServerError &&
		appErr.Message == common.ErrStoreUnavailable.Error() {
		return []string{FingerprintStoreUnavailable}
	}
	return nil
}

// CaptureErrorWithContext reports err on the request hub, tagged with the
// correlation id and extras.
func CaptureErrorWithContext(ctx context.Context, err error, extras map[string]interface{}) *sentry.EventID {
	return capture(ctx, err, nil, extras)
}

// CaptureTicketEventFailure reports a ticket event that could not be
// published after its write committed.
func CaptureTicketEventFailure(ctx context.Context, err error, subject, ticketID string) *sentry.EventID {
	return capture(ctx, err, []string{FingerprintTicketEvent, subject}, map[string]interface{}{
		"subject":   subject,
		"ticket_id": ticketID,
	})
}

func capture(ctx context.Context, err error, fingerprint []string, extras map[string]interface{}) *sentry.EventID {
	if err == nil {
		return nil
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	if fingerprint == nil {
		fingerprint = Fingerprint(err)
	}

	var eventID *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}
		if fingerprint != nil {
			scope.SetFingerprint(fingerprint)
		}
		eventID = hub.CaptureException(err)
	})
	return eventID
}

// AddBreadcrumbForRequest records a completed HTTP request
func AddBreadcrumbForRequest(method, url string, statusCode int, duration time.Duration) {
	level := sentry.LevelInfo
	if statusCode >= http.StatusInternalServerError {
		level = sentry.LevelError
	} else if statusCode >= http.StatusBadRequest {
		level = sentry.LevelWarning
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "http",
		Category:  "http.request",
		Level:     level,
		Message:   fmt.Sprintf("%s %s", method, url),
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"method":      method,
			"url":         url,
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// ShouldReportError reports whether err is worth a Sentry event.
// Validation, not-found and conflict errors are expected outcomes.
func ShouldReportError(err error, statusCode int) bool {
	if err == nil {
		return false
	}
	if common.IsClientError(err) {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
		return false
	}
	return true
}

func getEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("SENTRY_ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return env
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}
