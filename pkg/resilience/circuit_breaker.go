package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/transit-ops/pkg/config"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultFailureThreshold = 5

// ErrCircuitOpen is returned when the breaker refuses a call.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Settings defines runtime options for the circuit breaker.
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
	// IsSuccessful decides whether an error counts against the breaker.
	// Defaults to treating context cancellation as success.
	IsSuccessful func(err error) bool
}

// SettingsFromConfig builds breaker settings from the service configuration.
func SettingsFromConfig(name string, cfg config.CircuitBreakerConfig) Settings {
	return Settings{
		Name:             name,
		Interval:         time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
		FailureThreshold: uint32(cfg.FailureThreshold),
		SuccessThreshold: uint32(cfg.SuccessThreshold),
	}
}

func (s Settings) successful() func(error) bool {
	if s.IsSuccessful != nil {
		return s.IsSuccessful
	}
	return func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
}

func (s Settings) toGobreaker(name string, metrics breakerMetrics) gobreaker.Settings {
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: s.SuccessThreshold,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: s.successful(),
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.transition(from, to)
		},
	}
}

// CircuitBreaker guards calls to a backend that can fail as a whole.
type CircuitBreaker struct {
	name         string
	breaker      *gobreaker.CircuitBreaker
	metrics      breakerMetrics
	isSuccessful func(error) bool
}

// NewCircuitBreaker constructs a breaker with logging and metrics.
func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	name := breakerName(settings.Name)
	metrics := newBreakerMetrics(name)
	metrics.state.Set(stateValue(gobreaker.StateClosed))
	return &CircuitBreaker{
		name:         name,
		breaker:      gobreaker.NewCircuitBreaker(settings.toGobreaker(name, metrics)),
		metrics:      metrics,
		isSuccessful: settings.successful(),
	}
}

// Name returns the breaker name used in logs and metrics.
func (c *CircuitBreaker) Name() string {
	return c.name
}

// Do runs fn through the breaker. Refusals come back as ErrCircuitOpen.
func (c *CircuitBreaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Call(ctx, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call runs fn through cb and returns its typed result. A nil breaker runs
// fn directly.
func Call[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if fn == nil {
		return zero, errors.New("operation cannot be nil")
	}
	if cb == nil || cb.breaker == nil {
		return fn(ctx)
	}

	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		cb.metrics.rejected.Inc()
		return zero, ErrCircuitOpen
	case err != nil && !cb.isSuccessful(err):
		cb.metrics.failed.Inc()
		return zero, err
	case err != nil:
		cb.metrics.ok.Inc()
		return zero, err
	}
	cb.metrics.ok.Inc()
	value, _ := result.(T)
	return value, nil
}

// Allow reports whether the breaker would admit a call right now.
func (c *CircuitBreaker) Allow() bool {
	if c == nil || c.breaker == nil {
		return true
	}
	return c.breaker.State() != gobreaker.StateOpen
}

// State returns the current breaker state as a string.
func (c *CircuitBreaker) State() string {
	if c == nil || c.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return c.breaker.State().String()
}
