package resilience

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Breaker state (0=closed, 0.5=half-open, 1=open)",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_calls_total",
		Help: "Calls offered to a breaker by result (ok, failed, rejected)",
	}, []string{"breaker", "result"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_state_changes_total",
		Help: "Breaker state transitions",
	}, []string{"breaker", "from", "to"})

	anonymousBreakers uint64
)

const (
	resultOK       = "ok"
	resultFailed   = "failed"
	resultRejected = "rejected"
)

// breakerMetrics holds the series for one named breaker.
type breakerMetrics struct {
	name     string
	state    prometheus.Gauge
	ok       prometheus.Counter
	failed   prometheus.Counter
	rejected prometheus.Counter
}

func newBreakerMetrics(name string) breakerMetrics {
	return breakerMetrics{
		name:     name,
		state:    breakerState.WithLabelValues(name),
		ok:       breakerCalls.WithLabelValues(name, resultOK),
		failed:   breakerCalls.WithLabelValues(name, resultFailed),
		rejected: breakerCalls.WithLabelValues(name, resultRejected),
	}
}

func (m breakerMetrics) transition(from, to gobreaker.State) {
	breakerTransitions.WithLabelValues(m.name, from.String(), to.String()).Inc()
	m.state.Set(stateValue(to))
}

func breakerName(base string) string {
	if base != "" {
		return base
	}
	return "breaker-" + strconv.FormatUint(atomic.AddUint64(&anonymousBreakers, 1), 10)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	default:
		return -1
	}
}
