package maintenance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_ticket_mutations_total",
		Help: "Maintenance ticket writes by operation and outcome",
	}, []string{"operation", "outcome"})

	ticketMutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_ticket_mutation_duration_seconds",
		Help:    "Time from submission to completion of a ticket write, including queueing",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ticketEventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_ticket_events_failed_total",
		Help: "Ticket change events that could not be published",
	})
)

// outcome labels a mutation result for metrics
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch {
	case isStatus(err, 400):
		return "invalid"
	case isStatus(err, 404):
		return "not_found"
	case isStatus(err, 409):
		return "conflict"
	}
	return "error"
}
