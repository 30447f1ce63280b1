package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_reports_total",
		Help: "Reports generated by variant and outcome",
	}, []string{"variant", "outcome"})

	reportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_report_duration_seconds",
		Help:    "Time spent building a report after the snapshot is fetched",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"variant"})

	snapshotFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "analytics_snapshot_fetch_duration_seconds",
		Help:    "Record store snapshot fetch latency",
		Buckets: prometheus.DefBuckets,
	})

	snapshotFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_snapshot_fetch_errors_total",
		Help: "Snapshot fetches that failed",
	})
)

func recordReport(variant string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	reportsTotal.WithLabelValues(variant, outcome).Inc()
}
