// Package metrics exposes Prometheus collectors for capture, retry,
// validation, and topology activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	SnapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driftwatch_snapshots_total",
		Help: "snapshot captures by status",
	}, []string{"status"})
	RetryAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftwatch_retry_attempts_total",
		Help: "getter retry attempts beyond the first",
	})
	ValidationResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driftwatch_validation_results_total",
		Help: "validation assertions by outcome",
	}, []string{"outcome"})
	TopologyIssuesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driftwatch_topology_issues_total",
		Help: "topology issues by type",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(SnapshotsTotal, RetryAttemptsTotal, ValidationResultsTotal, TopologyIssuesTotal)
}

// Serve blocks serving /metrics on addr. Run it in a goroutine.
func Serve(addr string, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warnf("metrics server stopped: %v", err)
	}
}
