// Package metrics exposes Prometheus collectors for the QA worker.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal               *prometheus.CounterVec
	runDurationSeconds      *prometheus.HistogramVec
	urlChecksTotal          *prometheus.CounterVec
	urlCheckDurationSeconds *prometheus.HistogramVec
	fetchesTotal            *prometheus.CounterVec
	activeRuns              prometheus.Gauge
	reapedRunsTotal         prometheus.Counter
	heartbeatFailuresTotal  prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_runs_total",
				Help: "Total number of test runs processed, labeled by type and terminal status.",
			},
			[]string{"type", "status"},
		)

		runDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qa_run_duration_seconds",
				Help:    "Histogram of whole-run durations, labeled by type.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"type"},
		)

		urlChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_url_checks_total",
				Help: "Total number of per-URL checks, labeled by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		)

		urlCheckDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qa_url_check_duration_seconds",
				Help:    "Histogram of per-URL check durations, labeled by provider.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		)

		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_fetches_total",
				Help: "Total number of page fetches, labeled by site and result.",
			},
			[]string{"site", "result"},
		)

		activeRuns = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "qa_active_runs",
				Help: "Number of runs currently being processed by this worker.",
			},
		)

		reapedRunsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "qa_reaped_runs_total",
				Help: "Total stuck runs transitioned to FAILED by the reaper.",
			},
		)

		heartbeatFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "qa_heartbeat_failures_total",
				Help: "Total heartbeat renewals that returned an error.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records one completed run.
func ObserveRun(runType, status string, duration time.Duration) {
	runsTotal.WithLabelValues(runType, status).Inc()
	runDurationSeconds.WithLabelValues(runType).Observe(duration.Seconds())
}

// ObserveURLCheck records one per-URL check outcome.
func ObserveURLCheck(provider, outcome string, duration time.Duration) {
	urlChecksTotal.WithLabelValues(provider, outcome).Inc()
	urlCheckDurationSeconds.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveFetch records one page fetch.
func ObserveFetch(site, result string) {
	fetchesTotal.WithLabelValues(SanitizeSite(site), result).Inc()
}

// IncActiveRuns increments the active runs gauge.
func IncActiveRuns() {
	activeRuns.Inc()
}

// DecActiveRuns decrements the active runs gauge.
func DecActiveRuns() {
	activeRuns.Dec()
}

// ObserveReaped adds the reaper's batch size to the reaped counter.
func ObserveReaped(count int64) {
	if count > 0 {
		reapedRunsTotal.Add(float64(count))
	}
}

// ObserveHeartbeatFailure increments the heartbeat failure counter.
func ObserveHeartbeatFailure() {
	heartbeatFailuresTotal.Inc()
}
