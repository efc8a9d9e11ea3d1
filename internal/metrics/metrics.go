// Package metrics provides Prometheus metrics for hh-analyst.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hh_analyst"

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// RunsTotal counts analysis runs by outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Total number of analysis runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_run_duration_seconds",
			Help:      "Duration of analysis runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// PostingsFetched observes how many postings a run received from the source.
	PostingsFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "postings_fetched",
			Help:      "Distribution of postings fetched per run",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2000},
		},
	)

	// LLMCallsTotal counts calls per AI task (review, judge, recommend).
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Total number of LLM backed tasks",
		},
		[]string{"task", "status"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of completion notifications",
		},
		[]string{"event", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// RecordRun records a finished analysis run.
func RecordRun(fetched int, duration time.Duration, err error) {
	RunsTotal.WithLabelValues(status(err)).Inc()
	RunDuration.Observe(duration.Seconds())
	if fetched >= 0 {
		PostingsFetched.Observe(float64(fetched))
	}
}

func RecordLLMCall(task string, err error) {
	LLMCallsTotal.WithLabelValues(task, status(err)).Inc()
}

func RecordNotification(event string, err error) {
	NotificationsTotal.WithLabelValues(event, status(err)).Inc()
}

// RecordHTTP records a served request.
func RecordHTTP(route string, code int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
