package triviaquiz

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// registry holds every metric of this process. promauto.With(registry)
	// keeps them out of prometheus.DefaultRegistry.
	registry = prometheus.NewRegistry()

	llmRequestsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "triviaquiz_llm_requests_total",
			Help: "Total number of model requests, partitioned by purpose and result.",
		},
		[]string{"purpose", "status"},
	)
	llmRequestDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triviaquiz_llm_request_duration_seconds",
			Help:    "Histogram of model request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"purpose"},
	)
	rateLimitRejections = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "triviaquiz_rate_limit_rejections_total",
			Help: "Model calls refused because the per-window maximum was reached.",
		},
	)
	duplicateRetries = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "triviaquiz_duplicate_question_retries_total",
			Help: "Generations discarded because the question was already asked in the session.",
		},
	)
	answersTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "triviaquiz_answers_total",
			Help: "Finished questions, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	registry.MustRegister(collectors.NewGoCollector())
}

// MetricsHandler serves the process metrics in the Prometheus text format
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordOutcome counts a finished question
func RecordOutcome(outcome Outcome) {
	answersTotal.WithLabelValues(string(outcome)).Inc()
}
