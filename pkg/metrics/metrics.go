// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// FlowRunsTotal tracks flow runs by routed intent and terminal status.
	FlowRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_runs_total",
			Help: "Total flow executor runs",
		},
		[]string{"intent", "status"},
	)

	// FlowDuration tracks end-to-end flow run duration.
	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flow_duration_seconds",
			Help:    "Flow run duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"intent"},
	)

	// ResearchFallbacksTotal counts whole-summary encoding fallbacks. These
	// runs report success to the caller but did not deliver real content.
	ResearchFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_fallbacks_total",
			Help: "Research runs degraded to the generic fallback message",
		},
	)

	// SourcesDroppedTotal counts raw sources dropped during normalization.
	SourcesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_sources_dropped_total",
			Help: "Raw research sources dropped as unsalvageable",
		},
	)

	// LLMCallDuration tracks LLM collaborator call duration.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM call duration in seconds",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SearchRequestsTotal tracks paper-search provider calls.
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_search_requests_total",
			Help: "Total paper-search provider requests",
		},
		[]string{"status"},
	)

	// SessionsActive tracks sessions currently held in the store.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of sessions in the store",
		},
	)

	// MessagesTotal tracks messages appended to sessions.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages appended",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordFlowRun records metrics for one flow executor run.
func RecordFlowRun(intent, status string, duration float64) {
	FlowRunsTotal.WithLabelValues(intent, status).Inc()
	FlowDuration.WithLabelValues(intent).Observe(duration)
}

// RecordLLMCall records metrics for an LLM collaborator call.
func RecordLLMCall(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCallDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
