package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus surface for the orchestration layer.
type Metrics struct {
	// PublishCounter counts publish attempts.
	// Labels: platform (twitter|linkedin|youtube), status (success|error)
	PublishCounter *prometheus.CounterVec

	// PublishDuration measures end-to-end publish latency in seconds.
	// Labels: platform
	PublishDuration *prometheus.HistogramVec

	// DryRunCounter counts dry-run validations.
	// Labels: platform, outcome (pass|fail)
	DryRunCounter *prometheus.CounterVec

	// CredentialRefreshCounter counts OAuth token refreshes.
	// Labels: provider, status (success|error)
	CredentialRefreshCounter *prometheus.CounterVec

	// RenderJobCounter counts render jobs by their admission outcome.
	// Labels: provider, status (queued|awaiting_provider|budget_exceeded)
	RenderJobCounter *prometheus.CounterVec

	// RenderCostEstimate observes estimated render cost in dollars.
	// Labels: provider
	RenderCostEstimate *prometheus.HistogramVec

	// UploadPhaseCounter counts upload phase outcomes.
	// Labels: phase (initiate|fetch_source|transfer|finalize), status
	UploadPhaseCounter *prometheus.CounterVec

	// AIRequestCounter counts text-generation calls.
	// Labels: provider (anthropic|gemini|openai), status (success|error)
	AIRequestCounter *prometheus.CounterVec

	// AIRequestDuration measures text-generation latency in seconds.
	// Labels: provider
	AIRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics. Call once at
// process startup; promauto registers with the default registry exposed at
// /metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PublishCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syndicate_publish_total",
				Help: "Total publish attempts by platform and status",
			},
			[]string{"platform", "status"},
		),
		PublishDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "syndicate_publish_duration_seconds",
				Help:    "End-to-end publish latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"platform"},
		),
		DryRunCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syndicate_dryrun_total",
				Help: "Total dry-run validations by platform and outcome",
			},
			[]string{"platform", "outcome"},
		),
		CredentialRefreshCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syndicate_credential_refresh_total",
				Help: "Total OAuth token refreshes by provider and status",
			},
			[]string{"provider", "status"},
		),
		RenderJobCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syndicate_render_jobs_total",
				Help: "Total render jobs by provider and admission status",
			},
			[]string{"provider", "status"},
		),
		RenderCostEstimate: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "syndicate_render_cost_estimate_dollars",
				Help:    "Estimated render cost in dollars",
				Buckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"provider"},
		),
		UploadPhaseCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syndicate_upload_phase_total",
				Help: "Total upload phase outcomes",
			},
			[]string{"phase", "status"},
		),
		AIRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syndicate_ai_requests_total",
				Help: "Total text-generation requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		AIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "syndicate_ai_request_duration_seconds",
				Help:    "Text-generation request latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
	}
}
