package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper-scout service.
// Metrics are organized by subsystem: ingestion, scoring, and the query API.
// All counters and histograms are registered via promauto for automatic
// registration with the default Prometheus registry.
type Metrics struct {
	// IngestionRunsStarted counts ingestion runs initiated.
	IngestionRunsStarted prometheus.Counter

	// IngestionRunsCompleted counts ingestion runs that finished successfully.
	IngestionRunsCompleted prometheus.Counter

	// IngestionRunsFailed counts ingestion runs that ended in failure.
	IngestionRunsFailed prometheus.Counter

	// IngestionDuration observes end-to-end ingestion run duration in seconds.
	IngestionDuration prometheus.Histogram

	// PapersFetched counts papers fetched from the source, labeled by category.
	PapersFetched *prometheus.CounterVec

	// FetchesFailed counts per-category fetch failures, labeled by category.
	FetchesFailed *prometheus.CounterVec

	// ScoringRequestsTotal counts completion requests, labeled by model.
	ScoringRequestsTotal *prometheus.CounterVec

	// ScoringRequestsFailed counts failed completion requests, labeled by model and error type.
	ScoringRequestsFailed *prometheus.CounterVec

	// ScoringRequestDuration observes completion request duration in seconds, labeled by model.
	ScoringRequestDuration *prometheus.HistogramVec

	// ScoringParseFallbacks counts replies that needed the pattern-extraction
	// fallback instead of the strict JSON decode.
	ScoringParseFallbacks prometheus.Counter

	// PapersScored counts papers annotated with a valid score.
	PapersScored prometheus.Counter

	// PapersSkipped counts papers skipped for empty abstracts.
	PapersSkipped prometheus.Counter

	// QueryRequestsTotal counts query API requests, labeled by endpoint.
	QueryRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		IngestionRunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_runs_started_total",
			Help:      "Total number of ingestion runs started",
		}),
		IngestionRunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_runs_completed_total",
			Help:      "Total number of ingestion runs completed successfully",
		}),
		IngestionRunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_runs_failed_total",
			Help:      "Total number of ingestion runs that failed",
		}),
		IngestionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Duration of ingestion runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		PapersFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Total number of papers fetched by category",
		}, []string{"category"}),
		FetchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_failed_total",
			Help:      "Total number of failed category fetches",
		}, []string{"category"}),
		ScoringRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_requests_total",
			Help:      "Total number of completion requests by model",
		}, []string{"model"}),
		ScoringRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_requests_failed_total",
			Help:      "Total number of failed completion requests",
		}, []string{"model", "error_type"}),
		ScoringRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_request_duration_seconds",
			Help:      "Duration of completion requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"model"}),
		ScoringParseFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_parse_fallbacks_total",
			Help:      "Total number of replies parsed via the pattern-extraction fallback",
		}),
		PapersScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_scored_total",
			Help:      "Total number of papers annotated with a valid score",
		}),
		PapersSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_skipped_total",
			Help:      "Total number of papers skipped for empty abstracts",
		}),
		QueryRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_requests_total",
			Help:      "Total number of query API requests by endpoint",
		}, []string{"endpoint"}),
	}
}

// RecordIngestionStarted records that an ingestion run has started.
func (m *Metrics) RecordIngestionStarted() {
	m.IngestionRunsStarted.Inc()
}

// RecordIngestionCompleted records that an ingestion run has completed.
func (m *Metrics) RecordIngestionCompleted(durationSeconds float64) {
	m.IngestionRunsCompleted.Inc()
	m.IngestionDuration.Observe(durationSeconds)
}

// RecordIngestionFailed records that an ingestion run has failed.
func (m *Metrics) RecordIngestionFailed(durationSeconds float64) {
	m.IngestionRunsFailed.Inc()
	m.IngestionDuration.Observe(durationSeconds)
}

// RecordPapersFetched records papers fetched for a category.
func (m *Metrics) RecordPapersFetched(category string, count int) {
	m.PapersFetched.WithLabelValues(category).Add(float64(count))
}

// RecordFetchFailed records a failed category fetch.
func (m *Metrics) RecordFetchFailed(category string) {
	m.FetchesFailed.WithLabelValues(category).Inc()
}

// RecordScoringRequest records a completion request.
func (m *Metrics) RecordScoringRequest(model string, durationSeconds float64) {
	m.ScoringRequestsTotal.WithLabelValues(model).Inc()
	m.ScoringRequestDuration.WithLabelValues(model).Observe(durationSeconds)
}

// RecordScoringRequestFailed records a failed completion request.
func (m *Metrics) RecordScoringRequestFailed(model, errorType string) {
	m.ScoringRequestsFailed.WithLabelValues(model, errorType).Inc()
}

// RecordParseFallback records a reply parsed via the fallback extractor.
func (m *Metrics) RecordParseFallback() {
	m.ScoringParseFallbacks.Inc()
}

// RecordPaperScored records a paper annotated with a valid score.
func (m *Metrics) RecordPaperScored() {
	m.PapersScored.Inc()
}

// RecordPaperSkipped records a paper skipped for an empty abstract.
func (m *Metrics) RecordPaperSkipped() {
	m.PapersSkipped.Inc()
}

// RecordQueryRequest records a query API request.
func (m *Metrics) RecordQueryRequest(endpoint string) {
	m.QueryRequestsTotal.WithLabelValues(endpoint).Inc()
}
