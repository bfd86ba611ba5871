package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Research pipeline metrics
	ResearchRequestsTotal *prometheus.CounterVec
	ResearchDuration      *prometheus.HistogramVec
	ResearchErrorsTotal   *prometheus.CounterVec
	VerdictsTotal         *prometheus.CounterVec
	SentimentScores       prometheus.Histogram

	// Stage metrics
	StageDuration    *prometheus.HistogramVec
	StageErrorsTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

// sentimentBuckets are histogram buckets for sentiment scores (-1 to 1)
var sentimentBuckets = []float64{-1, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		ResearchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "research",
				Name:      "requests_total",
				Help:      "Total number of research pipeline runs",
			},
			[]string{"ticker"},
		),
		ResearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_researcher",
				Subsystem: "research",
				Name:      "duration_seconds",
				Help:      "Duration of a full pipeline run in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"ticker", "status"},
		),
		ResearchErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "research",
				Name:      "errors_total",
				Help:      "Total number of pipeline errors",
			},
			[]string{"ticker", "error_type"},
		),
		VerdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "research",
				Name:      "verdicts_total",
				Help:      "Total number of verdicts by outcome",
			},
			[]string{"verdict"},
		),
		SentimentScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "stock_researcher",
				Subsystem: "research",
				Name:      "sentiment_score",
				Help:      "Distribution of news sentiment scores",
				Buckets:   sentimentBuckets,
			},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_researcher",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Duration of a pipeline stage in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"stage"},
		),
		StageErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "stage",
				Name:      "errors_total",
				Help:      "Total number of stage errors",
			},
			[]string{"stage", "error_type"},
		),

		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_researcher",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_researcher",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_researcher",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stock_researcher",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stock_researcher",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stock_researcher",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordResearchRequest records a pipeline run request
func (m *Metrics) RecordResearchRequest(ticker string) {
	m.ResearchRequestsTotal.WithLabelValues(ticker).Inc()
}

// RecordResearchDuration records the duration of a pipeline run
func (m *Metrics) RecordResearchDuration(ticker, status string, duration time.Duration) {
	m.ResearchDuration.WithLabelValues(ticker, status).Observe(duration.Seconds())
}

// RecordResearchError records a pipeline error
func (m *Metrics) RecordResearchError(ticker, errorType string) {
	m.ResearchErrorsTotal.WithLabelValues(ticker, errorType).Inc()
}

// RecordVerdict records a run's final verdict and sentiment score
func (m *Metrics) RecordVerdict(verdict string, sentimentScore float64) {
	m.VerdictsTotal.WithLabelValues(verdict).Inc()
	m.SentimentScores.Observe(sentimentScore)
}

// RecordStageDuration records the duration of a pipeline stage
func (m *Metrics) RecordStageDuration(stage string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordStageError records a stage error
func (m *Metrics) RecordStageError(stage, errorType string) {
	m.StageErrorsTotal.WithLabelValues(stage, errorType).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveResearch records the pipeline run duration and status
func (t *Timer) ObserveResearch(ticker, status string) {
	t.metrics.RecordResearchDuration(ticker, status, time.Since(t.start))
}

// ObserveStage records the stage duration
func (t *Timer) ObserveStage(stage string) {
	t.metrics.RecordStageDuration(stage, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
