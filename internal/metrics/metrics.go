// Package metrics provides the centralized Prometheus metrics registry for
// the prediction engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	MatchesAnalyzedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "set_point",
		Name:      "matches_analyzed_total",
		Help:      "Total number of matches run through the analysis pipeline",
	})
	PredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "set_point",
		Name:      "predictions_total",
		Help:      "Total number of predictions produced",
	})
	MatchesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "set_point",
		Name:      "matches_skipped_total",
		Help:      "Total number of matches skipped, by reason",
	}, []string{"reason"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "set_point",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "set_point",
		Name:      "provider_requests_total",
		Help:      "Total statistics provider requests, by outcome",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	BatchInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "set_point",
		Name:      "batch_in_flight",
		Help:      "Number of matches currently being analyzed",
	})
	CircuitBreakerPaused = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "set_point",
		Name:      "circuit_breaker_paused",
		Help:      "1 when the batch circuit breaker is paused, 0 otherwise",
	})
	ProviderCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "set_point",
		Name:      "provider_cache_hit_ratio",
		Help:      "Hit ratio of the statistics provider cache",
	})
)

// Histogram metrics
var (
	MatchAnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "set_point",
		Name:      "match_analysis_duration_seconds",
		Help:      "Duration of a single match analysis in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "set_point",
		Name:      "batch_duration_seconds",
		Help:      "Duration of full batch runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(MatchesAnalyzedTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(MatchesSkippedTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(ProviderRequestsTotal)

		registry.MustRegister(BatchInFlight)
		registry.MustRegister(CircuitBreakerPaused)
		registry.MustRegister(ProviderCacheHitRatio)

		registry.MustRegister(MatchAnalysisDuration)
		registry.MustRegister(BatchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a completed prediction.
func RecordPrediction(durationSeconds float64) {
	MatchesAnalyzedTotal.Inc()
	PredictionsTotal.Inc()
	MatchAnalysisDuration.Observe(durationSeconds)
}

// RecordSkip records a skipped match with its reason label.
func RecordSkip(reason string) {
	MatchesAnalyzedTotal.Inc()
	MatchesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// SetBreakerPaused updates the paused gauge.
func SetBreakerPaused(paused bool) {
	if paused {
		CircuitBreakerPaused.Set(1)
	} else {
		CircuitBreakerPaused.Set(0)
	}
}

// RecordProviderRequest records a statistics provider request outcome
// ("success", "not_found" or "network_error").
func RecordProviderRequest(outcome string) {
	ProviderRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordBatchDuration records the duration of a batch run.
func RecordBatchDuration(durationSeconds float64) {
	BatchDuration.Observe(durationSeconds)
}
