package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	// Check outcomes by status and data source
	CheckOutcome *prometheus.CounterVec

	// Cache lookups by result ("hit", "miss", "error")
	CacheLookups *prometheus.CounterVec

	// Expired-cache fallbacks by jurisdiction
	ExpiredCacheFallbacks *prometheus.CounterVec

	// Fetch+parse failures by reason
	FetchFailures *prometheus.CounterVec

	// Stage latencies
	FetchLatency    prometheus.Histogram
	EvaluateLatency prometheus.Histogram

	// Distribution of confidence scores
	Confidence prometheus.Histogram
}

// New creates a new Metrics instance with all compliance module metrics registered.
func New() *Metrics {
	return &Metrics{
		CheckOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zonecheck_compliance_checks_total",
			Help: "Total compliance checks by status and data source",
		}, []string{"status", "data_source"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zonecheck_ruleset_cache_lookups_total",
			Help: "Rule set cache lookups by result",
		}, []string{"result"}),

		ExpiredCacheFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zonecheck_expired_cache_fallbacks_total",
			Help: "Checks served from an expired cache entry after a fetch or parse failure",
		}, []string{"jurisdiction"}),

		FetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zonecheck_ordinance_fetch_failures_total",
			Help: "Ordinance fetch and parse failures by reason",
		}, []string{"reason"}), // reason: "timeout", "fetch", "parse"

		FetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonecheck_ordinance_fetch_duration_seconds",
			Help:    "Duration of ordinance fetch plus parse",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonecheck_compliance_evaluate_duration_seconds",
			Help:    "Duration of full compliance evaluation including rule resolution",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		Confidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonecheck_compliance_confidence",
			Help:    "Distribution of confidence scores",
			Buckets: []float64{0, 10, 25, 50, 65, 80, 90, 95, 100},
		}),
	}
}

// IncrementOutcome records a check outcome.
func (m *Metrics) IncrementOutcome(status, dataSource string) {
	if m != nil {
		m.CheckOutcome.WithLabelValues(status, dataSource).Inc()
	}
}

// IncrementCacheLookup records a cache lookup result.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementExpiredCacheFallback records a check that had to use stale rules.
func (m *Metrics) IncrementExpiredCacheFallback(jurisdiction string) {
	if m != nil {
		m.ExpiredCacheFallbacks.WithLabelValues(jurisdiction).Inc()
	}
}

// IncrementFetchFailure records a fetch or parse failure.
func (m *Metrics) IncrementFetchFailure(reason string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(reason).Inc()
	}
}

// ObserveFetchLatency records the duration of a fetch+parse attempt.
func (m *Metrics) ObserveFetchLatency(d time.Duration) {
	if m != nil {
		m.FetchLatency.Observe(d.Seconds())
	}
}

// ObserveEvaluateLatency records the total check duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// ObserveConfidence records a confidence score.
func (m *Metrics) ObserveConfidence(score int) {
	if m != nil {
		m.Confidence.Observe(float64(score))
	}
}
