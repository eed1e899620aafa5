// Package metrics exposes Prometheus collectors for the coherence engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Profile change operations.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
)

// CoherenceMetrics holds the collectors for evaluations, alerts, gaming
// verdicts, profile changes and the result cache.
type CoherenceMetrics struct {
	EvaluationsTotal     *prometheus.CounterVec
	AlertsTotal          *prometheus.CounterVec
	GamingVerdictsTotal  *prometheus.CounterVec
	GlobalScore          prometheus.Histogram
	ProfileChangesTotal  *prometheus.CounterVec
	CacheRequestsTotal   *prometheus.CounterVec
	CacheEvictionsTotal  prometheus.Counter
	EvaluationErrorTotal *prometheus.CounterVec
}

// NewCoherenceMetrics creates the collectors and registers them with
// registry.
func NewCoherenceMetrics(registry *prometheus.Registry) (*CoherenceMetrics, error) {
	m := &CoherenceMetrics{}
	m.initMetrics()
	if err := m.Register(registry); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CoherenceMetrics) initMetrics() {
	m.EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coherence_evaluations_total",
			Help: "Total number of project evaluations by profile kind (default, tenant, named)",
		},
		[]string{"profile_kind"},
	)

	m.AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coherence_alerts_total",
			Help: "Total number of alerts raised by rule evaluation",
		},
		[]string{"rule_id", "severity"},
	)

	m.GamingVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coherence_gaming_verdicts_total",
			Help: "Total number of positive anti-gaming verdicts by reason",
		},
		[]string{"reason"},
	)

	m.GlobalScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coherence_global_score",
			Help:    "Distribution of global coherence scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	m.ProfileChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coherence_profile_changes_total",
			Help: "Total number of weight profile snapshots created",
		},
		[]string{"operation"},
	)

	m.CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coherence_cache_requests_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"result"},
	)

	m.CacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coherence_cache_evictions_total",
			Help: "Total number of result cache entries evicted to stay within the size limit",
		},
	)

	m.EvaluationErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coherence_evaluation_errors_total",
			Help: "Total number of failed project evaluations by error category",
		},
		[]string{"category"},
	)
}

// Register registers every collector with registry.
func (m *CoherenceMetrics) Register(registry *prometheus.Registry) error {
	for _, c := range m.collectors() {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *CoherenceMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.EvaluationsTotal,
		m.AlertsTotal,
		m.GamingVerdictsTotal,
		m.GlobalScore,
		m.ProfileChangesTotal,
		m.CacheRequestsTotal,
		m.CacheEvictionsTotal,
		m.EvaluationErrorTotal,
	}
}

// RecordEvaluation records one successful evaluation and its global score.
// profileKind must come from a bounded set; never pass a raw profile name.
func (m *CoherenceMetrics) RecordEvaluation(profileKind string, globalScore int) {
	m.EvaluationsTotal.WithLabelValues(profileKind).Inc()
	m.GlobalScore.Observe(float64(globalScore))
}

// RecordAlert records one raised alert.
func (m *CoherenceMetrics) RecordAlert(ruleID, severity string) {
	m.AlertsTotal.WithLabelValues(ruleID, severity).Inc()
}

// RecordGamingVerdict records a positive verdict.
func (m *CoherenceMetrics) RecordGamingVerdict(reason string) {
	m.GamingVerdictsTotal.WithLabelValues(reason).Inc()
}

// RecordProfileChange records a new profile snapshot.
func (m *CoherenceMetrics) RecordProfileChange(operation string) {
	m.ProfileChangesTotal.WithLabelValues(operation).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *CoherenceMetrics) RecordCacheLookup(hit bool) {
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordCacheEvictions adds n evicted entries.
func (m *CoherenceMetrics) RecordCacheEvictions(n int) {
	if n > 0 {
		m.CacheEvictionsTotal.Add(float64(n))
	}
}

// RecordEvaluationError records a failed evaluation.
func (m *CoherenceMetrics) RecordEvaluationError(category string) {
	m.EvaluationErrorTotal.WithLabelValues(category).Inc()
}
