package measure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMeasure exposes step timings and cache outcomes as Prometheus
// metrics, labelled by step name.
type PrometheusMeasure struct {
	fitDuration       *prometheus.HistogramVec
	transformDuration *prometheus.HistogramVec
	persistDuration   *prometheus.HistogramVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
}

// NewPrometheusMeasure creates a measure registered on reg.
func NewPrometheusMeasure(reg prometheus.Registerer) *PrometheusMeasure {
	m := &PrometheusMeasure{
		fitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepline",
			Name:      "fit_duration_seconds",
			Help:      "Time spent fitting a step's transformer.",
		}, []string{"step"}),
		transformDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepline",
			Name:      "transform_duration_seconds",
			Help:      "Time spent in a step's transform.",
		}, []string{"step"}),
		persistDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepline",
			Name:      "persist_duration_seconds",
			Help:      "Time spent persisting a step's fitted state.",
		}, []string{"step"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepline",
			Name:      "cache_hits_total",
			Help:      "Times a persisted state was loaded instead of fitting.",
		}, []string{"step"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepline",
			Name:      "cache_misses_total",
			Help:      "Times no usable persisted state was found.",
		}, []string{"step"}),
	}

	reg.MustRegister(m.fitDuration, m.transformDuration, m.persistDuration, m.cacheHits, m.cacheMisses)

	return m
}

func (m *PrometheusMeasure) ObserveFit(stepName string, elapsed time.Duration) {
	m.fitDuration.WithLabelValues(stepName).Observe(elapsed.Seconds())
}

func (m *PrometheusMeasure) ObserveTransform(stepName string, elapsed time.Duration) {
	m.transformDuration.WithLabelValues(stepName).Observe(elapsed.Seconds())
}

func (m *PrometheusMeasure) ObservePersist(stepName string, elapsed time.Duration) {
	m.persistDuration.WithLabelValues(stepName).Observe(elapsed.Seconds())
}

func (m *PrometheusMeasure) IncCacheHit(stepName string) {
	m.cacheHits.WithLabelValues(stepName).Inc()
}

func (m *PrometheusMeasure) IncCacheMiss(stepName string) {
	m.cacheMisses.WithLabelValues(stepName).Inc()
}

// CacheHits returns the hit counter for a step.
func (m *PrometheusMeasure) CacheHits(stepName string) prometheus.Counter {
	return m.cacheHits.WithLabelValues(stepName)
}

// CacheMisses returns the miss counter for a step.
func (m *PrometheusMeasure) CacheMisses(stepName string) prometheus.Counter {
	return m.cacheMisses.WithLabelValues(stepName)
}

var _ Measure = (*PrometheusMeasure)(nil)
