package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all metrics for the lifecycle engine service
type Collector struct {
	// Request counters
	validateRequests      prometheus.Counter
	introspectionRequests prometheus.Counter

	// Decision outcome counters
	validTransitions   *prometheus.CounterVec
	invalidTransitions *prometheus.CounterVec
	validationWarnings prometheus.Counter

	// Evaluation histograms
	validateDuration prometheus.Histogram
}

// NewCollector creates a new metrics collector registered against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		validateRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lexshield",
			Subsystem: "lifecycle_engine",
			Name:      "validate_requests_total",
			Help:      "Total number of transition validation requests",
		}),
		introspectionRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lexshield",
			Subsystem: "lifecycle_engine",
			Name:      "introspection_requests_total",
			Help:      "Total number of read-only introspection requests",
		}),
		validTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexshield",
			Subsystem: "lifecycle_engine",
			Name:      "valid_transitions_total",
			Help:      "Total number of transitions approved by the engine",
		}, []string{"case_type", "to_phase"}),
		invalidTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexshield",
			Subsystem: "lifecycle_engine",
			Name:      "invalid_transitions_total",
			Help:      "Total number of transitions rejected by the engine",
		}, []string{"case_type", "to_phase"}),
		validationWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lexshield",
			Subsystem: "lifecycle_engine",
			Name:      "validation_warnings_total",
			Help:      "Total number of advisory warnings attached to decisions",
		}),
		validateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lexshield",
			Subsystem: "lifecycle_engine",
			Name:      "validate_duration_seconds",
			Help:      "Duration of transition validation calls",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 5, 8),
		}),
	}
}

// RecordValidation records the outcome of one validation call
func (c *Collector) RecordValidation(caseType, toPhase string, isValid bool, warnings int, duration time.Duration) {
	c.validateRequests.Inc()
	if isValid {
		c.validTransitions.WithLabelValues(caseType, toPhase).Inc()
	} else {
		c.invalidTransitions.WithLabelValues(caseType, toPhase).Inc()
	}
	c.validationWarnings.Add(float64(warnings))
	c.validateDuration.Observe(duration.Seconds())
}

// RecordIntrospection records one read-only query
func (c *Collector) RecordIntrospection() {
	c.introspectionRequests.Inc()
}
