// Package metrics holds the Prometheus collectors for document validation.
// CLI runs are short-lived, so collectors are gathered into a node-exporter
// textfile rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/model"
)

// Metrics provides observability for validation runs. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	// Decisions by criterion and outcome
	Validations *prometheus.CounterVec

	// Confidence distribution by criterion
	Confidence *prometheus.HistogramVec

	// Results scored with the fallback advisory opinion
	AdvisoryFallbacks prometheus.Counter

	AdvisoryLatency   prometheus.Histogram
	ExtractionLatency *prometheus.HistogramVec
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "naac_validations_total",
			Help: "Total validation decisions by criterion and decision",
		}, []string{"criterion", "decision"}),

		Confidence: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "naac_validation_confidence",
			Help:    "Confidence score of validation results by criterion",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}, []string{"criterion"}),

		AdvisoryFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "naac_advisory_fallback_total",
			Help: "Validations scored with the fallback advisory opinion",
		}),

		AdvisoryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "naac_advisory_duration_seconds",
			Help:    "Duration of advisory service calls",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),

		ExtractionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "naac_extraction_duration_seconds",
			Help:    "Duration of document text extraction by file type",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"type"}),
	}
}

// ObserveResult records the decision, confidence and fallback state of res.
func (m *Metrics) ObserveResult(res *model.ValidationResult) {
	if m == nil || res == nil {
		return
	}
	m.Validations.WithLabelValues(res.CriterionCode, string(res.Decision)).Inc()
	if res.Error != nil {
		return
	}
	m.Confidence.WithLabelValues(res.CriterionCode).Observe(res.ConfidenceScore)
	if res.FallbackMode {
		m.AdvisoryFallbacks.Inc()
	}
}

// ObserveAdvisoryLatency records one advisory call.
func (m *Metrics) ObserveAdvisoryLatency(d time.Duration) {
	if m != nil {
		m.AdvisoryLatency.Observe(d.Seconds())
	}
}

// ObserveExtractionLatency records one extraction of a file of type ext.
func (m *Metrics) ObserveExtractionLatency(ext string, d time.Duration) {
	if m != nil {
		m.ExtractionLatency.WithLabelValues(ext).Observe(d.Seconds())
	}
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all collectors to path in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
