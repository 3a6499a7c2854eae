package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics owns the module's metric instruments on a private
// registry. It satisfies scan.MetricsRecorder, so the scanner and the HTTP
// layer feed the same scrape target.
type PrometheusMetrics struct {
	registry    *prometheus.Registry
	scans       *prometheus.CounterVec
	duration    prometheus.Histogram
	experiments prometheus.Counter
}

// NewPrometheusMetrics builds the instruments and registers them.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	scans := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nmrcore",
			Name:      "scans_total",
			Help:      "Completed directory scans by outcome.",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nmrcore",
			Name:      "scan_duration_seconds",
			Help:      "Wall time of completed directory scans.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	experiments := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nmrcore",
			Name:      "experiments_scanned_total",
			Help:      "Experiment folders processed across all scans.",
		},
	)

	registry.MustRegister(scans, duration, experiments)

	return &PrometheusMetrics{
		registry:    registry,
		scans:       scans,
		duration:    duration,
		experiments: experiments,
	}
}

// Observe maps scanner operations onto the instruments: whole-scan outcomes
// update the counter and histogram, per-experiment operations increment the
// experiment counter.
func (m *PrometheusMetrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	switch operation {
	case "scan":
		outcome := "success"
		if !success {
			outcome = "error"
		}
		m.scans.WithLabelValues(outcome).Inc()
		m.duration.Observe(duration.Seconds())
	case "scan_experiment":
		m.experiments.Inc()
	}
}

// Registry exposes the underlying registry so callers can attach further
// collectors.
func (m *PrometheusMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the scrape endpoint for the registry.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
