// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exports conversion counters and latencies to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/deck-converter/pkg/types"
)

const namespace = "deck_converter"

// Reporter records conversion results into its own registry.
type Reporter struct {
	registry *prometheus.Registry

	conversions    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	methodFailures *prometheus.CounterVec
	inputBytes     *prometheus.HistogramVec
}

// NewReporter creates a reporter with a private registry holding the
// conversion metrics plus the Go runtime and build info collectors.
func NewReporter() (*Reporter, error) {
	r := &Reporter{
		registry: prometheus.NewRegistry(),

		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Number of finished conversions.",
			},
			[]string{"direction", "status", "method"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversion_duration_seconds",
				Help:      "End-to-end conversion duration distribution.",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"direction", "status"},
		),

		methodFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "method_failures_total",
				Help:      "Number of failed attempts per conversion method.",
			},
			[]string{"direction", "method"},
		),

		inputBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "input_bytes",
				Help:      "Uploaded document size distribution.",
				Buckets:   prometheus.ExponentialBuckets(64*1024, 4, 8),
			},
			[]string{"direction"},
		),
	}

	for _, c := range []prometheus.Collector{
		r.conversions,
		r.duration,
		r.methodFailures,
		r.inputBytes,
		collectors.NewGoCollector(),
		collectors.NewBuildInfoCollector(),
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe counts result and each failed attempt.
func (r *Reporter) Observe(_ context.Context, result types.ConversionResult) {
	dir := string(result.Direction)
	status := string(result.Status())

	r.conversions.WithLabelValues(dir, status, result.Method).Inc()
	r.duration.WithLabelValues(dir, status).Observe(result.Duration.Seconds())
	if result.InputBytes > 0 {
		r.inputBytes.WithLabelValues(dir).Observe(float64(result.InputBytes))
	}
	for _, a := range result.Attempts {
		if a.Error != "" {
			r.methodFailures.WithLabelValues(dir, a.Method).Inc()
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
