package transport

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects request counters and latencies on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the client's instrumentation collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spendwise",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of API requests resolved.",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spendwise",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "path"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// Registry exposes the collectors for scraping or test inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Stage returns the response stage that records each resolved request.
func (m *Metrics) Stage() ResponseStage {
	return func(_ context.Context, resp *Response) error {
		m.requests.WithLabelValues(resp.Method, resp.Path, strconv.Itoa(resp.StatusCode)).Inc()
		m.duration.WithLabelValues(resp.Method, resp.Path).Observe(resp.Duration.Seconds())
		return nil
	}
}
