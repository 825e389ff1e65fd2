package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/neurolocus/internal/model"
)

const metricsNamespace = "neurolocus"

// Metrics holds the server collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	findings *prometheus.CounterVec
	levels   *prometheus.CounterVec
}

// NewMetrics registers the request, localization and finding collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "localize_duration_seconds",
			Help:      "Time spent localizing one request.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"route"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "findings_total",
			Help:      "Extracted findings by kind.",
		}, []string{"kind"}),
		levels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inferred_level_total",
			Help:      "Localizations by inferred level.",
		}, []string{"level"}),
	}
	registry.MustRegister(m.requests, m.duration, m.findings, m.levels)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeResult(res *model.ParsedResult) {
	m.findings.WithLabelValues(string(model.KindCranialNerve)).Add(float64(len(res.CranialNerves)))
	m.findings.WithLabelValues(string(model.KindTract)).Add(float64(len(res.Tracts)))
	m.findings.WithLabelValues(string(model.KindSign)).Add(float64(len(res.Additional)))

	level := string(res.Level)
	if level == "" {
		level = "none"
	}
	m.levels.WithLabelValues(level).Inc()
}
