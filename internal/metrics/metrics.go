// Package metrics holds the Prometheus collectors shared by the catalog
// client, the tool registry and the propagation poller.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "curatai"

// Metrics is a set of collectors registered against one registry.
type Metrics struct {
	Registry *prometheus.Registry

	CatalogRequests     *prometheus.CounterVec
	CatalogLatency      *prometheus.HistogramVec
	ToolInvocations     *prometheus.CounterVec
	ToolDuration        *prometheus.HistogramVec
	PropagationPolls    prometheus.Counter
	PropagationOutcomes *prometheus.CounterVec
	TokenMints          *prometheus.CounterVec
}

// New creates collectors on a fresh registry, so tests never collide with
// each other or with the process default.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_requests_total",
			Help:      "Catalog API requests by method and response code.",
		}, []string{"method", "code"}),
		CatalogLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_request_duration_seconds",
			Help:      "Catalog API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ToolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool invocation latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}, []string{"tool"}),
		PropagationPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_polls_total",
			Help:      "Job status polls issued while waiting for propagation jobs.",
		}),
		PropagationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_outcomes_total",
			Help:      "Observed propagation job outcomes.",
		}, []string{"outcome"}),
		TokenMints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_mints_total",
			Help:      "Tokens minted against the catalog identity endpoints.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.CatalogRequests,
		m.CatalogLatency,
		m.ToolInvocations,
		m.ToolDuration,
		m.PropagationPolls,
		m.PropagationOutcomes,
		m.TokenMints,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

var noop = New()

// OrNoop returns m, or a private unexported set when m is nil, so callers
// can record unconditionally.
func OrNoop(m *Metrics) *Metrics {
	if m == nil {
		return noop
	}
	return m
}
