// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticketsplit"

// Allocation outcomes recorded by ObserveAllocation.
const (
	OutcomeAllocated    = "allocated"
	OutcomeInsufficient = "insufficient"
	OutcomeNotFound     = "not_found"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
	OutcomeReleased     = "released"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so components can be built without metrics in tests.
type Metrics struct {
	registry    *prometheus.Registry
	allocations *prometheus.CounterVec
	units       *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		allocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Assignment operations by outcome.",
		}, []string{"outcome"}),
		units: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocated_units_total",
			Help:      "Ticket units claimed or released by assignments.",
		}, []string{"direction"}),
		requests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveAllocation counts one assignment operation and the units it moved.
func (m *Metrics) ObserveAllocation(outcome string, units int) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(outcome).Inc()
	switch outcome {
	case OutcomeAllocated:
		m.units.WithLabelValues("claimed").Add(float64(units))
	case OutcomeReleased:
		m.units.WithLabelValues("released").Add(float64(units))
	}
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Observe(seconds)
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// AllocationCount returns the allocation counter for one outcome.
func (m *Metrics) AllocationCount(outcome string) prometheus.Counter {
	return m.allocations.WithLabelValues(outcome)
}
