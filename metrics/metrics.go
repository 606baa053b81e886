package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decision outcome label values.
const (
	OutcomeAllow            = "allow"
	OutcomeDenyUnauthorized = "deny_unauthorized"
	OutcomeDenyForbidden    = "deny_forbidden"
)

// Metrics holds the Prometheus instruments for the backend.
type Metrics struct {
	registry *prometheus.Registry

	// AuthzDecisions counts authorization gate outcomes by resource,
	// action, and outcome.
	AuthzDecisions *prometheus.CounterVec

	// RoleStoreFaults counts persisted-role lookups that failed and fell
	// back to the session role.
	RoleStoreFaults prometheus.Counter

	// ExportsTotal counts permitted export requests by resource.
	ExportsTotal *prometheus.CounterVec
}

// New creates and registers the backend metrics on the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		AuthzDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborlight_authz_decisions_total",
				Help: "Authorization gate decisions by resource, action, and outcome",
			},
			[]string{"resource", "action", "outcome"},
		),
		RoleStoreFaults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "harborlight_role_store_faults_total",
				Help: "Persisted role lookups that failed and degraded to the session role",
			},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborlight_exports_total",
				Help: "Permitted CSV export requests by resource",
			},
			[]string{"resource"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthzDecisions,
		m.RoleStoreFaults,
		m.ExportsTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
