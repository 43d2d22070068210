package accounts

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector records authentication events. The gateway and the
// external resolver call into it; NoopMetrics is used when no registry is
// configured.
type MetricsCollector interface {
	RecordLogin(outcome string)
	RecordSignup(outcome string)
	RecordExternalResolution(provider, outcome string)
	RecordSessionValidation(outcome string)
}

// Collector is the Prometheus-backed MetricsCollector.
type Collector struct {
	logins             *prometheus.CounterVec
	signups            *prometheus.CounterVec
	resolutions        *prometheus.CounterVec
	sessionValidations *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_logins_total",
			Help: "Password login attempts by outcome.",
		}, []string{"outcome"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_signups_total",
			Help: "Password signup attempts by outcome.",
		}, []string{"outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_external_resolutions_total",
			Help: "External identity resolutions by provider and outcome.",
		}, []string{"provider", "outcome"}),
		sessionValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_session_validations_total",
			Help: "Session validations by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.logins,
		c.signups,
		c.resolutions,
		c.sessionValidations,
	)

	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSignup(outcome string) {
	c.signups.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordExternalResolution(provider, outcome string) {
	c.resolutions.WithLabelValues(provider, outcome).Inc()
}

func (c *Collector) RecordSessionValidation(outcome string) {
	c.sessionValidations.WithLabelValues(outcome).Inc()
}

// MetricsHandler exposes the registry over HTTP for scraping.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) RecordLogin(string)                      {}
func (NoopMetrics) RecordSignup(string)                     {}
func (NoopMetrics) RecordExternalResolution(string, string) {}
func (NoopMetrics) RecordSessionValidation(string)          {}
