package repli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/repli/reply"
)

// Metrics counts what the agent does on pages. Each Agent registers its
// own collectors on the registry it is given.
type Metrics struct {
	reg prometheus.Gatherer

	injected    *prometheus.CounterVec
	activations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	sessions    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		injected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repli_triggers_injected_total",
			Help: "Reply triggers inserted into host pages.",
		}, []string{"site"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repli_activations_total",
			Help: "Trigger activations by outcome.",
		}, []string{"site", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repli_activation_duration_seconds",
			Help:    "Time from click to committed reply or error.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"site"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "repli_sessions_active",
			Help: "Page sessions currently activated.",
		}),
	}
	reg.MustRegister(m.injected, m.activations, m.duration, m.sessions)
	return m
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) triggerInjected(site string) {
	m.injected.WithLabelValues(site).Inc()
}

func (m *Metrics) activation(site string, o reply.Outcome, elapsed time.Duration) {
	m.activations.WithLabelValues(site, resultLabel(o.Err)).Inc()
	m.duration.WithLabelValues(site).Observe(elapsed.Seconds())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, reply.ErrElementNotFound):
		return "not_found"
	case errors.Is(err, reply.ErrTransportFailure):
		return "transport"
	case errors.Is(err, reply.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, reply.ErrDetached):
		return "detached"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
