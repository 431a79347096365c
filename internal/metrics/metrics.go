// Package metrics exports engine activity of every display to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinytelemetry/odometer/internal/odometer"
)

const namespace = "odometer"

// Metrics owns a private registry so tests and embedded servers never
// collide on the global one.
type Metrics struct {
	registry    *prometheus.Registry
	ticks       *prometheus.CounterVec
	completions *prometheus.CounterVec
	value       *prometheus.GaugeVec
}

// New registers the odometer collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks rendered per display.",
		}, []string{"display"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Runs that reached their end value per display.",
		}, []string{"display"}),
		value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "value",
			Help:      "Last value rendered per display.",
		}, []string{"display"}),
	}
	m.registry.MustRegister(m.ticks, m.completions, m.value)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observer returns an engine observer labelled with display.
func (m *Metrics) Observer(display string) odometer.Observer {
	return &observer{
		ticks:       m.ticks.WithLabelValues(display),
		completions: m.completions.WithLabelValues(display),
		value:       m.value.WithLabelValues(display),
	}
}

type observer struct {
	ticks       prometheus.Counter
	completions prometheus.Counter
	value       prometheus.Gauge
}

func (o *observer) ObserveTick(value float64) {
	o.ticks.Inc()
	o.value.Set(value)
}

func (o *observer) ObserveComplete(value float64) {
	o.completions.Inc()
	o.value.Set(value)
}
