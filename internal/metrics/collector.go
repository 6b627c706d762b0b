// Package metrics exports dispatcher activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/zjrosen/dispatchy/internal/dispatch"
)

const namespace = "dispatchy"

// Collector implements dispatch.Observer on a private registry, so several
// collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	registered  *prometheus.CounterVec
	removed     *prometheus.CounterVec
	fires       *prometheus.CounterVec
	invocations *prometheus.CounterVec
	active      *prometheus.GaugeVec
}

var _ dispatch.Observer = (*Collector)(nil)

// NewCollector creates a Collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		registered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listeners_registered_total",
			Help:      "Entries stored, by event type",
		}, []string{"type"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listeners_removed_total",
			Help:      "Entries removed by off or after a fire-once invocation, by event type",
		}, []string{"type"}),
		fires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fires_total",
			Help:      "Fires of event types with at least one stored entry",
		}, []string{"type"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_invocations_total",
			Help:      "Listener invocations, by event type",
		}, []string{"type"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listeners_active",
			Help:      "Entries currently stored, by event type",
		}, []string{"type"}),
	}
	c.registry.MustRegister(c.registered, c.removed, c.fires, c.invocations, c.active)
	return c
}

// Registered implements dispatch.Observer.
func (c *Collector) Registered(e *dispatch.Entry) {
	c.registered.WithLabelValues(e.Type).Inc()
	c.active.WithLabelValues(e.Type).Inc()
}

// Removed implements dispatch.Observer.
func (c *Collector) Removed(e *dispatch.Entry) {
	c.removed.WithLabelValues(e.Type).Inc()
	c.active.WithLabelValues(e.Type).Dec()
}

// Fired implements dispatch.Observer.
func (c *Collector) Fired(meta dispatch.Meta, invoked int) {
	c.fires.WithLabelValues(meta.Type).Inc()
	c.invocations.WithLabelValues(meta.Type).Add(float64(invoked))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Sample is one gathered metric value.
type Sample struct {
	Name  string
	Type  string
	Value float64
}

// Snapshot gathers every sample, sorted by metric name then event type.
func (c *Collector) Snapshot() ([]Sample, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			samples = append(samples, Sample{
				Name:  mf.GetName(),
				Type:  labelValue(m, "type"),
				Value: value(mf.GetType(), m),
			})
		}
	}
	slices.SortFunc(samples, func(a, b Sample) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.Type, b.Type)
	})
	return samples, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func value(kind dto.MetricType, m *dto.Metric) float64 {
	switch kind {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return 0
	}
}
