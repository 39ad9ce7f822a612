// Package metrics Prometheus collectors for device setup passes.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector groups the pass metrics. A nil *Collector records nothing.
type Collector struct {
	passDuration *prometheus.HistogramVec
	collapsed    *prometheus.CounterVec
	internal     *prometheus.CounterVec
	bound        *prometheus.CounterVec
	failures     *prometheus.CounterVec
	states       *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ngosdi",
				Subsystem: "pass",
				Name:      "duration_seconds",
				Help:      "Duration of setup, temperature and unsetup passes",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
			},
			[]string{"pass", "device"},
		),
		collapsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ngosdi",
				Subsystem: "nodes",
				Name:      "collapsed_total",
				Help:      "Nodes eliminated by collapsing",
			},
			[]string{"device"},
		),
		internal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ngosdi",
				Subsystem: "nodes",
				Name:      "internal_total",
				Help:      "Internal nodes created for plugin instances",
			},
			[]string{"device"},
		),
		bound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ngosdi",
				Subsystem: "jacobian",
				Name:      "bound_entries_total",
				Help:      "Jacobian entries bound to matrix storage",
			},
			[]string{"device", "backend"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ngosdi",
				Subsystem: "pass",
				Name:      "entity_failures_total",
				Help:      "Models or instances whose setup failed",
			},
			[]string{"phase", "status"},
		),
		states: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ngosdi",
				Subsystem: "state",
				Name:      "slots",
				Help:      "State slots allocated by the last setup pass",
			},
			[]string{"device"},
		),
	}
	for _, col := range []prometheus.Collector{c.passDuration, c.collapsed, c.internal, c.bound, c.failures, c.states} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObservePass records a pass duration
func (c *Collector) ObservePass(pass, device string, d time.Duration) {
	if c == nil {
		return
	}
	c.passDuration.WithLabelValues(pass, device).Observe(d.Seconds())
}

// AddNodes records collapsed and created internal nodes for one instance
func (c *Collector) AddNodes(device string, collapsed, internal int) {
	if c == nil {
		return
	}
	c.collapsed.WithLabelValues(device).Add(float64(collapsed))
	c.internal.WithLabelValues(device).Add(float64(internal))
}

// AddBound records bound Jacobian entries
func (c *Collector) AddBound(device, backend string, n int) {
	if c == nil {
		return
	}
	c.bound.WithLabelValues(device, backend).Add(float64(n))
}

// IncFailure records a failed entity
func (c *Collector) IncFailure(phase, status string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(phase, status).Inc()
}

// SetStates records the state slot total of a device
func (c *Collector) SetStates(device string, n int) {
	if c == nil {
		return
	}
	c.states.WithLabelValues(device).Set(float64(n))
}

// WriteText dumps every metric family of g in the text exposition format
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
