package dispatch

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes queue activity to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enqueued prometheus.Counter
	rejected prometheus.Counter
	blocked  prometheus.Counter
	dequeued prometheus.Counter
	depth    prometheus.Gauge
	capacity prometheus.Gauge
}

// NewMetrics creates queue metrics labelled with the queue name and registers
// them with reg.
func NewMetrics(reg prometheus.Registerer, name string) (*Metrics, error) {
	labels := prometheus.Labels{"queue": name}

	m := &Metrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "modi",
			Subsystem:   "dispatch",
			Name:        "enqueued_total",
			ConstLabels: labels,
			Help:        "Total commands accepted by the dispatch queue.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "modi",
			Subsystem:   "dispatch",
			Name:        "rejected_total",
			ConstLabels: labels,
			Help:        "Total commands rejected because the queue was full.",
		}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "modi",
			Subsystem:   "dispatch",
			Name:        "blocked_sends_total",
			ConstLabels: labels,
			Help:        "Total sends that had to wait for queue space.",
		}),
		dequeued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "modi",
			Subsystem:   "dispatch",
			Name:        "dequeued_total",
			ConstLabels: labels,
			Help:        "Total commands taken by the transport consumer.",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "modi",
			Subsystem:   "dispatch",
			Name:        "depth",
			ConstLabels: labels,
			Help:        "Current number of commands waiting in the queue.",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "modi",
			Subsystem:   "dispatch",
			Name:        "capacity",
			ConstLabels: labels,
			Help:        "Configured queue capacity.",
		}),
	}

	for _, c := range []prometheus.Collector{m.enqueued, m.rejected, m.blocked, m.dequeued, m.depth, m.capacity} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering dispatch metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) setCapacity(n int) {
	if m == nil {
		return
	}
	m.capacity.Set(float64(n))
}

func (m *Metrics) recordEnqueue(depth int) {
	if m == nil {
		return
	}
	m.enqueued.Inc()
	m.depth.Set(float64(depth))
}

func (m *Metrics) recordReject() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}

func (m *Metrics) recordBlocked() {
	if m == nil {
		return
	}
	m.blocked.Inc()
}

func (m *Metrics) recordDequeue(depth int) {
	if m == nil {
		return
	}
	m.dequeued.Inc()
	m.depth.Set(float64(depth))
}
