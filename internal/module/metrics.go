package module

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	dropUnknownModule   = "unknown_module"
	dropUnknownProperty = "unknown_property"
	dropCardinality     = "cardinality"
)

// Metrics exposes manager activity to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	modules  prometheus.Gauge
	ingested prometheus.Counter
	dropped  *prometheus.CounterVec
}

// NewMetrics creates manager metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		modules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "modi",
			Name:      "modules_attached",
			Help:      "Number of modules currently bound.",
		}),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "modi",
			Subsystem: "telemetry",
			Name:      "ingested_total",
			Help:      "Total telemetry samples written to a module cache.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modi",
			Subsystem: "telemetry",
			Name:      "dropped_total",
			Help:      "Total telemetry samples dropped, by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.modules, m.ingested, m.dropped} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering module metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) setModules(n int) {
	if m == nil {
		return
	}
	m.modules.Set(float64(n))
}

func (m *Metrics) recordIngest() {
	if m == nil {
		return
	}
	m.ingested.Inc()
}

func (m *Metrics) recordDrop(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}
