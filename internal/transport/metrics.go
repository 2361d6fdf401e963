package transport

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Inbound message outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeIgnored   = "ignored"
	outcomeDropped   = "dropped"
	outcomeMalformed = "malformed"
)

// Metrics exposes bus traffic to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	published      prometheus.Counter
	publishFailed  prometheus.Counter
	publishLatency prometheus.Histogram
	rateWait       prometheus.Histogram
	inbound        *prometheus.CounterVec
}

// NewMetrics creates transport metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "modi",
			Subsystem: "transport",
			Name:      "commands_published_total",
			Help:      "Total command frames published to the bus.",
		}),
		publishFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "modi",
			Subsystem: "transport",
			Name:      "commands_failed_total",
			Help:      "Total commands that could not be encoded or published.",
		}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "modi",
			Subsystem: "transport",
			Name:      "publish_duration_seconds",
			Help:      "Time to publish one command frame.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		}),
		rateWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "modi",
			Subsystem: "transport",
			Name:      "rate_wait_seconds",
			Help:      "Time a command waited for the publish rate limit.",
			Buckets:   []float64{0, .001, .01, .05, .1, .25, .5, 1, 2.5},
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modi",
			Subsystem: "transport",
			Name:      "inbound_messages_total",
			Help:      "Inbound bus messages by topic category and outcome.",
		}, []string{"category", "outcome"}),
	}

	for _, c := range []prometheus.Collector{m.published, m.publishFailed, m.publishLatency, m.rateWait, m.inbound} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering transport metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) recordPublish(seconds float64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishFailed.Inc()
		return
	}
	m.published.Inc()
	m.publishLatency.Observe(seconds)
}

func (m *Metrics) recordRateWait(seconds float64) {
	if m == nil {
		return
	}
	m.rateWait.Observe(seconds)
}

func (m *Metrics) recordInbound(category, outcome string) {
	if m == nil {
		return
	}
	m.inbound.WithLabelValues(category, outcome).Inc()
}
