package realtime

import (
	"github.com/devconnect-api/internal/presence"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeDelivered = "delivered"
	outcomeDropped   = "dropped"
	outcomeForwarded = "forwarded"
)

type Metrics struct {
	events *prometheus.CounterVec
}

// NewMetrics registers relay counters and an online-users gauge backed by
// the registry.
func NewMetrics(reg prometheus.Registerer, registry *presence.Registry) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devconnect",
			Subsystem: "relay",
			Name:      "events_total",
			Help:      "Realtime events by name and delivery outcome.",
		}, []string{"event", "outcome"}),
	}
	online := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "devconnect",
		Subsystem: "presence",
		Name:      "online",
		Help:      "Users with a live socket on this instance.",
	}, func() float64 { return float64(registry.Count()) })

	reg.MustRegister(m.events, online)
	return m
}

func (m *Metrics) observe(event, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, outcome).Inc()
}
