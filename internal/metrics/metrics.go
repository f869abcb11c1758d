package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's prometheus collectors.
type Metrics struct {
	Connections  prometheus.Gauge
	MessagesSent prometheus.Counter
	ReadEvents   prometheus.Counter
	CallSignals  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Active websocket connections",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Messages accepted and persisted",
		}),
		ReadEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_read_events_total",
			Help: "Read-all events that marked at least one message read",
		}),
		CallSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "call_signals_relayed_total",
			Help: "Call signaling events relayed, by type",
		}, []string{"type"}),
	}
	reg.MustRegister(m.Connections, m.MessagesSent, m.ReadEvents, m.CallSignals)
	return m
}

// Handler returns the scrape endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
