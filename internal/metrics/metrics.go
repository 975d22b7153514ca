package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interaction_feed"

// Feed holds the collectors updated by the feed connection manager.
type Feed struct {
	Status             prometheus.Gauge
	MessagesReceived   prometheus.Counter
	EventsAppended     prometheus.Counter
	DecodeFailures     prometheus.Counter
	ConnectionFailures prometheus.Counter
	ReconnectAttempts  prometheus.Counter
}

// NewFeed creates feed collectors and registers them with reg.
// A nil reg leaves the collectors unregistered, which is what tests want.
func NewFeed(reg prometheus.Registerer) *Feed {
	f := &Feed{
		Status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "connection_status",
			Help:      "Connection status: 0 disconnected, 1 connecting, 2 connected.",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "messages_received_total",
			Help:      "Inbound frames received on the feed connection.",
		}),
		EventsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "events_appended_total",
			Help:      "Interaction events appended to the feed.",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "decode_failures_total",
			Help:      "Inbound frames dropped because they did not match the event schema.",
		}),
		ConnectionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "connection_failures_total",
			Help:      "Dial failures and abnormal connection drops.",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnect attempts made by the reconnect policy.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			f.Status,
			f.MessagesReceived,
			f.EventsAppended,
			f.DecodeFailures,
			f.ConnectionFailures,
			f.ReconnectAttempts,
		)
	}
	return f
}

// Server holds the collectors updated by the feed server and its source.
type Server struct {
	Clients        prometheus.Gauge
	Published      prometheus.Counter
	WriteFailures  prometheus.Counter
	SourceDropped  prometheus.Counter
	EncodeFailures prometheus.Counter
	ClientsServed  prometheus.Counter
}

// NewServer creates server collectors and registers them with reg.
func NewServer(reg prometheus.Registerer) *Server {
	s := &Server{
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "clients",
			Help:      "WebSocket clients currently connected.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "events_published_total",
			Help:      "Interaction events published by the source.",
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "write_failures_total",
			Help:      "Client writes that failed and disconnected the client.",
		}),
		SourceDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "source_dropped_total",
			Help:      "Source payloads dropped because they did not decode.",
		}),
		EncodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "encode_failures_total",
			Help:      "Source events that could not be encoded for clients.",
		}),
		ClientsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "clients_served_total",
			Help:      "WebSocket clients accepted since start.",
		}),
	}

	if reg != nil {
		reg.MustRegister(s.Clients, s.Published, s.WriteFailures, s.SourceDropped, s.EncodeFailures, s.ClientsServed)
	}
	return s
}

// Aggregate holds the collectors updated by the aggregate worker pool.
type Aggregate struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
}

// NewAggregate creates aggregate collectors and registers them with reg.
func NewAggregate(reg prometheus.Registerer) *Aggregate {
	a := &Aggregate{
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "events_published_total",
			Help:      "Interaction events published to the notification channel.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "publish_failures_total",
			Help:      "Interaction events that could not be encoded or published.",
		}),
	}

	if reg != nil {
		reg.MustRegister(a.Published, a.Failed)
	}
	return a
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
