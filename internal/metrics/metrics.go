package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ammindexer"

// Metrics holds every collector the indexer exports.
type Metrics struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rpcCalls *prometheus.CounterVec
	sinkRows *prometheus.CounterVec
}

// New registers the collectors on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Handled chain events by event name and outcome.",
		}, []string{"event", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent applying one event.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"event"}),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "Contract calls by method and result.",
		}, []string{"method", "result"}),
		sinkRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_rows_total",
			Help:      "History rows handed to ClickHouse by table and result.",
		}, []string{"table", "result"}),
	}

	reg.MustRegister(m.events, m.duration, m.rpcCalls, m.sinkRows)
	return m
}

func (m *Metrics) ObserveEvent(event, outcome string, took time.Duration) {
	m.events.WithLabelValues(event, outcome).Inc()
	m.duration.WithLabelValues(event).Observe(took.Seconds())
}

func (m *Metrics) RPCCall(method, result string) {
	m.rpcCalls.WithLabelValues(method, result).Inc()
}

func (m *Metrics) SinkRows(table, result string, n int) {
	m.sinkRows.WithLabelValues(table, result).Add(float64(n))
}

func Handler() http.Handler {
	h := promhttp.Handler()
	return h
}

// HandlerFor serves a private registry.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
