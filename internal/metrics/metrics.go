// Package metrics exposes Prometheus collectors for the detax client.
//
// All recording methods are safe on a nil *Metrics, so components can be
// built without metrics in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "detax"

// Metrics holds the client's collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	staleDropped *prometheus.CounterVec
	busEmits     *prometheus.CounterVec
	chat         *prometheus.CounterVec
	commands     *prometheus.CounterVec
}

// New registers the collectors on registry, creating one when nil.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests by method, route and HTTP status (0 = transport error).",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
		staleDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_dropped_total",
			Help:      "Responses discarded because the selection changed while they were in flight.",
		}, []string{"component"}),
		busEmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_emits_total",
			Help:      "Event bus emits by topic.",
		}, []string{"topic"}),
		chat: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat sends by channel and outcome.",
		}, []string{"channel", "outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Workspace commands by aggregate, command and outcome.",
		}, []string{"aggregate", "command", "outcome"}),
	}

	registry.MustRegister(
		m.requests, m.duration, m.staleDropped, m.busEmits, m.chat, m.commands,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one API call.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// StaleDropped counts a discarded out-of-date response.
func (m *Metrics) StaleDropped(component string) {
	if m == nil {
		return
	}
	m.staleDropped.WithLabelValues(component).Inc()
}

// BusEmit counts one emit on topic. Matches pubsub.Bus.SetObserver.
func (m *Metrics) BusEmit(topic string, _ int) {
	if m == nil {
		return
	}
	m.busEmits.WithLabelValues(topic).Inc()
}

// ChatMessage counts a chat send outcome ("ok", "error", "rejected").
func (m *Metrics) ChatMessage(channel, outcome string) {
	if m == nil {
		return
	}
	m.chat.WithLabelValues(channel, outcome).Inc()
}

// Command counts a workspace command outcome ("ok", "error", "invalid").
func (m *Metrics) Command(aggregate, command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(aggregate, command, outcome).Inc()
}
