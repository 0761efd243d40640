// Package metrics exposes relay counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/remote-agent-terminal/patternrelay/internal/model"
)

const namespace = "patternrelay"

// Metrics holds the relay collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	connectedClients prometheus.Gauge
	relayedMessages  *prometheus.CounterVec
	droppedClients   prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates and registers the relay collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connected_clients",
			Help:      "Currently connected WebSocket clients.",
		}),
		relayedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "relayed_messages_total",
			Help:      "Messages received and broadcast, by message type.",
		}, []string{"type"}),
		droppedClients: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "dropped_clients_total",
			Help:      "Clients disconnected because their send queue was full.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	m.registry.MustRegister(
		m.connectedClients,
		m.relayedMessages,
		m.droppedClients,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ClientConnected increments the connected gauge.
func (m *Metrics) ClientConnected() {
	m.connectedClients.Inc()
}

// ClientDisconnected decrements the connected gauge.
func (m *Metrics) ClientDisconnected() {
	m.connectedClients.Dec()
}

// ClientDropped counts a client evicted for a full queue.
func (m *Metrics) ClientDropped() {
	m.droppedClients.Inc()
}

// MessageRelayed counts one broadcast message. The type comes from clients,
// so only known command types become label values.
func (m *Metrics) MessageRelayed(msgType string) {
	m.relayedMessages.WithLabelValues(typeLabel(msgType)).Inc()
}

func typeLabel(msgType string) string {
	switch model.MessageType(msgType) {
	case model.MessageTypeSetCPS, model.MessageTypePlay, model.MessageTypeStop:
		return msgType
	case "":
		return "unknown"
	default:
		return "other"
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency and logs each request.
func (m *Metrics) Middleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		elapsed := time.Since(start)

		labels := []string{c.Request.Method, path, strconv.Itoa(status)}
		m.httpRequests.WithLabelValues(labels...).Inc()
		m.httpDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("HTTP request")
	}
}
