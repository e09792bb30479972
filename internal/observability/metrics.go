package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connect_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "connect_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_messages_sent_total",
			Help: "Total number of messages stored.",
		},
		[]string{"kind"},
	)
	attentionRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connect_attention_rejected_total",
			Help: "Total number of attention requests rejected by the rate limiter.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connect_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		messagesSentTotal,
		attentionRejectedTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncMessageSent(kind string) {
	messagesSentTotal.WithLabelValues(kind).Inc()
}

func IncAttentionRejected() {
	attentionRejectedTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
