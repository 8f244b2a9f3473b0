// Package observability provides Prometheus collectors and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forum_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheRequests counts cache lookups by key prefix and outcome (hit, miss).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_cache_requests_total",
		Help: "Cache lookups by key prefix and result",
	}, []string{"prefix", "result"})

	// ContentEvents counts forum content mutations by entity and action.
	ContentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_content_events_total",
		Help: "Forum content mutations by entity and action",
	}, []string{"entity", "action"})

	// AuthAttempts counts login and registration attempts by result.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_auth_attempts_total",
		Help: "Authentication attempts by kind and result",
	}, []string{"kind", "result"})

	// RateLimitRejections counts requests refused by the rate limiter per resource.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"resource"})

	// TopicSubscribers is the gauge of live topic feed connections.
	TopicSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "forum_topic_subscribers",
		Help: "Number of WebSocket clients subscribed to topic feeds",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// RecordContentEvent bumps the content mutation counter.
func RecordContentEvent(entity, action string) {
	ContentEvents.WithLabelValues(entity, action).Inc()
}
