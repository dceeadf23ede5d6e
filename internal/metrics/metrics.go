package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bytedefence"

// Registry is the process-wide Prometheus registry served on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is always 1; build information lives in the labels.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// HealthStatus values: 0 = unhealthy, 1 = degraded, 2 = healthy
var HealthStatus = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_status",
		Help:      "Overall service health status (0=unhealthy, 1=degraded, 2=healthy)",
	},
	[]string{"service"},
)

// GraphQL metrics
var (
	GraphQLOperationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_operations_total",
			Help:      "Total number of GraphQL operations executed",
		},
		[]string{"service", "operation", "outcome"}, // outcome: ok|error|rejected
	)

	GraphQLOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_operation_duration_seconds",
			Help:      "GraphQL operation latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service"},
	)

	GraphQLSubscriptionsActive = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graphql_subscriptions_active",
			Help:      "Current number of open GraphQL subscriptions",
		},
		[]string{"topic"},
	)
)

// Notification and relay metrics
var (
	NotificationsSentTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Order notifications handed to the relay",
		},
		[]string{"method", "outcome"}, // outcome: sent|failed|skipped
	)

	RelayConnections = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_connections",
			Help:      "Current number of websocket connections on the relay",
		},
	)

	RelayBroadcastsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_broadcasts_total",
			Help:      "Messages broadcast to relay groups",
		},
		[]string{"method"},
	)

	RelayDroppedTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_dropped_messages_total",
			Help:      "Messages dropped because a client send buffer was full",
		},
	)

	BrokerDroppedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_dropped_events_total",
			Help:      "Subscription events dropped because a subscriber was slow",
		},
		[]string{"topic"},
	)
)

var registerRuntime sync.Once

// Init registers the runtime collectors and records build information.
func Init(version, commit, buildDate string) {
	registerRuntime.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

// ObserveGraphQL records one executed operation. An empty operation name is
// reported as "anonymous".
func ObserveGraphQL(service, operation, outcome string, elapsed time.Duration) {
	if operation == "" {
		operation = "anonymous"
	}
	GraphQLOperationsTotal.WithLabelValues(service, operation, outcome).Inc()
	GraphQLOperationDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}
