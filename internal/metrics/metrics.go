package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring service health and performance
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Total number of order status transitions by target status",
		},
		[]string{"to"},
	)

	OrderTransitionsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_transitions_rejected_total",
			Help: "Total number of rejected order status transitions",
		},
	)

	AnalyticsQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_queries_total",
			Help: "Total number of analytics aggregation queries by scope",
		},
		[]string{"scope"},
	)

	AnalyticsQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_query_duration_seconds",
			Help:    "Duration of analytics aggregation queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	DashboardCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_hits_total",
			Help: "Total number of dashboard responses served from cache",
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(OrderTransitionsTotal)
	prometheus.MustRegister(OrderTransitionsRejectedTotal)
	prometheus.MustRegister(AnalyticsQueriesTotal)
	prometheus.MustRegister(AnalyticsQueryDuration)
	prometheus.MustRegister(DashboardCacheHitsTotal)
}
