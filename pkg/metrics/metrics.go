package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PostbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postback_requests_total",
			Help: "Total number of postback requests by pipeline outcome (count)",
		},
		[]string{"outcome"},
	)

	PostbackProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postback_processing_duration_ms",
			Help:    "End-to-end pipeline duration per postback in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"outcome"},
	)

	DedupChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_checks_total",
			Help: "Total number of dedup cache checks (count)",
		},
		[]string{"status"},
	)

	DedupCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dedup_check_duration_ms",
			Help:    "Dedup cache check duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"status"},
	)

	DedupCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_cache_size",
			Help: "Approximate number of tracked dedup keys (count)",
		},
	)

	RateLimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Total number of per-profile rate limit decisions (count)",
		},
		[]string{"status"},
	)

	RateLimitActiveBuckets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limit_active_buckets",
			Help: "Number of live per-profile token buckets (count)",
		},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of delivery attempts by result (count)",
		},
		[]string{"status"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_duration_ms",
			Help:    "Delivery sink call duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	RouteMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_matches_total",
			Help: "Total number of route evaluations by result (count)",
		},
		[]string{"result"},
	)

	EventStreamWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_stream_writes_total",
			Help: "Total number of event records published to the stream (count)",
		},
		[]string{"topic", "status"},
	)

	HTTPRateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_requests_total",
			Help: "Total number of requests checked against the per-IP HTTP rate limit (count)",
		},
		[]string{"status"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"component", "strategy", "reason"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)
)

func RegisterIngestMetrics() {
	prometheus.MustRegister(PostbacksTotal)
	prometheus.MustRegister(PostbackProcessingDuration)
	prometheus.MustRegister(DedupChecksTotal)
	prometheus.MustRegister(DedupCheckDuration)
	prometheus.MustRegister(DedupCacheSize)
	prometheus.MustRegister(RateLimitDecisionsTotal)
	prometheus.MustRegister(RateLimitActiveBuckets)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDuration)
	prometheus.MustRegister(RouteMatchesTotal)
	prometheus.MustRegister(FallbackUsageTotal)
}

func RegisterStreamMetrics() {
	prometheus.MustRegister(EventStreamWritesTotal)
}

func RegisterManagementMetrics() {
	prometheus.MustRegister(HTTPRateLimitRequestsTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func ObservePostbackDuration(duration time.Duration, outcome string) {
	PostbackProcessingDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func ObserveDedupDuration(duration time.Duration, status string) {
	DedupCheckDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func ObserveDeliveryDuration(duration time.Duration, status string) {
	DeliveryDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func SetDedupCacheSize(size int) {
	DedupCacheSize.Set(float64(size))
}

func SetRateLimitActiveBuckets(count int) {
	RateLimitActiveBuckets.Set(float64(count))
}
