package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the hangar server. It
// registers with the default registry, so build it once per process.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec
	RateLimitedTotal     prometheus.Counter

	// Cache Metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Realtime Metrics
	RealtimeSubscriptions   prometheus.GaugeVec
	RealtimeEventsPublished prometheus.CounterVec
	RealtimeEventsDropped   prometheus.CounterVec

	// Business Metrics
	FlightsLoggedTotal prometheus.Counter
	SafetyAlertsTotal  prometheus.CounterVec
	SafetyQueueLength  prometheus.Gauge
	SafetyQueuePending prometheus.Gauge
	EnrichmentFailures prometheus.Counter
}

func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hangar_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hangar_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),
		RateLimitedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hangar_http_rate_limited_total",
				Help: "Requests rejected by the per-IP rate limiter",
			},
		),

		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		RealtimeSubscriptions: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hangar_realtime_subscriptions",
				Help: "Active change feed subscriptions by table",
			},
			[]string{"table"},
		),
		RealtimeEventsPublished: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_realtime_events_published_total",
				Help: "Row changes published into the hub by table and event type",
			},
			[]string{"table", "event_type"},
		),
		RealtimeEventsDropped: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_realtime_events_dropped_total",
				Help: "Row changes dropped because a subscriber buffer was full",
			},
			[]string{"table"},
		),

		FlightsLoggedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hangar_flights_logged_total",
				Help: "Total flights created",
			},
		),
		SafetyAlertsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hangar_safety_alerts_total",
				Help: "Safety alerts processed by severity",
			},
			[]string{"severity"},
		),
		SafetyQueueLength: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hangar_safety_queue_length",
				Help: "Entries in the safety alert stream",
			},
		),
		SafetyQueuePending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hangar_safety_queue_pending",
				Help: "Safety alerts delivered but not yet acknowledged",
			},
		),
		EnrichmentFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hangar_flight_enrichment_failures_total",
				Help: "Pilot name lookups that failed while enriching flights",
			},
		),
	}
}
