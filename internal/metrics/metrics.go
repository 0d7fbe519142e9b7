package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GazetteerRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heritage_gazetteer_requests_total",
		Help: "Total gazetteer search requests",
	})
	GazetteerFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heritage_gazetteer_fail_total",
		Help: "Gazetteer requests that failed (transport, status or decode)",
	})
	GazetteerMissTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heritage_gazetteer_miss_total",
		Help: "Gazetteer searches that returned no candidate",
	})
	GazetteerDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "heritage_gazetteer_duration_ms",
		Help:    "Gazetteer call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	GeocodeCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heritage_geocode_cache_hits_total",
		Help: "Geocode cache hits by tier",
	}, []string{"tier"})
	GeocodeCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heritage_geocode_cache_misses_total",
		Help: "Geocode lookups that reached the gazetteer",
	})
	ImportTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heritage_import_tasks_total",
		Help: "Import tasks by kind and outcome",
	}, []string{"kind", "outcome"})
	ImportQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "heritage_import_queue_depth",
		Help: "Records waiting in the rate-limited import queue",
	})
	RouteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heritage_route_requests_total",
		Help: "Route planning requests by operation and result",
	}, []string{"op", "result"})
	ZoneIntentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heritage_zone_intents_total",
		Help: "Zone editor intents by type and outcome",
	}, []string{"intent", "outcome"})
	ZonesSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heritage_zones_saved_total",
		Help: "Zone drafts persisted",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heritage_rate_limited_total",
		Help: "API requests rejected by the token bucket",
	})
)

func init() {
	prometheus.MustRegister(
		GazetteerRequestsTotal,
		GazetteerFailTotal,
		GazetteerMissTotal,
		GazetteerDurationMs,
		GeocodeCacheHitsTotal,
		GeocodeCacheMissesTotal,
		ImportTasksTotal,
		ImportQueueDepth,
		RouteRequestsTotal,
		ZoneIntentsTotal,
		ZonesSavedTotal,
		RateLimitedTotal,
	)
}

// Handler：Prometheus 抓取端点
func Handler() http.Handler { return promhttp.Handler() }
