package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charitydesk_redis_errors_total",
		Help: "Total number of failed Redis commands",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by cache name and result (hit, miss, bypass).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charitydesk_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"cache", "result"})

	// RateLimitRejections counts requests rejected by the Redis rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charitydesk_rate_limit_rejections_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"resource"})

	// ContentEvents counts content lifecycle events by kind and action.
	ContentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charitydesk_content_events_total",
		Help: "Total number of content lifecycle events",
	}, []string{"kind", "action"})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charitydesk_like_toggles_total",
		Help: "Total number of like toggles by resulting state",
	}, []string{"state"})
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// InitMetrics builds the HTTP metrics collector on the default registry so
// /metrics also exposes the domain counters above. Repeated calls return the
// same collector.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.NewWithRegistry(prometheus.DefaultRegisterer, serviceName, "http", "", nil)
	})
	return promMW
}

// MetricsMiddleware records request count and latency for every route.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
