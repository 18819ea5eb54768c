package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulsetrack", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulsetrack", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// Resolver instrumentation. "outcome" is one of: cached, fetched,
	// created, degraded, creation_failed.
	ProfileCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "pulsetrack", Name: "profile_cache_hits_total", Help: "Profile resolutions served from the in-memory cache."},
	)
	ProfileCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "pulsetrack", Name: "profile_cache_misses_total", Help: "Profile resolutions that required a backend read."},
	)
	ProfileResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pulsetrack", Name: "profile_resolutions_total", Help: "Profile resolutions by outcome."},
		[]string{"outcome"},
	)
	SessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "pulsetrack", Name: "sessions_expired_total", Help: "Sessions force-closed by the expiry enforcer."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ProfileCacheHits)
	reg.MustRegister(ProfileCacheMisses)
	reg.MustRegister(ProfileResolutions)
	reg.MustRegister(SessionsExpired)
}
