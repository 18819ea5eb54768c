package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// keyedLimiter is an in-memory token bucket together with the parameters it
// was built with. A lookup that arrives with different parameters replaces
// the bucket, so a middleware configured with new limits never inherits a
// drained bucket created under old ones.
type keyedLimiter struct {
	lim   *rate.Limiter
	rps   float64
	burst int
}

var limiterStore sync.Map // map[string]*keyedLimiter

func getLimiter(key string, rps float64, burst int) *rate.Limiter {
	if v, ok := limiterStore.Load(key); ok {
		kl := v.(*keyedLimiter)
		if kl.rps == rps && kl.burst == burst {
			return kl.lim
		}
	}
	kl := &keyedLimiter{lim: rate.NewLimiter(rate.Limit(rps), burst), rps: rps, burst: burst}
	limiterStore.Store(key, kl)
	return kl.lim
}

// limiterKey picks the identity a request is limited under. The authenticated
// subject wins when claims are present, so users behind a shared NAT are
// limited individually; unauthenticated traffic falls back to the client IP.
func limiterKey(c *gin.Context, prefix string) string {
	if v, ok := c.Get("claims"); ok {
		if cm, ok := v.(map[string]interface{}); ok {
			if sub, ok := cm["sub"].(string); ok && sub != "" {
				return prefix + "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return prefix + "ip:" + ip
}

// RateLimitMiddleware enforces a per-key token bucket in process memory.
// rps is the refill rate in events per second, burst the bucket capacity.
// Suitable for single-instance deployments; multi-instance deployments
// should use RedisRateLimitMiddleware instead.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := getLimiter(limiterKey(c, ""), rps, burst)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
