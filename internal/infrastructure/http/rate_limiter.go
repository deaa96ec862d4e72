package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
)

// defaultIdleTTL is how long a client may stay silent before its bucket
// is forgotten.
const defaultIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than idleTTL are swept, at most once per idleTTL, on access.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (r *RateLimiter) limiter(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= r.idleTTL {
		r.sweep(now)
	}

	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep must be called with mu held.
func (r *RateLimiter) sweep(now time.Time) {
	for ip, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.idleTTL {
			delete(r.visitors, ip)
		}
	}
	r.lastSweep = now
}

func (r *RateLimiter) Middleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !r.limiter(ip).Allow() {
			logger.Info("rate limit exceeded", map[string]any{"ip": ip})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}
