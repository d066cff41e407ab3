package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Session issuance is cheap for the caller and a paid upstream call for
// us, so each client gets its own token bucket. Idle buckets are swept
// once the table grows past sweepThreshold.
const (
	sweepThreshold = 1024
	clientIdleTTL  = 10 * time.Minute
)

// RateLimitConfig defines per-client rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// DefaultRateLimitConfig returns limits sized for a single browser
// session's issuance traffic with headroom for retries.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		Burst:             40,
	}
}

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit creates a per-client-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string]*rateClient)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		cl, exists := clients[ip]
		if !exists {
			cl = &rateClient{
				limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			}
			clients[ip] = cl
		}
		cl.lastSeen = now
		if len(clients) > sweepThreshold {
			for key, candidate := range clients {
				if now.Sub(candidate.lastSeen) > clientIdleTTL {
					delete(clients, key)
				}
			}
		}
		limiter := cl.limiter
		mu.Unlock()

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
