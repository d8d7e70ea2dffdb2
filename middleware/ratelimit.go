package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter throttles a client IP to one request per window. It guards
// the credential endpoints, not general traffic.
type RateLimiter struct {
	visitors sync.Map
	window   time.Duration
}

// NewRateLimiter returns a limiter with a background cleanup goroutine.
// A zero or negative window disables limiting.
func NewRateLimiter(window time.Duration) *RateLimiter {
	rl := &RateLimiter{window: window}
	if window > 0 {
		go rl.cleanup()
	}
	return rl
}

// cleanup removes stale entries so the visitor map cannot grow unbounded.
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		now := time.Now()
		rl.visitors.Range(func(key, value interface{}) bool {
			if now.Sub(value.(time.Time)) > rl.window {
				rl.visitors.Delete(key)
			}
			return true
		})
	}
}

// Limit enforces the per-IP window.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.window <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if lastSeen, ok := rl.visitors.Load(ip); ok {
			if time.Since(lastSeen.(time.Time)) < rl.window {
				slog.Warn("rate limit exceeded", "ip", ip, "path", c.FullPath())
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"message": "Too many requests, please try again later.",
					"status":  "error",
				})
				return
			}
		}

		rl.visitors.Store(ip, time.Now())
		c.Next()
	}
}
