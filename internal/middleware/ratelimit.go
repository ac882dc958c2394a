package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the sweep window are dropped by StartCleanup.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	now      func() time.Time
	log      *zap.Logger
}

func NewRateLimiter(perMinute, burst int, log *zap.Logger) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	if burst <= 0 {
		burst = perMinute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		now:      time.Now,
		log:      log,
	}
}

func (r *RateLimiter) limiter(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.every, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = r.now()
	return v.limiter
}

// Sweep drops buckets not used within idle and returns how many went.
func (r *RateLimiter) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	n := 0
	for ip, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(r.visitors, ip)
			n++
		}
	}
	return n
}

// Tracked returns the number of IPs holding a bucket.
func (r *RateLimiter) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// StartCleanup sweeps every interval until ctx is done.
func (r *RateLimiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(idle); n > 0 {
					r.log.Debug("rate limiter swept", zap.Int("removed", n), zap.Int("tracked", r.Tracked()))
				}
			}
		}
	}()
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !r.limiter(ip).Allow() {
			r.log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			response.CustomError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later")
			return
		}
		c.Next()
	}
}
