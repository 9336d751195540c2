// internal/middleware/rate_limit.go
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		now:      time.Now,
	}
}

// Run evicts idle visitors every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup(3 * time.Minute)
		}
	}
}

func (rl *RateLimiter) cleanup(idle time.Duration) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	for ip, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > idle {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, rl.now()}
		return limiter
	}

	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(c.ClientIP()).Allow() {
			lang := utils.GetLangFromContext(c)
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, i18n.KeyRateLimited), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Limiters groups the per-route-class limiters used by the router.
type Limiters struct {
	General *RateLimiter
	Upload  *RateLimiter
	Webhook *RateLimiter
}

func DefaultLimiters() *Limiters {
	return &Limiters{
		General: NewRateLimiter(rate.Every(100*time.Millisecond), 20), // 10 requests per second
		Upload:  NewRateLimiter(rate.Every(6*time.Second), 10),        // 10 uploads per minute
		Webhook: NewRateLimiter(rate.Every(10*time.Millisecond), 100),
	}
}

// Run starts the cleanup loop of every limiter.
func (l *Limiters) Run(ctx context.Context) {
	for _, rl := range []*RateLimiter{l.General, l.Upload, l.Webhook} {
		go rl.Run(ctx)
	}
}
