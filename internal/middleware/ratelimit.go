package middleware

import (
	"sync"
	"time"

	"abserver/pkg/config"
	"abserver/pkg/logger"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LoginRateLimiter 按客户端IP限制登录频率（令牌桶）
type LoginRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginRateLimiter LoginPerMinute 为 0 时返回 nil，表示不限制
func NewLoginRateLimiter(cfg config.RateLimitConfig) *LoginRateLimiter {
	if cfg.LoginPerMinute <= 0 {
		return nil
	}
	burst := cfg.LoginBurst
	if burst <= 0 {
		burst = 1
	}
	return &LoginRateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Limit(float64(cfg.LoginPerMinute) / 60),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Allow 判断该IP当前是否允许请求
func (l *LoginRateLimiter) Allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// 顺带清理长时间未访问的条目
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.limiters, key)
		}
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Middleware 超出频率返回 429
func (l *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		if !l.Allow(c.ClientIP()) {
			logger.GetLogger().WithField("client_ip", c.ClientIP()).Warn("Login rate limit exceeded")
			response.TooManyRequests(c, "Too many login attempts, please try again later")
			return
		}
		c.Next()
	}
}
