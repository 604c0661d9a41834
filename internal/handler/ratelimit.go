package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxTrackedClients 为单个限流器最多跟踪的客户端数，超过后整体清空。
const maxTrackedClients = 10000

// RateLimiter 按客户端 IP 限制请求频率。
type RateLimiter struct {
	name     string
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	logger   *zap.Logger
}

// NewRateLimiter 构造每分钟最多 perMinute 次请求的限流器；perMinute <= 0 时不限流。
func NewRateLimiter(name string, perMinute int, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	burst := 0
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
		burst = perMinute
	}
	return &RateLimiter{
		name:     name,
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()
	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists = rl.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[key] = limiter
	return limiter
}

// Allow 判断 key 对应的客户端当前是否允许请求。
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit == rate.Inf {
		return true
	}
	return rl.get(key).Allow()
}

// Sweep 在跟踪的客户端过多时清空限流表，返回是否发生了清空。
func (rl *RateLimiter) Sweep() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > maxTrackedClients {
		rl.limiters = make(map[string]*rate.Limiter)
		return true
	}
	return false
}

// Middleware 返回 gin 中间件；超限时 JSON 接口返回 429 错误体，页面返回纯文本。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rl.Allow(ip) {
			c.Next()
			return
		}

		rl.logger.Warn("rate limit exceeded",
			zap.String("limiter", rl.name),
			zap.String("ip", ip),
			zap.String("path", c.Request.URL.Path),
		)
		if wantsJSON(c) {
			respondError(c, http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.")
		} else {
			c.String(http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.")
		}
		c.Abort()
	}
}

func wantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		return true
	}
	return strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.HasPrefix(c.Request.URL.Path, "/admin/api/")
}
