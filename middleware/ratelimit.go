package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LoginRateLimit 登录接口限流中间件
// 每 IP 在滑动窗口 window 内最多 maxAttempts 次尝试，超过则返回 429。
// 过期记录在下一次访问同一 IP 时顺带清理，不开后台协程。
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		attempts = make(map[string][]time.Time)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()
		cutoff := now.Add(-window)

		mu.Lock()
		alive := attempts[ip][:0]
		for _, t := range attempts[ip] {
			if t.After(cutoff) {
				alive = append(alive, t)
			}
		}
		if len(alive) >= maxAttempts {
			attempts[ip] = alive
			mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "登录尝试过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		attempts[ip] = append(alive, now)
		mu.Unlock()

		c.Next()
	}
}
