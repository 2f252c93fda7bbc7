package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/repository"
)

// RateLimit 按客户端 IP 计数；redis 不可用时放行
func RateLimit(limiter repository.RateLimiter, scope string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		ok, err := limiter.Allow(c.Request.Context(), scope, c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"msg": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
