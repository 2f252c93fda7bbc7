package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus_hub/internal/metrics"
)

// Metrics 按路由模板统计，未匹配的路由归到 unmatched 避免标签爆炸
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
