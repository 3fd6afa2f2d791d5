package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/metrics"
)

// Metrics records request count and latency by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.RequestCount.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
