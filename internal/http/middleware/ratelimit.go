package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/metrics"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/rate"
)

const tooManyRequests = "Too many requests. Try again later."

// RateLimit gates the current route per client IP. A failing limiter lets the request through.
func RateLimit(lim rate.Limiter, m *metrics.Metrics, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		ok, err := lim.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Error("rate limiter failed", zap.String("client_ip", ip), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			m.RateLimited.Inc()
			_ = c.Error(core.ErrRateLimited)
			c.String(http.StatusTooManyRequests, tooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
