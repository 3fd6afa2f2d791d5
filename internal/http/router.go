package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/http/middleware"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/metrics"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/rate"
)

type Options struct {
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	RateLimiter  rate.Limiter // used for POST /shorten only; nil disables limiting
	MaxBodyBytes int64
}

// NewRouter sets up all routes and middleware.
func NewRouter(svc *core.Service, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	r := gin.New()
	// Treat all upstreams as untrusted (removes the warning).
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("SetTrustedProxies", zap.Error(err))
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.BodyLimit(opts.MaxBodyBytes))

	h := NewHandlers(svc, m, log)

	r.GET("/health-check", h.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// Optional tiny UI (inline HTML)
	RegisterStatic(r)

	if opts.RateLimiter != nil {
		r.POST("/shorten", middleware.RateLimit(opts.RateLimiter, m, log), h.Shorten)
	} else {
		r.POST("/shorten", h.Shorten)
	}
	r.GET("/stats/:code", h.Stats)

	// Redirect
	r.GET("/:code", h.Redirect)

	return r
}
