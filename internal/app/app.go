package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/run"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/config"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
	httpapi "github.com/shivamsaksham/Mini-Url-Shortener/internal/http"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/id"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/metrics"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/rate"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
	redisKeyPrefix  = "urlshorty:ratelimit:"
)

// App wires config, storage, core service, rate limiter, metrics and the HTTP router.
type App struct {
	Cfg     config.Config
	Log     *zap.Logger
	Store   core.Store
	Service *core.Service
	Limiter rate.Limiter // nil when rate limiting is disabled
	Metrics *metrics.Metrics
	Router  *gin.Engine

	redis *redis.Client
}

// New builds a fully-wired application instance.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}

	a := &App{Cfg: cfg, Log: log, Store: st, Metrics: metrics.New()}

	a.Service = core.NewService(st, id.NewGenerator(), cfg.BaseURL,
		core.WithCodeLength(cfg.CodeLength),
		core.WithLogger(log.Named("core")),
	)

	if err := a.buildLimiter(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Router = httpapi.NewRouter(a.Service, httpapi.Options{
		Logger:       log.Named("http"),
		Metrics:      a.Metrics,
		RateLimiter:  a.Limiter,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	return a, nil
}

func (a *App) buildLimiter(ctx context.Context) error {
	rl := a.Cfg.RateLimit
	if rl.Max <= 0 {
		a.Log.Info("rate limiting disabled")
		return nil
	}
	if rl.RedisAddr == "" {
		a.Limiter = rate.NewMemory(rl.Max, rl.Window, rl.MaxEntries)
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: rl.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect redis %s: %w", rl.RedisAddr, err)
	}
	a.redis = client
	a.Limiter = rate.NewRedis(client, rl.Max, rl.Window, redisKeyPrefix)
	return nil
}

// Addr returns the HTTP listen address, e.g. ":5000".
func (a *App) Addr() string {
	return a.Cfg.Addr()
}

// Run serves HTTP (and the cleanup scheduler, if configured) until ctx ends, SIGINT/SIGTERM
// arrives or an actor fails. A signal or cancellation is a clean exit.
func (a *App) Run(ctx context.Context) error {
	var g run.Group

	srv := &http.Server{
		Addr:              a.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Add(func() error {
		a.Log.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.String("base_url", a.Cfg.BaseURL),
			zap.String("store", a.Cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			a.Log.Warn("http shutdown", zap.Error(err))
		}
	})

	if every := a.Cfg.CleanupInterval; every > 0 {
		cctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			a.cleanupLoop(cctx, every)
			return nil
		}, func(error) {
			cancel()
		})
	}

	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err := g.Run()
	var sig run.SignalError
	switch {
	case errors.As(err, &sig):
		a.Log.Info("shutting down", zap.String("signal", sig.Signal.String()))
		return nil
	case errors.Is(err, context.Canceled):
		a.Log.Info("shutting down", zap.String("reason", "context canceled"))
		return nil
	}
	return err
}

func (a *App) cleanupLoop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := a.Cleanup(ctx); err != nil && ctx.Err() == nil {
				a.Log.Error("cleanup failed", zap.Error(err))
			}
		}
	}
}

// Cleanup runs one expired-mapping purge and records the result.
func (a *App) Cleanup(ctx context.Context) (int64, error) {
	n, err := a.Service.CleanupExpiredURLs(ctx)
	if err != nil {
		return 0, err
	}
	a.Metrics.CleanupDeleted.Add(float64(n))
	a.Log.Info("expired urls removed", zap.Int64("count", n))
	return n, nil
}

// Close releases the store and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
