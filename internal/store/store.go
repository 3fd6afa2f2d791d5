package store

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/config"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/store/mongo"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/store/postgres"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/store/sqlite"
)

// Open connects to the configured backend, retrying up to cfg.ConnectRetries attempts
// with cfg.ConnectDelay between them.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (core.Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	connect, err := connector(cfg)
	if err != nil {
		return nil, err
	}

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.ConnectDelay), uint64(retries-1)),
		ctx,
	)

	attempt := 0
	op := func() (core.Store, error) {
		attempt++
		s, err := connect(ctx)
		if err != nil {
			log.Warn("store connect failed",
				zap.String("driver", cfg.Driver),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", retries),
				zap.Error(err))
			return nil, err
		}
		return s, nil
	}

	s, err := backoff.RetryWithData(op, policy)
	if err != nil {
		return nil, fmt.Errorf("open %s store after %d attempts: %w", cfg.Driver, attempt, err)
	}
	log.Info("store connected", zap.String("driver", cfg.Driver), zap.Int("attempt", attempt))
	return s, nil
}

func connector(cfg config.StoreConfig) (func(context.Context) (core.Store, error), error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return func(ctx context.Context) (core.Store, error) {
			return sqlite.Open(ctx, cfg.SQLitePath)
		}, nil
	case config.DriverPostgres:
		return func(ctx context.Context) (core.Store, error) {
			return postgres.Open(ctx, cfg.PostgresURL)
		}, nil
	case config.DriverMongo:
		return func(ctx context.Context) (core.Store, error) {
			return mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
