// Command urlshorty-cleanup deletes expired short links once and exits.
// Run it from cron or any external scheduler.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/config"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/id"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/logging"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/store"
)

const timeout = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cleanup: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	st, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	svc := core.NewService(st, id.NewGenerator(), cfg.BaseURL, core.WithLogger(log))
	n, err := svc.CleanupExpiredURLs(ctx)
	if err != nil {
		return err
	}
	log.Info("expired urls removed", zap.Int64("count", n), zap.String("store", cfg.Store.Driver))
	return nil
}
