package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/app"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/config"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("boot", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close", zap.Error(err))
		}
	}()

	// Blocks until SIGINT/SIGTERM or a server failure.
	if err := a.Run(ctx); err != nil {
		log.Error("server", zap.Error(err))
		_ = a.Close()
		_ = log.Sync()
		os.Exit(1)
	}
}
