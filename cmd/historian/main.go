// cmd/historian drains the audit queue in Redis into the audit_log table.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/volei/internal/cache"
	"github.com/jason-s-yu/volei/internal/config"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/historian"
	"github.com/jason-s-yu/volei/internal/logging"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg)

	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer rdb.Close()

	if backlog, err := rdb.AuditBacklog(ctx); err == nil {
		logger.WithField("backlog", backlog).Info("audit queue backlog")
	}

	hs := historian.NewService(rdb, database.New(pool), logger, cfg.Historian.BatchSize, cfg.Historian.FlushInterval)
	hs.Run(ctx)
}
