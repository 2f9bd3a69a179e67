package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/cache"
	"github.com/jason-s-yu/volei/internal/config"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/handlers"
	"github.com/jason-s-yu/volei/internal/logging"
	"github.com/jason-s-yu/volei/internal/metrics"
	"github.com/jason-s-yu/volei/internal/middleware"
	"github.com/jason-s-yu/volei/internal/reminders"
	"github.com/jason-s-yu/volei/internal/schedule"
	"github.com/jason-s-yu/volei/internal/scoreboard"
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

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	if err := cfg.RequireJWT(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := database.New(pool)
	logger.Info("connected to postgres")

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	logger.WithField("addr", cfg.Redis.Addr).Info("connected to redis")

	jobs, err := reminders.NewService(pool, store, rdb, logger, cfg.Reminders.Lead, cfg.Reminders.Workers)
	if err != nil {
		return err
	}
	if err := jobs.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := jobs.Stop(stopCtx); err != nil {
			logger.WithError(err).Warn("reminder queue did not stop cleanly")
		}
	}()

	m := metrics.New()
	srv := handlers.NewClubServer(store, logger)
	srv.Publisher = rdb
	srv.Reminders = jobs
	srv.Metrics = m
	srv.Schedule = schedule.NewParser(loc)
	srv.Verifier = auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	srv.Limiter = middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	srv.InstanceID = cfg.Server.InstanceID
	if srv.InstanceID == "" {
		srv.InstanceID = uuid.NewString()
	}
	srv.AllowedOrigins = cfg.CORSOrigins()
	srv.Hub.OnSubscribersChange = m.SetScoreboardSubscribers

	updates, err := rdb.SubscribeScoreboard(ctx, logger)
	if err != nil {
		return err
	}
	go scoreboard.NewRelay(srv.Hub, srv.InstanceID, logger).Run(ctx, updates)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     cfg.Server.Addr,
			"instance": srv.InstanceID,
			"club":     cfg.Club.Name,
		}).Info("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
