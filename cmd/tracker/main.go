// Command tracker is the long-running tracking daemon: it refreshes due
// tracked assets on a schedule, emits change events to Kafka, and hosts the
// health and metrics endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsearch "github.com/ipsentinel/ipsentinel/internal/application/search"
	apptracking "github.com/ipsentinel/ipsentinel/internal/application/tracking"
	"github.com/ipsentinel/ipsentinel/internal/config"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/cache"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/database/postgres"
	redisclient "github.com/ipsentinel/ipsentinel/internal/infrastructure/database/redis"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/messaging/kafka"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/metrics"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/providers"
	httpiface "github.com/ipsentinel/ipsentinel/internal/interfaces/http"
)

const (
	defaultConfigPath  = "configs/config.yaml"
	passLockName       = "tracker-pass"
	shutdownTimeout    = 15 * time.Second
	migrationsPathFlag = "file://migrations"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	migrationsPath := flag.String("migrations", migrationsPathFlag, "migrations source URL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	logger.Info("tracker starting", logging.String("config", *configPath))

	// Invalid edits to the config file are dropped; only the log level is
	// applied live.
	config.Watch(*configPath, func(next *config.Config) {
		logger.Info("configuration reloaded", logging.String("log_level", next.Log.Level))
	})

	if err := postgres.RunMigrations(cfg.Postgres.DSN(), *migrationsPath); err != nil {
		logger.Fatal("migrations failed", logging.Err(err))
	}

	conn, err := postgres.NewConnection(cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", logging.Err(err))
	}
	defer conn.Close()

	redisCli, err := redisclient.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis connection failed", logging.Err(err))
	}
	defer redisCli.Close()

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal("kafka producer failed", logging.Err(err))
	}
	defer producer.Close()

	collector := metrics.NewCollector()
	caches := cache.NewRegistry(cache.WithCounters(collector.RecordCacheHit, collector.RecordCacheMiss))

	registry := providers.BuildRegistry(cfg.Providers, logger)
	dispatcher := appsearch.NewDispatcher(registry, caches, logger,
		appsearch.WithFanoutLimit(cfg.Search.FanoutLimit),
		appsearch.WithCallTimeout(cfg.Search.CallTimeout),
		appsearch.WithMetrics(collector))

	assets := postgres.NewTrackedAssetRepository(conn)

	schedOpts := []apptracking.SchedulerOption{
		apptracking.WithTick(cfg.Scheduler.Tick),
		apptracking.WithBatchLimit(cfg.Scheduler.BatchLimit),
		apptracking.WithParallelism(cfg.Scheduler.Parallelism),
		apptracking.WithDeduper(redisclient.NewDedupeStore(redisCli)),
		apptracking.WithSchedulerMetrics(collector),
	}
	if cfg.Scheduler.LockEnabled {
		schedOpts = append(schedOpts,
			apptracking.WithPassLock(redisclient.NewPassLock(redisCli, passLockName, cfg.Scheduler.LockTTL)))
	}
	scheduler := apptracking.NewScheduler(assets, dispatcher, producer, logger, schedOpts...)

	server := httpiface.NewServer(cfg.Server.Addr(), collector.Handler(), logger,
		httpiface.ReadinessCheck{Name: "postgres", Check: conn.HealthCheck},
		httpiface.ReadinessCheck{Name: "redis", Check: redisCli.Ping},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server stopped", logging.Err(err))
		}
	}()
	go scheduler.Run(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", logging.Err(err))
	}
	logger.Info("tracker stopped")
}
