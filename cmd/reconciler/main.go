package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/canvas-orders/internal/config"
	"github.com/ariefcatur/canvas-orders/internal/inventory"
	kafkax "github.com/ariefcatur/canvas-orders/internal/kafka"
	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/ariefcatur/canvas-orders/internal/orders"
	"github.com/ariefcatur/canvas-orders/internal/postgres"
	"github.com/ariefcatur/canvas-orders/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	service := cfg.ServiceName + "-reconciler"
	logger := logging.MustNew(service, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, poolOptions(cfg))
	if err != nil {
		logger.Fatal("db_connect_failed", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &inventory.Service{
		Drift: &orders.DriftRepo{DB: db},
		Dedup: &redisx.Dedup{RDB: rdb, Service: service},
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReconcilerGroup, orders.TopicInventoryAdjustmentFailed, cfg.ReconcilerWorkers, logger)

	logger.Info("reconciler_started",
		zap.String("group", cfg.ReconcilerGroup),
		zap.String("topic", orders.TopicInventoryAdjustmentFailed),
		zap.Int("workers", cfg.ReconcilerWorkers),
	)
	if err := cons.Start(logging.WithLogger(ctx, logger), svc.HandleAdjustmentFailed); err != nil {
		logger.Error("consumer_exit", zap.Error(err))
	}
	logger.Info("reconciler_stopped")
}

func poolOptions(cfg config.Config) postgres.PoolOptions {
	return postgres.PoolOptions{
		MaxConns:          cfg.PostgresPool.MaxConns,
		MinConns:          cfg.PostgresPool.MinConns,
		MaxConnIdleTime:   cfg.PostgresPool.MaxConnIdleTime,
		HealthCheckPeriod: cfg.PostgresPool.HealthCheckPeriod,
	}
}
