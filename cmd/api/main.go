package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/canvas-orders/internal/auth"
	"github.com/ariefcatur/canvas-orders/internal/config"
	"github.com/ariefcatur/canvas-orders/internal/httpx"
	kafkax "github.com/ariefcatur/canvas-orders/internal/kafka"
	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/ariefcatur/canvas-orders/internal/memory"
	"github.com/ariefcatur/canvas-orders/internal/metrics"
	"github.com/ariefcatur/canvas-orders/internal/orders"
	"github.com/ariefcatur/canvas-orders/internal/postgres"
	"github.com/ariefcatur/canvas-orders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "api",
		Usage: "order lifecycle HTTP API",
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP server", Action: serve},
			{
				Name:  "migrate",
				Usage: "apply the database schema",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					return postgres.Migrate(cfg.PostgresDSN)
				},
			},
			{
				Name:  "token",
				Usage: "issue a bearer token for local testing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "role", Value: auth.RoleUser},
					&cli.DurationFlag{Name: "ttl", Value: time.Hour},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					tok, err := auth.NewVerifier(cfg.JWTSecret).Issue(auth.Identity{
						UserID: c.String("user"),
						Role:   c.String("role"),
					}, c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, tok)
					return nil
				},
			},
		},
		DefaultCommand: "serve",
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, cfg.ServiceName)

	var (
		repo  orders.Repository
		inv   orders.InventoryStore
		ready []func(context.Context) error
	)
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("memory_storage_enabled")
		repo, inv = memory.NewOrderRepository(), memory.NewInventoryStore()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, poolOptions(cfg))
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
		repo, inv = &orders.Repo{DB: db}, &orders.InventoryRepo{DB: db}
		ready = append(ready, db.Ping)
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	repo = redisx.NewOrderCache(repo, rdb, cfg.OrderCacheTTL)

	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
	prod.Start(context.Background())

	mgr := orders.NewManager(repo, inv,
		orders.WithPublisher(prod),
		orders.WithMetrics(m),
		orders.WithServiceName(cfg.ServiceName),
	)
	router := httpx.NewRouter(httpx.RouterConfig{
		Logger:   logger,
		Metrics:  m,
		Gatherer: reg,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Orders: &httpx.OrdersHandler{
			Orders:      mgr,
			Idempotency: &redisx.Idempotency{RDB: rdb, TTL: cfg.IdempotencyTTL},
		},
		Ready: func(ctx context.Context) error {
			for _, check := range ready {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", zap.String("addr", cfg.HTTPAddr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		prod.Close()
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown_failed", zap.Error(err))
	}
	prod.Close() // flush queued events
	return nil
}

func poolOptions(cfg config.Config) postgres.PoolOptions {
	return postgres.PoolOptions{
		MaxConns:          cfg.PostgresPool.MaxConns,
		MinConns:          cfg.PostgresPool.MinConns,
		MaxConnIdleTime:   cfg.PostgresPool.MaxConnIdleTime,
		HealthCheckPeriod: cfg.PostgresPool.HealthCheckPeriod,
	}
}
