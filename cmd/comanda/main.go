package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jazmin7552/p2/cmd/comanda/cli"
	"github.com/jazmin7552/p2/internal/app"
	"github.com/jazmin7552/p2/internal/events"
	"github.com/jazmin7552/p2/internal/observability"
	"github.com/jazmin7552/p2/internal/platform/cache"
	"github.com/jazmin7552/p2/internal/platform/db"
	"github.com/jazmin7552/p2/internal/platform/memstore"
	"github.com/jazmin7552/p2/jobs"
	"github.com/jazmin7552/p2/migrations"
)

const usage = `usage: comanda [serve | migrate | jobs trigger <low-stock-scan|dashboard-warmup> | jobs stats]`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}
	switch command {
	case "serve":
		err = serve(ctx, stop, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "jobs":
		err = runJobs(ctx, cfg, args[1:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error(command, slog.Any("error", err))
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return db.Migrate(ctx, pool, migrations.FS, logger)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) error {
	redisOpts, err := cache.Options(cfg.RedisAddr)
	if err != nil {
		return err
	}
	jobsCLI := cli.NewJobsCLI(jobs.RedisClientOpt(redisOpts))
	defer func() { _ = jobsCLI.Close() }()

	switch {
	case len(args) == 2 && args[0] == "trigger":
		info, err := jobsCLI.Trigger(ctx, args[1], cfg.LowStockThreshold)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s as %s\n", info.Type, info.ID)
		return nil
	case len(args) == 1 && args[0] == "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	}
	return errors.New(usage)
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	var (
		stores app.Stores
		pool   *pgxpool.Pool
	)
	switch cfg.StoreDriver {
	case app.StoreDriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		stores = app.MemoryStores(memstore.New())
	default:
		var err error
		pool, err = db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.PGMigrate {
			if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
				return err
			}
		}
		stores = app.PostgresStores(pool)
	}

	var redisClient redis.UniversalClient
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache and idempotency keys disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	publisher, err := app.NewPublisher(cfg)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	container := app.NewContainer(app.ContainerConfig{
		Config:    cfg,
		Logger:    logger,
		Stores:    stores,
		Redis:     redisClient,
		Publisher: publisher,
		Metrics:   metrics,
	})
	defer func(p events.Publisher) {
		if err := p.Close(); err != nil {
			logger.Warn("close event publishers", slog.Any("error", err))
		}
	}(container.Publisher)

	params := container.RouterParams(cfg, logger, metrics)
	if redisClient != nil {
		redisOpts, err := cache.Options(cfg.RedisAddr)
		if err != nil {
			return err
		}
		inspector := asynq.NewInspector(jobs.RedisClientOpt(redisOpts))
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		params.JobHandler = jobs.NewHandler(inspector, logger)
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("store", cfg.StoreDriver),
			slog.String("events", cfg.EventsDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
