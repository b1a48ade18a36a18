package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"driftapp.dev/drift/common/id"
	"driftapp.dev/drift/common/llm"
	"driftapp.dev/drift/common/logger"
	"driftapp.dev/drift/common/otel"
	"driftapp.dev/drift/core/config"
	"driftapp.dev/drift/core/db"
	"driftapp.dev/drift/internal/gateway"
	"driftapp.dev/drift/internal/queue"
	"driftapp.dev/drift/internal/service"
	"driftapp.dev/drift/internal/store"
	"driftapp.dev/drift/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "drift worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Jobs.Group,
		"consumer_name", cfg.Jobs.Consumer)

	// Different node ID than the server so IDs never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(cfg.DB.DSN); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database connected and migrated")

	redisOpts, err := redis.ParseURL(cfg.Jobs.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Jobs.Stream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Jobs.Stream,
		Group:        cfg.Jobs.Group,
		Consumer:     cfg.Jobs.Consumer,
		DLQStream:    cfg.Jobs.DLQStream,
		BatchSize:    1, // one org-level job at a time
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Jobs.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	llmClient, err := llm.New(llm.Config{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	var notion gateway.NotionGateway
	if cfg.Notion.Enabled() {
		notion = gateway.NewNotionGateway(cfg.Notion.APIKey)
	}

	stores := store.NewStores(database.Pool())
	services := service.NewServices(
		stores,
		service.NewTxRunner(database),
		llmClient,
		notion,
		gateway.NewSlackGateway,
		gateway.NewLinearGateway,
		service.NewRedisLocker(redisClient),
		cfg.DashboardURL,
		nil,
	)

	producer := queue.NewRedisProducer(redisClient, cfg.Jobs.Stream, nil)

	w := worker.New(consumer, services.Batch(), worker.Config{
		MaxAttempts: cfg.Jobs.MaxAttempts,
	})

	scheduler := worker.NewScheduler(stores.Organizations(), producer, cfg.Schedule, nil)
	if err := scheduler.Start(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to start scheduler", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	scheduler.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
██████╗ ██████╗ ██╗███████╗████████╗    ██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██╔══██╗██╔══██╗██║██╔════╝╚══██╔══╝    ██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
██║  ██║██████╔╝██║█████╗     ██║       ██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
██║  ██║██╔══██╗██║██╔══╝     ██║       ██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
██████╔╝██║  ██║██║██║        ██║       ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
╚═════╝ ╚═╝  ╚═╝╚═╝╚═╝        ╚═╝        ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
