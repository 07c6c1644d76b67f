// QueryForge Worker — C6's consumer half. Pulls queued jobs off the
// Redis Streams broker, drives each through the C5 pipeline graph, and
// writes the terminal run record. Stateless w.r.t. run metadata:
// everything needed to execute is rehydrated from the database by id.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/queryforge/core/internal/broker"
	"github.com/queryforge/core/internal/cache"
	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/connection"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/embedder"
	"github.com/queryforge/core/internal/history"
	"github.com/queryforge/core/internal/modelclient"
	"github.com/queryforge/core/internal/pipeline"
	"github.com/queryforge/core/internal/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Server.Environment == "development" {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Database connection required:", err)
	}
	defer db.Close()

	redisAddr := strings.TrimPrefix(cfg.Redis.URL, "redis://")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatal("Redis connection required for the job broker:", err)
	}
	pingCancel()

	jobBroker := broker.New(redisClient, time.Duration(cfg.Run.TimeoutDefaultSeconds+cfg.Run.BrokerVisibilityGrace)*time.Second, cfg.Run.BrokerMaxRetries)
	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := jobBroker.EnsureGroup(ensureCtx); err != nil {
		log.Fatal("Failed to ensure broker consumer group:", err)
	}
	ensureCancel()

	embed := embedder.New(cfg.Embedder)
	embeddingPool := history.NewEmbeddingPool(cfg.Worker.Concurrency, db, embed, cfg.History.EmbeddingModel, 2)
	defer embeddingPool.Shutdown()

	deps := &pipeline.Deps{
		DB:          db,
		Registry:    registry.New(),
		Pool:        connection.NewPool(),
		Cache:       cache.New(redisClient, db, time.Duration(cfg.Cache.TTLSeconds)*time.Second),
		History:     history.NewStore(db, cfg.History.LexicalFallbackLimit, embeddingPool),
		ModelClient: modelclient.New(cfg.ModelHTTP),
		Embedder:    embed,
		Config:      cfg,
	}
	defer deps.Pool.Close()

	graph := pipeline.NewGraph(deps)

	consumerID := fmt.Sprintf("worker-%d", os.Getpid())
	runTimeout := time.Duration(cfg.Run.TimeoutDefaultSeconds) * time.Second
	w := broker.NewWorker(jobBroker, graph, deps, consumerID, cfg.Worker.Concurrency, runTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		slog.Info("Shutting down worker...", "consumer_id", consumerID)
		cancel()
	}()

	slog.Info("Worker started", "consumer_id", consumerID, "concurrency", cfg.Worker.Concurrency)
	w.Run(ctx)
	slog.Info("Worker shutdown complete", "consumer_id", consumerID)
}
