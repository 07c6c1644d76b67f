// QueryForge API Gateway
//
// The API façade: authenticates users, exposes CRUD over Connections,
// Agents, and ChatSessions, and fronts the Run Controller (C7). It never
// runs the pipeline itself — create_run only enqueues a job; a separate
// worker process (cmd/worker) drains the broker and drives C5.
//
// STARTUP SEQUENCE:
//  1. Load configuration from environment variables / .env
//  2. Structured logging
//  3. Connect to PostgreSQL, run migrations
//  4. Connect to Redis (cache + broker backing store)
//  5. Construct the ambient stack: model client, embedder, job broker,
//     run controller, validation harness
//  6. Wire handlers, register routes, serve
//  7. Graceful shutdown
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

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/queryforge/core/internal/auth"
	"github.com/queryforge/core/internal/broker"
	"github.com/queryforge/core/internal/config"
	"github.com/queryforge/core/internal/database"
	"github.com/queryforge/core/internal/embedder"
	"github.com/queryforge/core/internal/handlers"
	"github.com/queryforge/core/internal/middleware"
	"github.com/queryforge/core/internal/modelclient"
	"github.com/queryforge/core/internal/runcontroller"
	"github.com/queryforge/core/internal/validation"
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

	slog.Info("Connecting to PostgreSQL database")
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Database connection required:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
	}

	redisAddr := strings.TrimPrefix(cfg.Redis.URL, "redis://")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "error", err)
		log.Fatal("Redis connection required for the cache tier and job broker:", err)
	}
	pingCancel()
	slog.Info("Redis connection established", "addr", redisAddr)

	modelClient := modelclient.New(cfg.ModelHTTP)
	embed := embedder.New(cfg.Embedder)

	jobBroker := broker.New(redisClient, time.Duration(cfg.Run.BrokerVisibilityGrace)*time.Second, cfg.Run.BrokerMaxRetries)
	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := jobBroker.EnsureGroup(ensureCtx); err != nil {
		slog.Error("Failed to ensure broker consumer group", "error", err)
	}
	ensureCancel()

	runController := runcontroller.New(db, jobBroker)

	authService := auth.NewAuthService(db)
	authHandler := handlers.NewAuthHandler(authService)
	connectionsHandler := handlers.NewConnectionsHandler(db)
	agentsHandler := handlers.NewAgentsHandler(db, runController)
	chatSessionsHandler := handlers.NewChatSessionsHandler(db)
	runsHandler := handlers.NewRunsHandler(runController)
	validationHandler := handlers.NewValidationHandler(db, validation.NewHarness(cfg.ModelHTTP, db))
	healthHandler := handlers.NewHealthHandler(cfg, db, modelClient, embed)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/api/health", healthHandler.HandleHealth)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.HandleSignup)
	authGroup.Post("/login", authHandler.HandleLogin)
	authGroup.Post("/logout", auth.RequireAuth(authService), authHandler.HandleLogout)
	authGroup.Post("/logout-all", auth.RequireAuth(authService), authHandler.HandleLogoutAll)
	authGroup.Get("/me", auth.RequireAuth(authService), authHandler.HandleGetProfile)
	authGroup.Put("/profile", auth.RequireAuth(authService), authHandler.HandleUpdateProfile)
	authGroup.Get("/check-email", authHandler.HandleCheckEmail)

	connGroup := api.Group("/connections", auth.RequireAuth(authService))
	connGroup.Post("/test", connectionsHandler.HandleTest)
	connGroup.Post("/", connectionsHandler.HandleCreate)
	connGroup.Get("/", connectionsHandler.HandleList)
	connGroup.Get("/:id", connectionsHandler.HandleGet)
	connGroup.Delete("/:id", connectionsHandler.HandleDelete)

	agentGroup := api.Group("/agents", auth.RequireAuth(authService))
	agentGroup.Post("/", agentsHandler.HandleCreate)
	agentGroup.Get("/", agentsHandler.HandleList)
	agentGroup.Get("/:id", agentsHandler.HandleGet)
	agentGroup.Patch("/:id", agentsHandler.HandleUpdate)
	agentGroup.Put("/:id", agentsHandler.HandleUpdate)
	agentGroup.Delete("/:id", agentsHandler.HandleDelete)
	agentGroup.Post("/:id/run", agentsHandler.HandleRun)
	agentGroup.Get("/:id/chat-sessions", agentsHandler.HandleChatSessions)

	sessionGroup := api.Group("/chat-sessions", auth.RequireAuth(authService))
	sessionGroup.Post("/", chatSessionsHandler.HandleCreate)
	sessionGroup.Get("/", chatSessionsHandler.HandleList)
	sessionGroup.Get("/:id", chatSessionsHandler.HandleGet)
	sessionGroup.Put("/:id", chatSessionsHandler.HandleRename)
	sessionGroup.Delete("/:id", chatSessionsHandler.HandleDelete)
	sessionGroup.Get("/:id/messages", chatSessionsHandler.HandleMessages)

	runGroup := api.Group("/runs", auth.RequireAuth(authService))
	runGroup.Post("/", runsHandler.HandleCreate)
	runGroup.Get("/", runsHandler.HandleList)
	runGroup.Get("/:id", runsHandler.HandleGet)
	runGroup.Post("/:id/cancel", runsHandler.HandleCancel)
	runGroup.Post("/:id/validate", validationHandler.HandleScore)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		slog.Info("Shutting down API server...")
		if err := db.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
		if err := app.Shutdown(); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		slog.Info("API server shutdown complete")
		os.Exit(0)
	}()

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	slog.Info("Starting QueryForge API server", "address", addr, "environment", cfg.Server.Environment)
	if err := app.Listen(addr); err != nil {
		slog.Error("Server failed to start", "error", err)
		log.Fatal(err)
	}
}
