package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"todoshare/internal/cache"
	"todoshare/internal/config"
	"todoshare/internal/controller"
	"todoshare/internal/database"
	"todoshare/internal/queue"
	"todoshare/internal/realtime"
	"todoshare/internal/repository"
	"todoshare/internal/routes"
	"todoshare/internal/worker"
	"todoshare/pkg/logger"
)

func main() {
	// .env never overrides the real environment
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	logger.SetLevel(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error(ctx, "Invalid configuration", "error", err)
		os.Exit(1)
	}

	db := database.DB(ctx)
	if db == nil {
		logger.Error(ctx, "Database not available; exiting")
		os.Exit(1)
	}
	if err := database.MigrateOrCreateSchema(ctx); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it every list read goes to Postgres
	lists := cache.NewLists(cache.Client(ctx), cfg.CacheTTLDuration())

	hub := realtime.NewHub(cfg.RealtimeBuffer)
	dispatcher := worker.NewDispatcher(hub)
	var publisher controller.Publisher = dispatcher
	if cfg.KafkaEnabled() {
		queue.EnsureTopic(ctx, cfg)
		p := queue.NewPublisher(queue.NewWriter(cfg))
		defer p.Close()
		publisher = p
		// Every replica consumes the whole feed and serves its own streams
		go worker.Run(ctx, worker.NewReader(cfg), dispatcher)
	} else {
		logger.Info(ctx, "Kafka disabled; realtime changes stay in-process")
	}

	h := controller.New(controller.Deps{
		Tasks:     repository.NewTasks(db),
		Notes:     repository.NewNotes(db),
		Profiles:  repository.NewProfiles(db),
		Lists:     lists,
		Publisher: publisher,
		Hub:       hub,
		Checks: []controller.Check{
			{Name: "database", Ping: database.Ping},
			{Name: "redis", Ping: lists.Ping},
		},
	})

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(h, routes.Settings{APIKey: cfg.APIKey, JWTSecret: cfg.JWTSecret}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Open realtime streams would hold Shutdown until the deadline
	server.RegisterOnShutdown(func() { hub.CloseAll() })
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	_ = db.Close()
	logger.Info(ctx, "Server stopped")
}
