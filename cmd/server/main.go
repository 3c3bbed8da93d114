package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/aiclient"
	"github.com/itemforge/itemforge-backend/internal/config"
	"github.com/itemforge/itemforge-backend/internal/database"
	"github.com/itemforge/itemforge-backend/internal/handler"
	"github.com/itemforge/itemforge-backend/internal/logger"
	"github.com/itemforge/itemforge-backend/internal/repository"
	"github.com/itemforge/itemforge-backend/internal/router"
	"github.com/itemforge/itemforge-backend/internal/service"
	"github.com/itemforge/itemforge-backend/internal/validator"
	"github.com/itemforge/itemforge-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ItemForge Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	materialRepo := repository.NewMaterialRepository(pool)
	kpRepo := repository.NewKnowledgePointRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	// ─── Initialize AI Clients ─────────────────────────────────────────
	generator := aiclient.NewGenerator(cfg.AI)
	scorer := aiclient.NewScorer(cfg.AI)

	// ─── Initialize Services ──────────────────────────────────────────
	queue := worker.NewQueue(rdb)

	authService := service.NewAuthService(cfg, userRepo)
	materialService := service.NewMaterialService(materialRepo, kpRepo)
	taskService := service.NewTaskService(taskRepo, materialRepo, kpRepo, questionRepo, queue, log)
	questionService := service.NewQuestionService(questionRepo)
	reviewEngine := service.NewReviewEngine(scorer, log)
	reviewService := service.NewReviewService(questionRepo, reviewEngine, cfg.AIReviewStrict, log)
	batchService := service.NewBatchService(questionRepo, reviewEngine, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Material: handler.NewMaterialHandler(materialService),
		Task:     handler.NewTaskHandler(taskService),
		Question: handler.NewQuestionHandler(questionService),
		Review:   handler.NewReviewHandler(reviewService, batchService),
	}

	// ─── Start Background Worker ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	generationWorker := worker.NewGenerationWorker(
		queue, taskRepo, materialRepo, kpRepo, generator, rdb, cfg.Worker, log)

	go generationWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the worker and wait for in-flight tasks to settle.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
