package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mathrush/engine/internal/api"
	"github.com/mathrush/engine/internal/cache"
	"github.com/mathrush/engine/internal/config"
	"github.com/mathrush/engine/internal/db"
	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/notify"
	"github.com/mathrush/engine/internal/repository"
	"github.com/mathrush/engine/internal/repository/sqlite"
	"github.com/mathrush/engine/internal/services"
	"github.com/mathrush/engine/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("Assessment Engine Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("redis_addr=%s", cfg.RedisAddr)
	log.Debug("quiz_cache_ttl=%s", cfg.QuizCacheTTL)
	log.Debug("notify_worker_count=%d", cfg.NotifyWorkerCount)
	log.Debug("notify_queue_size=%d", cfg.NotifyQueueSize)
	log.Debug("leaderboard_top_n=%d", cfg.LeaderboardTopN)
	log.Debug("answer_epsilon=%g", cfg.AnswerEpsilon)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Repositories
	questionRepo := sqlite.NewQuestionRepository(database)
	attemptRepo := sqlite.NewAttemptRepository(database)
	leaderboardRepo := sqlite.NewLeaderboardRepository(database)
	competitionRepo := sqlite.NewCompetitionRepository(database)
	quizAttemptRepo := sqlite.NewQuizAttemptRepository(database)

	var quizRepo repository.QuizRepository = sqlite.NewQuizRepository(database)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, quiz cache disabled: %v", err)
		} else {
			log.Info("quiz cache enabled: redis=%s, ttl=%s", cfg.RedisAddr, cfg.QuizCacheTTL)
			quizRepo = cache.NewQuizCache(redisClient, quizRepo, cfg.QuizCacheTTL)
		}
	}

	// Notification pool
	notifyPool := worker.NewPool(cfg.NotifyWorkerCount, cfg.NotifyQueueSize)
	dispatcher := notify.NewDispatcher(notifyPool, notify.LogAnnouncer{})

	// Initialize services
	leaderboardService := services.NewLeaderboardService(leaderboardRepo, attemptRepo)
	gameService := services.NewGameService(questionRepo, attemptRepo, leaderboardService, cfg.AnswerEpsilon, cfg.LeaderboardTopN)
	quizService := services.NewQuizService(quizRepo, quizAttemptRepo)
	competitionService := services.NewCompetitionService(competitionRepo, dispatcher)

	srv := &api.Server{
		GameService:        gameService,
		QuizService:        quizService,
		LeaderboardService: leaderboardService,
		CompetitionService: competitionService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifyPool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping notification pool")
	cancel()
	notifyPool.Stop()

	if redisClient != nil {
		log.Debug("closing redis client")
		redisClient.Close()
	}

	log.Info("===========================================")
	log.Info("Assessment Engine Stopped")
	log.Info("===========================================")
}
