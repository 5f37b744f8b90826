package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBPath            string
	LogLevel          string
	RedisAddr         string
	QuizCacheTTL      time.Duration
	NotifyWorkerCount int
	NotifyQueueSize   int
	LeaderboardTopN   int
	AnswerEpsilon     float64
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBPath:            envOr("DB_PATH", "file:assessment.db"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		RedisAddr:         envOr("REDIS_ADDR", ""),
		QuizCacheTTL:      envDurationOr("QUIZ_CACHE_TTL", 5*time.Minute),
		NotifyWorkerCount: envIntOr("NOTIFY_WORKER_COUNT", 2),
		NotifyQueueSize:   envIntOr("NOTIFY_QUEUE_SIZE", 32),
		LeaderboardTopN:   envIntOr("LEADERBOARD_TOP_N", 10),
		AnswerEpsilon:     envFloatOr("ANSWER_EPSILON", 0.001),
	}
}

// Validate checks the configuration for values the server cannot start with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.NotifyWorkerCount <= 0 {
		return fmt.Errorf("NOTIFY_WORKER_COUNT must be positive")
	}
	if c.LeaderboardTopN <= 0 {
		return fmt.Errorf("LEADERBOARD_TOP_N must be positive")
	}
	if c.AnswerEpsilon <= 0 {
		return fmt.Errorf("ANSWER_EPSILON must be positive")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
