package config_test

import (
	"testing"
	"time"

	"github.com/mathrush/engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() config.Config {
	return config.Config{
		Addr:              ":8080",
		DBPath:            "test.db",
		LogLevel:          "INFO",
		QuizCacheTTL:      5 * time.Minute,
		NotifyWorkerCount: 2,
		NotifyQueueSize:   32,
		LeaderboardTopN:   10,
		AnswerEpsilon:     0.001,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_NonPositiveEpsilon(t *testing.T) {
	cfg := validConfig()
	cfg.AnswerEpsilon = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANSWER_EPSILON")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("LEADERBOARD_TOP_N", "")
	t.Setenv("ANSWER_EPSILON", "")

	cfg := config.Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "file:assessment.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.LeaderboardTopN)
	assert.InDelta(t, 0.001, cfg.AnswerEpsilon, 1e-9)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("LEADERBOARD_TOP_N", "not-a-number")

	cfg := config.Load()
	assert.Equal(t, 10, cfg.LeaderboardTopN)
}
