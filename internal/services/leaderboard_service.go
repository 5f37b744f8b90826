package services

import (
	"context"
	"time"

	"github.com/mathrush/engine/internal/errors"
	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
)

// LeaderboardService maintains per-scope best scores and serves rankings.
type LeaderboardService interface {
	// RecordCompletion upserts the best-score entry for a completed attempt.
	RecordCompletion(ctx context.Context, attempt *models.GameAttempt, displayName, externalID string) error
	// Recompute re-derives one scope entry from the user's remaining
	// completed attempts. The only path allowed to lower a best score.
	Recompute(ctx context.Context, attempt *models.GameAttempt) error
	Top(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, error)
	GlobalTop(ctx context.Context, limit int) ([]models.GlobalLeaderboardEntry, error)
}

type leaderboardService struct {
	entries  repository.LeaderboardRepository
	attempts repository.AttemptRepository
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(entries repository.LeaderboardRepository, attempts repository.AttemptRepository) LeaderboardService {
	return &leaderboardService{entries: entries, attempts: attempts}
}

func (s *leaderboardService) RecordCompletion(ctx context.Context, attempt *models.GameAttempt, displayName, externalID string) error {
	log := logger.FromContext(ctx)

	lastPlayed := time.Now()
	if attempt.EndedAt != nil {
		lastPlayed = *attempt.EndedAt
	}

	err := s.entries.UpsertBest(ctx, models.LeaderboardEntry{
		MathTypeID:   attempt.MathTypeID,
		Difficulty:   attempt.Difficulty,
		SchoolID:     attempt.SchoolID,
		UserID:       attempt.UserID,
		HighestScore: attempt.Score,
		LastPlayedAt: lastPlayed,
		DisplayName:  displayName,
		ExternalID:   externalID,
	})
	if err != nil {
		log.Error("failed to record completion on leaderboard: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *leaderboardService) Recompute(ctx context.Context, attempt *models.GameAttempt) error {
	log := logger.FromContext(ctx)
	log.Debug("recomputing leaderboard entry: user_id=%d, math_type_id=%d, difficulty=%s",
		attempt.UserID, attempt.MathTypeID, attempt.Difficulty)

	best, _, ok, err := s.attempts.BestCompletedScore(ctx, attempt.UserID, attempt.MathTypeID, attempt.Difficulty, attempt.SchoolID)
	if err != nil {
		log.Error("failed to rescan completed attempts: %v", err)
		return errors.NewInternalError(err)
	}
	if !ok {
		best = 0
	}

	if err := s.entries.SetScore(ctx, attempt.MathTypeID, attempt.Difficulty, attempt.SchoolID, attempt.UserID, best); err != nil {
		log.Error("failed to write recomputed score: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("leaderboard entry recomputed: user_id=%d, math_type_id=%d, score=%d", attempt.UserID, attempt.MathTypeID, best)
	return nil
}

func (s *leaderboardService) Top(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, error) {
	entries, err := s.entries.Top(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query leaderboard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return entries, nil
}

func (s *leaderboardService) GlobalTop(ctx context.Context, limit int) ([]models.GlobalLeaderboardEntry, error) {
	entries, err := s.entries.GlobalTop(ctx, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query global leaderboard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return entries, nil
}
