package sqlite_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
	"github.com/mathrush/engine/internal/repository/sqlite"
	"github.com/mathrush/engine/internal/testutil"
)

type LeaderboardRepositorySuite struct {
	suite.Suite
	db       *sql.DB
	repo     repository.LeaderboardRepository
	attempts repository.AttemptRepository
}

func (s *LeaderboardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewLeaderboardRepository(s.db)
	s.attempts = sqlite.NewAttemptRepository(s.db)
}

func (s *LeaderboardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *LeaderboardRepositorySuite) entry(userID int64, score int, playedAt time.Time) models.LeaderboardEntry {
	return models.LeaderboardEntry{
		MathTypeID:   1,
		Difficulty:   models.DifficultyEasy,
		UserID:       userID,
		HighestScore: score,
		LastPlayedAt: playedAt,
		DisplayName:  "player",
	}
}

func (s *LeaderboardRepositorySuite) TestUpsertBestKeepsMax() {
	ctx := context.Background()

	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(1, 5, time.Now().Add(-time.Hour))))
	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(1, 8, time.Now().Add(-30*time.Minute))))
	// A lower score must not overwrite the best, but the activity timestamp
	// still refreshes.
	later := time.Now()
	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(1, 3, later)))

	entries, err := s.repo.Top(ctx, models.LeaderboardFilter{MathTypeID: 1, Difficulty: models.DifficultyEasy})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Assert().Equal(8, entries[0].HighestScore)
	s.Assert().WithinDuration(later, entries[0].LastPlayedAt, time.Second)
}

func (s *LeaderboardRepositorySuite) TestUpsertBestConcurrentUpsertsKeepMax() {
	ctx := context.Background()

	// Two completions for the same scope key land at the same time. Whichever
	// order the statements execute in, the max must survive.
	scores := []int{5, 8}
	errs := make(chan error, len(scores))
	var wg sync.WaitGroup
	for _, score := range scores {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			errs <- s.repo.UpsertBest(ctx, s.entry(1, score, time.Now()))
		}(score)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	entries, err := s.repo.Top(ctx, models.LeaderboardFilter{MathTypeID: 1, Difficulty: models.DifficultyEasy})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Assert().Equal(8, entries[0].HighestScore)
}

func (s *LeaderboardRepositorySuite) TestSetScoreLowersEntry() {
	ctx := context.Background()

	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(1, 9, time.Now())))
	s.Require().NoError(s.repo.SetScore(ctx, 1, models.DifficultyEasy, 0, 1, 0))

	entries, err := s.repo.Top(ctx, models.LeaderboardFilter{MathTypeID: 1, Difficulty: models.DifficultyEasy})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Assert().Equal(0, entries[0].HighestScore)
}

func (s *LeaderboardRepositorySuite) TestTopOrderingAndTieBreak() {
	ctx := context.Background()
	now := time.Now()

	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(1, 5, now)))
	// Same score achieved earlier ranks first.
	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(2, 5, now.Add(-time.Hour))))
	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(3, 9, now)))

	entries, err := s.repo.Top(ctx, models.LeaderboardFilter{MathTypeID: 1, Difficulty: models.DifficultyEasy})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Assert().Equal(int64(3), entries[0].UserID)
	s.Assert().Equal(int64(2), entries[1].UserID)
	s.Assert().Equal(int64(1), entries[2].UserID)
}

func (s *LeaderboardRepositorySuite) TestTopPeriodFilter() {
	ctx := context.Background()

	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(1, 5, time.Now().Add(-48*time.Hour))))
	s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(2, 3, time.Now())))

	entries, err := s.repo.Top(ctx, models.LeaderboardFilter{
		MathTypeID: 1,
		Difficulty: models.DifficultyEasy,
		Period:     models.PeriodDaily,
	})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Assert().Equal(int64(2), entries[0].UserID)
}

func (s *LeaderboardRepositorySuite) TestTopRespectsLimit() {
	ctx := context.Background()

	for i := int64(1); i <= 15; i++ {
		s.Require().NoError(s.repo.UpsertBest(ctx, s.entry(i, int(i), time.Now())))
	}

	entries, err := s.repo.Top(ctx, models.LeaderboardFilter{MathTypeID: 1, Difficulty: models.DifficultyEasy, Limit: 3})
	s.Require().NoError(err)
	s.Assert().Len(entries, 3)
	s.Assert().Equal(15, entries[0].HighestScore)

	// Default limit is 10.
	entries, err = s.repo.Top(ctx, models.LeaderboardFilter{MathTypeID: 1, Difficulty: models.DifficultyEasy})
	s.Require().NoError(err)
	s.Assert().Len(entries, 10)
}

func (s *LeaderboardRepositorySuite) insertCompleted(ctx context.Context, userID, mathTypeID int64, score int) {
	endedAt := time.Now()
	id, err := s.attempts.Insert(ctx, models.GameAttempt{
		UserID:     userID,
		MathTypeID: mathTypeID,
		Difficulty: models.DifficultyEasy,
		Questions:  []models.AttemptQuestion{},
		StartedAt:  time.Now(),
		Version:    1,
	})
	s.Require().NoError(err)

	attempt, err := s.attempts.Get(ctx, id)
	s.Require().NoError(err)
	attempt.Score = score
	attempt.RunningScore = score
	attempt.Completed = true
	attempt.EndedAt = &endedAt
	s.Require().NoError(s.attempts.Update(ctx, *attempt))
}

func (s *LeaderboardRepositorySuite) TestGlobalTopSumsBestPerMathType() {
	ctx := context.Background()

	// User 1: best 8 on math type 1 (two attempts, only the max counts),
	// best 4 on math type 2. Total 12.
	s.insertCompleted(ctx, 1, 1, 5)
	s.insertCompleted(ctx, 1, 1, 8)
	s.insertCompleted(ctx, 1, 2, 4)
	// User 2: a single 10 on math type 1.
	s.insertCompleted(ctx, 2, 1, 10)

	entries, err := s.repo.GlobalTop(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Assert().Equal(int64(1), entries[0].UserID)
	s.Assert().Equal(12, entries[0].TotalScore)
	s.Assert().Equal(int64(2), entries[1].UserID)
	s.Assert().Equal(10, entries[1].TotalScore)
}

func TestLeaderboardRepositorySuite(t *testing.T) {
	suite.Run(t, new(LeaderboardRepositorySuite))
}
