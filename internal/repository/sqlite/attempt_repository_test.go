package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
	"github.com/mathrush/engine/internal/repository/sqlite"
	"github.com/mathrush/engine/internal/testutil"
)

type AttemptRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.AttemptRepository
}

func (s *AttemptRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewAttemptRepository(s.db)
}

func (s *AttemptRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *AttemptRepositorySuite) newAttempt() models.GameAttempt {
	return models.GameAttempt{
		UserID:     1,
		MathTypeID: 2,
		Difficulty: models.DifficultyEasy,
		Questions: []models.AttemptQuestion{
			{QuestionID: 10, Text: "2+2", CanonicalAnswer: "4", TimeLimitSeconds: 20, Difficulty: models.DifficultyEasy},
			{QuestionID: 11, Text: "3+3", CanonicalAnswer: "6", TimeLimitSeconds: 20, Difficulty: models.DifficultyEasy},
		},
		StartedAt: time.Now(),
		Version:   1,
	}
}

func (s *AttemptRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()

	id, err := s.repo.Insert(ctx, s.newAttempt())
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	got, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Assert().Equal(int64(1), got.UserID)
	s.Assert().Equal(int64(2), got.MathTypeID)
	s.Assert().Len(got.Questions, 2)
	s.Assert().Equal("4", got.Questions[0].CanonicalAnswer)
	s.Assert().Equal(int64(1), got.Version)
	s.Assert().False(got.Completed)
}

func (s *AttemptRepositorySuite) TestGetMissingReturnsNil() {
	got, err := s.repo.Get(context.Background(), 12345)
	s.Require().NoError(err)
	s.Assert().Nil(got)
}

func (s *AttemptRepositorySuite) TestUpdateBumpsVersion() {
	ctx := context.Background()

	id, err := s.repo.Insert(ctx, s.newAttempt())
	s.Require().NoError(err)

	attempt, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)

	attempt.RunningScore = 1
	correct := true
	attempt.Questions[0].Correct = &correct
	s.Require().NoError(s.repo.Update(ctx, *attempt))

	got, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(1, got.RunningScore)
	s.Assert().Equal(int64(2), got.Version)
	s.Require().NotNil(got.Questions[0].Correct)
	s.Assert().True(*got.Questions[0].Correct)
}

func (s *AttemptRepositorySuite) TestUpdateStaleVersionConflicts() {
	ctx := context.Background()

	id, err := s.repo.Insert(ctx, s.newAttempt())
	s.Require().NoError(err)

	first, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	second, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)

	first.RunningScore = 1
	s.Require().NoError(s.repo.Update(ctx, *first))

	// The second writer still holds the old version.
	second.RunningScore = 5
	err = s.repo.Update(ctx, *second)
	s.Assert().ErrorIs(err, repository.ErrVersionConflict)

	got, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(1, got.RunningScore)
}

func (s *AttemptRepositorySuite) TestSetScoreOverwrites() {
	ctx := context.Background()

	attempt := s.newAttempt()
	attempt.RunningScore = 7
	attempt.Score = 7
	id, err := s.repo.Insert(ctx, attempt)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.SetScore(ctx, id, 0))

	got, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(0, got.Score)
	s.Assert().Equal(0, got.RunningScore)
}

func (s *AttemptRepositorySuite) completeAttempt(ctx context.Context, id int64, score int, endedAt time.Time) {
	attempt, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	attempt.Score = score
	attempt.RunningScore = score
	attempt.Completed = true
	attempt.EndedAt = &endedAt
	s.Require().NoError(s.repo.Update(ctx, *attempt))
}

func (s *AttemptRepositorySuite) TestBestCompletedScore() {
	ctx := context.Background()

	// No completed attempts yet.
	_, _, ok, err := s.repo.BestCompletedScore(ctx, 1, 2, models.DifficultyEasy, 0)
	s.Require().NoError(err)
	s.Assert().False(ok)

	id1, err := s.repo.Insert(ctx, s.newAttempt())
	s.Require().NoError(err)
	id2, err := s.repo.Insert(ctx, s.newAttempt())
	s.Require().NoError(err)

	s.completeAttempt(ctx, id1, 5, time.Now().Add(-time.Hour))
	s.completeAttempt(ctx, id2, 8, time.Now())

	best, lastPlayed, ok, err := s.repo.BestCompletedScore(ctx, 1, 2, models.DifficultyEasy, 0)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Assert().Equal(8, best)
	s.Assert().WithinDuration(time.Now(), lastPlayed, time.Minute)
}

func TestAttemptRepositorySuite(t *testing.T) {
	suite.Run(t, new(AttemptRepositorySuite))
}
