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

type CompetitionRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.CompetitionRepository
}

func (s *CompetitionRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewCompetitionRepository(s.db)
}

func (s *CompetitionRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *CompetitionRepositorySuite) newCompetition(ctx context.Context) int64 {
	id, err := s.repo.Insert(ctx, models.Competition{
		Title:     "Spring Sprint",
		StartAt:   time.Now().Add(-time.Hour),
		EndAt:     time.Now().Add(time.Hour),
		CreatedBy: 99,
		CreatedAt: time.Now(),
	})
	s.Require().NoError(err)
	return id
}

func (s *CompetitionRepositorySuite) addDelta(ctx context.Context, competitionID, userID int64, delta int, at time.Time) {
	_, err := s.repo.InsertResult(ctx, models.CompetitionResult{
		CompetitionID: competitionID,
		UserID:        userID,
		Delta:         delta,
		Reason:        "test",
		CreatedAt:     at,
	})
	s.Require().NoError(err)
}

func (s *CompetitionRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	id := s.newCompetition(ctx)

	got, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Assert().Equal("Spring Sprint", got.Title)
	s.Assert().Equal(int64(99), got.CreatedBy)
	s.Assert().False(got.Finalized)

	missing, err := s.repo.Get(ctx, id+100)
	s.Require().NoError(err)
	s.Assert().Nil(missing)
}

func (s *CompetitionRepositorySuite) TestMarkFinalized() {
	ctx := context.Background()
	id := s.newCompetition(ctx)

	s.Require().NoError(s.repo.MarkFinalized(ctx, id))

	got, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().True(got.Finalized)
}

func (s *CompetitionRepositorySuite) TestTotalsSumsAndOrders() {
	ctx := context.Background()
	id := s.newCompetition(ctx)
	now := time.Now()

	// User 1 nets 7, user 2 nets 10, user 3 nets 7 but joined earlier.
	s.addDelta(ctx, id, 1, 10, now)
	s.addDelta(ctx, id, 1, -3, now.Add(time.Minute))
	s.addDelta(ctx, id, 2, 10, now.Add(2*time.Minute))
	s.addDelta(ctx, id, 3, 7, now.Add(-time.Hour))

	totals, err := s.repo.Totals(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(totals, 3)
	s.Assert().Equal(int64(2), totals[0].UserID)
	s.Assert().Equal(10, totals[0].Total)
	// Tie on 7 points: earlier first delta ranks first.
	s.Assert().Equal(int64(3), totals[1].UserID)
	s.Assert().Equal(int64(1), totals[2].UserID)
}

func (s *CompetitionRepositorySuite) TestDeleteResults() {
	ctx := context.Background()
	id := s.newCompetition(ctx)
	now := time.Now()

	s.addDelta(ctx, id, 1, 5, now)
	s.addDelta(ctx, id, 2, 3, now)

	deleted, err := s.repo.DeleteResults(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(int64(2), deleted)

	totals, err := s.repo.Totals(ctx, id)
	s.Require().NoError(err)
	s.Assert().Empty(totals)
}

func (s *CompetitionRepositorySuite) TestDeleteUserResults() {
	ctx := context.Background()
	id := s.newCompetition(ctx)
	now := time.Now()

	s.addDelta(ctx, id, 1, 5, now)
	s.addDelta(ctx, id, 1, 2, now)
	s.addDelta(ctx, id, 2, 3, now)

	deleted, err := s.repo.DeleteUserResults(ctx, id, 1)
	s.Require().NoError(err)
	s.Assert().Equal(int64(2), deleted)

	totals, err := s.repo.Totals(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(totals, 1)
	s.Assert().Equal(int64(2), totals[0].UserID)
}

func TestCompetitionRepositorySuite(t *testing.T) {
	suite.Run(t, new(CompetitionRepositorySuite))
}
