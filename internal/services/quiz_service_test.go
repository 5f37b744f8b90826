package services_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/mathrush/engine/internal/errors"
	"github.com/mathrush/engine/internal/identity"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository/sqlite"
	"github.com/mathrush/engine/internal/services"
	"github.com/mathrush/engine/internal/testutil"
)

const quizFixture = `{
	"questions": [
		{"id": "q1", "type": "multiple", "prompt": "pick both", "choices": ["a", "b", "c"], "correct_answer": ["a", "b"], "points": 2},
		{"id": "q2", "type": "direct", "prompt": "capital of France?", "correct_answer": "Paris", "points": 10}
	],
	"duration_minutes": 30,
	"active": true
}`

type QuizServiceSuite struct {
	suite.Suite
	db      *sql.DB
	quiz    services.QuizService
	student identity.Caller
	teacher identity.Caller
}

func (s *QuizServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.quiz = services.NewQuizService(sqlite.NewQuizRepository(s.db), sqlite.NewQuizAttemptRepository(s.db))
	s.student = identity.Caller{UserID: 1, Role: identity.RoleStudent, ClassIDs: []int64{7}}
	s.teacher = identity.Caller{UserID: 90, Role: identity.RoleTeacher}
}

func (s *QuizServiceSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *QuizServiceSuite) insertQuiz(ctx context.Context, data string) int64 {
	res, err := s.db.ExecContext(ctx, `INSERT INTO quizzes (data) VALUES (?)`, data)
	s.Require().NoError(err)
	id, err := res.LastInsertId()
	s.Require().NoError(err)
	return id
}

func (s *QuizServiceSuite) assertCode(err error, code string) {
	s.T().Helper()
	var appErr *errors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Assert().Equal(code, appErr.Code)
}

func (s *QuizServiceSuite) TestStartSnapshotsQuiz() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)
	s.Assert().Equal(quizID, attempt.QuizID)
	s.Assert().Len(attempt.Questions, 2)
	s.Assert().Equal([]string{"q1", "q2"}, attempt.QuestionOrder)
	s.Assert().Equal(12, attempt.MaxScore)
	s.Assert().False(attempt.Submitted)
}

func (s *QuizServiceSuite) TestStartGuards() {
	ctx := context.Background()

	_, err := s.quiz.Start(ctx, s.student, 404)
	s.assertCode(err, errors.ErrCodeNotFound)

	inactiveID := s.insertQuiz(ctx, `{"questions": [], "active": false}`)
	_, err = s.quiz.Start(ctx, s.student, inactiveID)
	s.assertCode(err, errors.ErrCodeForbidden)

	restrictedID := s.insertQuiz(ctx, `{"questions": [], "class_ids": [99], "active": true}`)
	_, err = s.quiz.Start(ctx, s.student, restrictedID)
	s.assertCode(err, errors.ErrCodeForbidden)
}

func (s *QuizServiceSuite) TestStartResumesOpenAttempt() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	first, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	resumed, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)
	s.Assert().Equal(first.ID, resumed.ID)
}

func (s *QuizServiceSuite) TestSnapshotSurvivesQuizEdits() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	// Rewrite the quiz after the attempt started: new answer, new points.
	_, err = s.db.ExecContext(ctx, `UPDATE quizzes SET data = ? WHERE id = ?`, `{
		"questions": [{"id": "q2", "type": "direct", "prompt": "changed", "correct_answer": "London", "points": 1}],
		"active": true
	}`, quizID)
	s.Require().NoError(err)

	// Grading still follows the snapshot taken at start time.
	submitted, err := s.quiz.Submit(ctx, s.student, attempt.ID, []models.QuizAnswer{
		{QuestionID: "q2", Answer: models.TextAnswer("Paris")},
	})
	s.Require().NoError(err)
	s.Assert().Equal(10, submitted.Score)
	s.Assert().Equal(12, submitted.MaxScore)
}

func (s *QuizServiceSuite) TestSaveProgressMergesAnswers() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	saved, err := s.quiz.SaveProgress(ctx, s.student, attempt.ID, []models.QuizAnswer{
		{QuestionID: "q2", Answer: models.TextAnswer("Par")},
		{QuestionID: "unknown", Answer: models.TextAnswer("ignored")},
	}, 0)
	s.Require().NoError(err)
	s.Require().Len(saved.Answers, 1)
	s.Assert().Equal("Par", saved.Answers[0].Answer.Text)

	// A later save for the same question replaces, not appends.
	saved, err = s.quiz.SaveProgress(ctx, s.student, attempt.ID, []models.QuizAnswer{
		{QuestionID: "q2", Answer: models.TextAnswer("Paris")},
	}, 0)
	s.Require().NoError(err)
	s.Require().Len(saved.Answers, 1)
	s.Assert().Equal("Paris", saved.Answers[0].Answer.Text)
}

func (s *QuizServiceSuite) TestSaveProgressExtraTimeIsStaffOnly() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	_, err = s.quiz.SaveProgress(ctx, s.student, attempt.ID, nil, 15)
	s.assertCode(err, errors.ErrCodeForbidden)

	saved, err := s.quiz.SaveProgress(ctx, s.teacher, attempt.ID, nil, 15)
	s.Require().NoError(err)
	s.Assert().Equal(15, saved.ExtraTimeMinutes)
}

func (s *QuizServiceSuite) TestSubmitGradesFromSnapshot() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	// Choice order must not matter for set questions.
	submitted, err := s.quiz.Submit(ctx, s.student, attempt.ID, []models.QuizAnswer{
		{QuestionID: "q1", Answer: models.ChoiceSetAnswer("b", "a")},
		{QuestionID: "q2", Answer: models.TextAnswer("paris")},
	})
	s.Require().NoError(err)
	s.Assert().True(submitted.Submitted)
	s.Require().NotNil(submitted.SubmittedAt)
	s.Assert().Equal(12, submitted.Score)

	q1 := submitted.AnswerFor("q1")
	s.Require().NotNil(q1)
	s.Assert().Equal(2, q1.PointsAwarded)
}

func (s *QuizServiceSuite) TestSubmitPartialCreditAndMisses() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	submitted, err := s.quiz.Submit(ctx, s.student, attempt.ID, []models.QuizAnswer{
		{QuestionID: "q1", Answer: models.ChoiceSetAnswer("a")}, // incomplete set
		{QuestionID: "q2", Answer: models.TextAnswer("Pariss")}, // near miss, full credit tier
	})
	s.Require().NoError(err)
	s.Assert().Equal(10, submitted.Score)
}

func (s *QuizServiceSuite) TestSubmitIsTerminal() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	_, err = s.quiz.Submit(ctx, s.student, attempt.ID, nil)
	s.Require().NoError(err)

	_, err = s.quiz.Submit(ctx, s.student, attempt.ID, nil)
	s.assertCode(err, errors.ErrCodeAlreadySubmitted)

	_, err = s.quiz.SaveProgress(ctx, s.student, attempt.ID, nil, 0)
	s.assertCode(err, errors.ErrCodeAlreadySubmitted)

	_, err = s.quiz.Start(ctx, s.student, quizID)
	s.assertCode(err, errors.ErrCodeAlreadySubmitted)
}

func (s *QuizServiceSuite) TestVisibilityRules() {
	ctx := context.Background()
	quizID := s.insertQuiz(ctx, quizFixture)

	attempt, err := s.quiz.Start(ctx, s.student, quizID)
	s.Require().NoError(err)

	// Owner and staff can read, other students cannot.
	_, err = s.quiz.GetAttempt(ctx, s.student, attempt.ID)
	s.Require().NoError(err)
	_, err = s.quiz.GetAttempt(ctx, s.teacher, attempt.ID)
	s.Require().NoError(err)

	other := identity.Caller{UserID: 2, Role: identity.RoleStudent}
	_, err = s.quiz.GetAttempt(ctx, other, attempt.ID)
	s.assertCode(err, errors.ErrCodeForbidden)

	// Listing is staff only.
	_, err = s.quiz.ListAttempts(ctx, s.student, quizID)
	s.assertCode(err, errors.ErrCodeForbidden)

	attempts, err := s.quiz.ListAttempts(ctx, s.teacher, quizID)
	s.Require().NoError(err)
	s.Assert().Len(attempts, 1)
}

func TestQuizServiceSuite(t *testing.T) {
	suite.Run(t, new(QuizServiceSuite))
}
