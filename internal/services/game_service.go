package services

import (
	"context"
	"time"

	"github.com/mathrush/engine/internal/errors"
	"github.com/mathrush/engine/internal/grading"
	"github.com/mathrush/engine/internal/identity"
	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
	"github.com/mathrush/engine/internal/sampler"
	stderrors "errors"
)

// SubmitAnswerResult is the outcome of one graded (or replayed) answer.
type SubmitAnswerResult struct {
	Correct         bool   `json:"correct"`
	CanonicalAnswer string `json:"canonical_answer"`
	TimedOut        bool   `json:"timed_out"`
	RunningScore    int    `json:"running_score"`
	NextQuestionID  *int64 `json:"next_question_id,omitempty"`
}

// CompleteResult is the outcome of finishing an attempt. Leaderboard is nil
// when the aggregation write failed; the final score is still authoritative.
type CompleteResult struct {
	FinalScore  int                       `json:"final_score"`
	Leaderboard []models.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// GameService drives the game attempt lifecycle: start, answer, complete.
type GameService interface {
	Start(ctx context.Context, caller identity.Caller, mathTypeID int64, difficulty string, count int) (*models.GameAttempt, error)
	SubmitAnswer(ctx context.Context, caller identity.Caller, attemptID, questionID int64, answer string, timeTakenSeconds float64) (*SubmitAnswerResult, error)
	Complete(ctx context.Context, caller identity.Caller, attemptID int64) (*CompleteResult, error)
	// ClearAttemptScore nullifies a disputed attempt and recomputes the
	// affected leaderboard entry. Admin only.
	ClearAttemptScore(ctx context.Context, caller identity.Caller, attemptID int64) error
}

type gameService struct {
	questions    repository.QuestionRepository
	attempts     repository.AttemptRepository
	leaderboards LeaderboardService
	epsilon      float64
	topN         int
}

// NewGameService creates a new GameService
func NewGameService(questions repository.QuestionRepository, attempts repository.AttemptRepository, leaderboards LeaderboardService, epsilon float64, topN int) GameService {
	if topN <= 0 {
		topN = 10
	}
	return &gameService{
		questions:    questions,
		attempts:     attempts,
		leaderboards: leaderboards,
		epsilon:      epsilon,
		topN:         topN,
	}
}

func (s *gameService) Start(ctx context.Context, caller identity.Caller, mathTypeID int64, difficulty string, count int) (*models.GameAttempt, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting game attempt: user_id=%d, math_type_id=%d, difficulty=%s, count=%d",
		caller.UserID, mathTypeID, difficulty, count)

	if mathTypeID <= 0 {
		return nil, errors.NewInvalidArgumentError("math_type_id", "must be positive")
	}
	if difficulty != models.DifficultyAll && !models.ValidDifficulty(difficulty) {
		return nil, errors.NewInvalidArgumentError("difficulty", "must be 'all' or a known difficulty tier")
	}

	pool, err := s.questions.ListPublished(ctx, mathTypeID, difficulty)
	if err != nil {
		log.Error("failed to load question pool: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if len(pool) == 0 {
		return nil, errors.NewNoQuestionsError(mathTypeID, difficulty)
	}

	sampled := sampler.Sample(pool, count)
	questions := make([]models.AttemptQuestion, len(sampled))
	for i, q := range sampled {
		questions[i] = models.AttemptQuestion{
			QuestionID:       q.ID,
			Text:             q.Text,
			Options:          q.Options,
			IsMultipleChoice: q.IsMultipleChoice,
			TimeLimitSeconds: sampler.TimeLimit(q),
			Difficulty:       q.Difficulty,
			CanonicalAnswer:  q.CanonicalAnswer,
			StrictAnswer:     q.StrictAnswer,
		}
	}

	attempt := models.GameAttempt{
		UserID:     caller.UserID,
		MathTypeID: mathTypeID,
		Difficulty: difficulty,
		SchoolID:   caller.SchoolID,
		Questions:  questions,
		StartedAt:  time.Now(),
		Version:    1,
	}

	id, err := s.attempts.Insert(ctx, attempt)
	if err != nil {
		log.Error("failed to persist attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	attempt.ID = id

	log.Info("game attempt started: id=%d, user_id=%d, questions=%d", id, caller.UserID, len(questions))
	return &attempt, nil
}

func (s *gameService) SubmitAnswer(ctx context.Context, caller identity.Caller, attemptID, questionID int64, answer string, timeTakenSeconds float64) (*SubmitAnswerResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("submitting answer: attempt_id=%d, question_id=%d", attemptID, questionID)

	attempt, err := s.getOwned(ctx, caller, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed {
		return nil, errors.NewAlreadyCompletedError(attemptID)
	}

	question := attempt.Question(questionID)
	if question == nil {
		return nil, errors.NewNotFoundError("question", questionID)
	}

	// Replayed submission: return the recorded result without re-grading or
	// touching the score, so retries are safe.
	if question.Answered() {
		log.Debug("answer replay: attempt_id=%d, question_id=%d", attemptID, questionID)
		return &SubmitAnswerResult{
			Correct:         *question.Correct,
			CanonicalAnswer: question.CanonicalAnswer,
			TimedOut:        question.TimedOut,
			RunningScore:    attempt.RunningScore,
			NextQuestionID:  attempt.NextUnansweredID(),
		}, nil
	}

	graded := grading.GradeTimed(grading.TimedInput{
		CanonicalAnswer:  question.CanonicalAnswer,
		IsMultipleChoice: question.IsMultipleChoice,
		StrictAnswer:     question.StrictAnswer,
		TimeLimitSeconds: question.TimeLimitSeconds,
		TimeTakenSeconds: timeTakenSeconds,
		Submitted:        answer,
		Epsilon:          s.epsilon,
	})

	question.UserAnswer = &answer
	question.Correct = &graded.Correct
	question.TimedOut = graded.TimedOut
	question.TimeTakenSeconds = &timeTakenSeconds

	if graded.Correct {
		attempt.RunningScore++
	} else if attempt.RunningScore > 0 {
		attempt.RunningScore--
	}

	if err := s.attempts.Update(ctx, *attempt); err != nil {
		if stderrors.Is(err, repository.ErrVersionConflict) {
			return nil, errors.NewConflictError("attempt", attemptID)
		}
		log.Error("failed to persist answer: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return &SubmitAnswerResult{
		Correct:         graded.Correct,
		CanonicalAnswer: graded.CanonicalAnswer,
		TimedOut:        graded.TimedOut,
		RunningScore:    attempt.RunningScore,
		NextQuestionID:  attempt.NextUnansweredID(),
	}, nil
}

func (s *gameService) Complete(ctx context.Context, caller identity.Caller, attemptID int64) (*CompleteResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("completing attempt: attempt_id=%d", attemptID)

	attempt, err := s.getOwned(ctx, caller, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed {
		// An error, not a no-op, to surface client bugs.
		return nil, errors.NewAlreadyCompletedError(attemptID)
	}

	now := time.Now()
	attempt.Score = attempt.RunningScore
	if attempt.Score < 0 {
		attempt.Score = 0
	}
	attempt.Completed = true
	attempt.EndedAt = &now

	if err := s.attempts.Update(ctx, *attempt); err != nil {
		if stderrors.Is(err, repository.ErrVersionConflict) {
			return nil, errors.NewConflictError("attempt", attemptID)
		}
		log.Error("failed to persist completion: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("game attempt completed: id=%d, user_id=%d, score=%d", attemptID, attempt.UserID, attempt.Score)

	result := &CompleteResult{FinalScore: attempt.Score}

	// The completion is authoritative; the leaderboard write is best-effort.
	// On failure the response carries the score without the slice.
	if err := s.leaderboards.RecordCompletion(ctx, attempt, caller.DisplayName, caller.ExternalID); err != nil {
		log.Warn("leaderboard upsert failed, returning partial result: %v", err)
		return result, nil
	}

	top, err := s.leaderboards.Top(ctx, models.LeaderboardFilter{
		MathTypeID: attempt.MathTypeID,
		Difficulty: attempt.Difficulty,
		SchoolID:   attempt.SchoolID,
		Limit:      s.topN,
	})
	if err != nil {
		log.Warn("leaderboard query failed, returning partial result: %v", err)
		return result, nil
	}
	result.Leaderboard = top
	return result, nil
}

func (s *gameService) ClearAttemptScore(ctx context.Context, caller identity.Caller, attemptID int64) error {
	log := logger.FromContext(ctx)

	if !caller.Admin() {
		return errors.NewForbiddenError("clearing attempt scores requires the admin role")
	}

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		log.Error("failed to load attempt: %v", err)
		return errors.NewInternalError(err)
	}
	if attempt == nil {
		return errors.NewNotFoundError("attempt", attemptID)
	}

	if err := s.attempts.SetScore(ctx, attemptID, 0); err != nil {
		log.Error("failed to zero attempt score: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("attempt score cleared: attempt_id=%d, user_id=%d", attemptID, attempt.UserID)

	return s.leaderboards.Recompute(ctx, attempt)
}

// getOwned loads an attempt and enforces ownership.
func (s *gameService) getOwned(ctx context.Context, caller identity.Caller, attemptID int64) (*models.GameAttempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if attempt == nil {
		return nil, errors.NewNotFoundError("attempt", attemptID)
	}
	if attempt.UserID != caller.UserID {
		return nil, errors.NewForbiddenError("attempt does not belong to caller")
	}
	return attempt, nil
}
