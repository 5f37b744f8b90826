package services

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/mathrush/engine/internal/errors"
	"github.com/mathrush/engine/internal/grading"
	"github.com/mathrush/engine/internal/identity"
	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
	stderrors "errors"
)

// QuizService drives the quiz attempt lifecycle: start, partial saves,
// submit-and-grade, results.
type QuizService interface {
	Start(ctx context.Context, caller identity.Caller, quizID int64) (*models.QuizAttempt, error)
	SaveProgress(ctx context.Context, caller identity.Caller, attemptID int64, answers []models.QuizAnswer, extraTimeMinutes int) (*models.QuizAttempt, error)
	Submit(ctx context.Context, caller identity.Caller, attemptID int64, answers []models.QuizAnswer) (*models.QuizAttempt, error)
	ListAttempts(ctx context.Context, caller identity.Caller, quizID int64) ([]models.QuizAttempt, error)
	GetAttempt(ctx context.Context, caller identity.Caller, attemptID int64) (*models.QuizAttempt, error)
}

type quizService struct {
	quizzes  repository.QuizRepository
	attempts repository.QuizAttemptRepository
}

// NewQuizService creates a new QuizService
func NewQuizService(quizzes repository.QuizRepository, attempts repository.QuizAttemptRepository) QuizService {
	return &quizService{quizzes: quizzes, attempts: attempts}
}

func (s *quizService) Start(ctx context.Context, caller identity.Caller, quizID int64) (*models.QuizAttempt, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting quiz attempt: quiz_id=%d, student_id=%d", quizID, caller.UserID)

	quiz, err := s.quizzes.GetDefinition(ctx, quizID)
	if err != nil {
		log.Error("failed to load quiz: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if quiz == nil {
		return nil, errors.NewNotFoundError("quiz", quizID)
	}
	if !quiz.Active {
		return nil, errors.NewForbiddenError("quiz is not active")
	}
	if !quiz.AllowsClass(caller.ClassIDs) {
		return nil, errors.NewForbiddenError("quiz is not assigned to the caller's class")
	}

	existing, err := s.attempts.FindByQuizAndStudent(ctx, quizID, caller.UserID)
	if err != nil {
		log.Error("failed to look up existing attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if existing != nil {
		if existing.Submitted {
			return nil, errors.NewAlreadySubmittedError(existing.ID)
		}
		// Resume semantics: re-starting returns the open attempt.
		log.Debug("resuming quiz attempt: id=%d", existing.ID)
		return existing, nil
	}

	// Snapshot the definition verbatim; later edits to the quiz must not
	// change this attempt's grading.
	snapshot := make([]models.QuizQuestion, len(quiz.Questions))
	copy(snapshot, quiz.Questions)

	order := make([]string, len(snapshot))
	for i, q := range snapshot {
		order[i] = q.ID
	}
	if quiz.RandomizeQuestions {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	attempt := models.QuizAttempt{
		QuizID:           quizID,
		StudentID:        caller.UserID,
		QuestionOrder:    order,
		Questions:        snapshot,
		StartedAt:        time.Now(),
		ExtraTimeMinutes: quiz.ExtraTimeMinutes,
		MaxScore:         quiz.MaxScore(),
		Version:          1,
	}
	id, err := s.attempts.Insert(ctx, attempt)
	if err != nil {
		log.Error("failed to persist quiz attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	attempt.ID = id

	log.Info("quiz attempt started: id=%d, quiz_id=%d, student_id=%d", id, quizID, caller.UserID)
	return &attempt, nil
}

func (s *quizService) SaveProgress(ctx context.Context, caller identity.Caller, attemptID int64, answers []models.QuizAnswer, extraTimeMinutes int) (*models.QuizAttempt, error) {
	log := logger.FromContext(ctx)
	log.Debug("saving quiz progress: attempt_id=%d, answers=%d", attemptID, len(answers))

	attempt, err := s.getVisible(ctx, caller, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return nil, errors.NewAlreadySubmittedError(attemptID)
	}

	attempt.MergeAnswers(answers)

	if extraTimeMinutes > 0 {
		if !caller.Privileged() {
			return nil, errors.NewForbiddenError("extending quiz time requires a staff role")
		}
		attempt.ExtraTimeMinutes += extraTimeMinutes
	}

	if err := s.attempts.Update(ctx, *attempt); err != nil {
		if stderrors.Is(err, repository.ErrVersionConflict) {
			return nil, errors.NewConflictError("quiz attempt", attemptID)
		}
		log.Error("failed to persist quiz progress: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return attempt, nil
}

func (s *quizService) Submit(ctx context.Context, caller identity.Caller, attemptID int64, answers []models.QuizAnswer) (*models.QuizAttempt, error) {
	log := logger.FromContext(ctx)
	log.Debug("submitting quiz attempt: attempt_id=%d", attemptID)

	attempt, err := s.getVisible(ctx, caller, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return nil, errors.NewAlreadySubmittedError(attemptID)
	}

	attempt.MergeAnswers(answers)

	// Grading only ever consults the snapshot taken at start time.
	score := 0
	for i := range attempt.Questions {
		question := &attempt.Questions[i]
		answer := attempt.AnswerFor(question.ID)
		if answer == nil {
			continue
		}
		answer.PointsAwarded = gradeQuizAnswer(question, answer.Answer)
		score += answer.PointsAwarded
	}

	now := time.Now()
	attempt.Score = score
	attempt.Submitted = true
	attempt.SubmittedAt = &now

	if err := s.attempts.Update(ctx, *attempt); err != nil {
		if stderrors.Is(err, repository.ErrVersionConflict) {
			return nil, errors.NewConflictError("quiz attempt", attemptID)
		}
		log.Error("failed to persist quiz submission: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("quiz attempt submitted: id=%d, score=%d/%d", attemptID, score, attempt.MaxScore)
	return attempt, nil
}

func (s *quizService) ListAttempts(ctx context.Context, caller identity.Caller, quizID int64) ([]models.QuizAttempt, error) {
	if !caller.Privileged() {
		return nil, errors.NewForbiddenError("listing quiz attempts requires a staff role")
	}

	attempts, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list quiz attempts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return attempts, nil
}

func (s *quizService) GetAttempt(ctx context.Context, caller identity.Caller, attemptID int64) (*models.QuizAttempt, error) {
	return s.getVisible(ctx, caller, attemptID)
}

// getVisible loads an attempt visible to the caller: its owner or staff.
func (s *quizService) getVisible(ctx context.Context, caller identity.Caller, attemptID int64) (*models.QuizAttempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load quiz attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if attempt == nil {
		return nil, errors.NewNotFoundError("quiz attempt", attemptID)
	}
	if attempt.StudentID != caller.UserID && !caller.Privileged() {
		return nil, errors.NewForbiddenError("quiz attempt does not belong to caller")
	}
	return attempt, nil
}

// gradeQuizAnswer scores one answer against its snapshotted question.
func gradeQuizAnswer(question *models.QuizQuestion, answer models.AnswerValue) int {
	switch question.Type {
	case models.QuizQuestionMultiple:
		if choiceSetsEqual(answer, question.CorrectAnswer) {
			return question.Points
		}
		return 0
	default: // direct, fill
		awarded, _ := grading.GradeFuzzy(question.CorrectAnswer.References(), answer.Text, question.Points)
		return awarded
	}
}

// choiceSetsEqual compares choice answers order-independently. Scalar forms
// (a single text value) compare against single-element sets.
func choiceSetsEqual(a, b models.AnswerValue) bool {
	as := choiceIDs(a)
	bs := choiceIDs(b)
	if len(as) != len(bs) {
		return false
	}
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func choiceIDs(v models.AnswerValue) []string {
	if v.IsSet {
		out := make([]string, len(v.Choices))
		copy(out, v.Choices)
		return out
	}
	if v.IsEmpty() {
		return nil
	}
	return []string{v.Text}
}
