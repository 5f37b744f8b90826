package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mathrush/engine/internal/models"
)

// ErrVersionConflict is returned when an optimistic update loses a race
// against a concurrent writer. Callers map it to a retryable conflict.
var ErrVersionConflict = errors.New("version conflict")

// QuestionRepository reads question definitions from the content store.
// The engine never writes questions.
type QuestionRepository interface {
	// ListPublished returns published questions for a math type. When
	// difficulty is not "all", only exact-difficulty matches are returned.
	ListPublished(ctx context.Context, mathTypeID int64, difficulty string) ([]models.Question, error)
}

// AttemptRepository handles game attempt documents. Get returns (nil, nil)
// when the attempt does not exist.
type AttemptRepository interface {
	Insert(ctx context.Context, attempt models.GameAttempt) (int64, error)
	Get(ctx context.Context, id int64) (*models.GameAttempt, error)
	// Update persists the attempt with compare-and-swap on Version and bumps
	// it; returns ErrVersionConflict when the stored version moved on.
	Update(ctx context.Context, attempt models.GameAttempt) error
	// SetScore overwrites the stored score of a completed attempt. Used only
	// by the admin clear-score reconciliation.
	SetScore(ctx context.Context, id int64, score int) error
	// BestCompletedScore returns the max score over a user's completed
	// attempts in a (math type, difficulty, school) scope, with the latest
	// completion time. ok is false when no completed attempts remain.
	BestCompletedScore(ctx context.Context, userID, mathTypeID int64, difficulty string, schoolID int64) (score int, lastPlayed time.Time, ok bool, err error)
}

// LeaderboardRepository maintains per-scope best-score records.
type LeaderboardRepository interface {
	// UpsertBest records a completion: highest_score becomes
	// max(existing, new) atomically in the storage engine, and
	// last_played_at always refreshes.
	UpsertBest(ctx context.Context, entry models.LeaderboardEntry) error
	// SetScore force-writes an entry's score (reconciliation; the only path
	// allowed to decrease highest_score).
	SetScore(ctx context.Context, mathTypeID int64, difficulty string, schoolID, userID int64, score int) error
	Top(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, error)
	// GlobalTop sums each user's best completed score per math type.
	GlobalTop(ctx context.Context, limit int) ([]models.GlobalLeaderboardEntry, error)
}

// CompetitionRepository handles competitions and their append-only ledger.
type CompetitionRepository interface {
	Insert(ctx context.Context, c models.Competition) (int64, error)
	Get(ctx context.Context, id int64) (*models.Competition, error)
	SetEndAt(ctx context.Context, id int64, endAt time.Time) error
	MarkFinalized(ctx context.Context, id int64) error
	InsertResult(ctx context.Context, r models.CompetitionResult) (int64, error)
	// Totals returns per-user delta sums ordered by total desc, earliest
	// first delta asc, user id asc.
	Totals(ctx context.Context, competitionID int64) ([]models.CompetitionTotal, error)
	DeleteResults(ctx context.Context, competitionID int64) (int64, error)
	DeleteUserResults(ctx context.Context, competitionID, userID int64) (int64, error)
}

// QuizRepository reads quiz definitions from the content store.
type QuizRepository interface {
	GetDefinition(ctx context.Context, id int64) (*models.QuizDefinition, error)
}

// QuizAttemptRepository handles quiz attempt documents.
type QuizAttemptRepository interface {
	Insert(ctx context.Context, attempt models.QuizAttempt) (int64, error)
	Get(ctx context.Context, id int64) (*models.QuizAttempt, error)
	FindByQuizAndStudent(ctx context.Context, quizID, studentID int64) (*models.QuizAttempt, error)
	// Update persists with compare-and-swap on Version, like game attempts.
	Update(ctx context.Context, attempt models.QuizAttempt) error
	ListByQuiz(ctx context.Context, quizID int64) ([]models.QuizAttempt, error)
}
