package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
)

type attemptRepository struct {
	db *sql.DB
}

// NewAttemptRepository creates a new AttemptRepository implementation
func NewAttemptRepository(db *sql.DB) repository.AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Insert(ctx context.Context, a models.GameAttempt) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("inserting attempt: user_id=%d, math_type_id=%d, difficulty=%s", a.UserID, a.MathTypeID, a.Difficulty)

	questions, err := toJSON(a.Questions)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO game_attempts (user_id, math_type_id, difficulty, school_id, questions, running_score, score, started_at, completed, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 1)
`, a.UserID, a.MathTypeID, a.Difficulty, a.SchoolID, questions, a.RunningScore, a.Score, a.StartedAt)
	if err != nil {
		log.Error("failed to insert attempt: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	log.Debug("attempt inserted: id=%d", id)
	return id, nil
}

func (r *attemptRepository) Get(ctx context.Context, id int64) (*models.GameAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")

	var a models.GameAttempt
	var questions string
	err := r.db.QueryRowContext(ctx, `
SELECT id, user_id, math_type_id, difficulty, school_id, questions, running_score, score, started_at, ended_at, completed, version
FROM game_attempts
WHERE id = ?
`, id).Scan(&a.ID, &a.UserID, &a.MathTypeID, &a.Difficulty, &a.SchoolID, &questions,
		&a.RunningScore, &a.Score, &a.StartedAt, &a.EndedAt, &a.Completed, &a.Version)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("attempt not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get attempt: %v", err)
		return nil, err
	}
	if err := fromJSON(questions, &a.Questions); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attemptRepository) Update(ctx context.Context, a models.GameAttempt) error {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("updating attempt: id=%d, version=%d", a.ID, a.Version)

	questions, err := toJSON(a.Questions)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE game_attempts
SET questions = ?, running_score = ?, score = ?, ended_at = ?, completed = ?, version = version + 1
WHERE id = ? AND version = ?
`, questions, a.RunningScore, a.Score, a.EndedAt, a.Completed, a.ID, a.Version)
	if err != nil {
		log.Error("failed to update attempt: %v", err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Debug("attempt update lost version race: id=%d, version=%d", a.ID, a.Version)
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *attemptRepository) SetScore(ctx context.Context, id int64, score int) error {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("overwriting attempt score: id=%d, score=%d", id, score)

	_, err := r.db.ExecContext(ctx, `
UPDATE game_attempts SET score = ?, running_score = ?, version = version + 1 WHERE id = ?
`, score, score, id)
	if err != nil {
		log.Error("failed to overwrite attempt score: %v", err)
	}
	return err
}

func (r *attemptRepository) BestCompletedScore(ctx context.Context, userID, mathTypeID int64, difficulty string, schoolID int64) (int, time.Time, bool, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")

	var score sql.NullInt64
	var lastPlayedRaw sql.NullString
	err := r.db.QueryRowContext(ctx, `
SELECT MAX(score), MAX(ended_at)
FROM game_attempts
WHERE user_id = ? AND math_type_id = ? AND difficulty = ? AND school_id = ? AND completed = 1
`, userID, mathTypeID, difficulty, schoolID).Scan(&score, &lastPlayedRaw)
	if err != nil {
		log.Error("failed to query best completed score: %v", err)
		return 0, time.Time{}, false, err
	}
	if !score.Valid {
		return 0, time.Time{}, false, nil
	}
	var lastPlayed time.Time
	if lastPlayedRaw.Valid {
		lastPlayed, err = parseTimestamp(lastPlayedRaw.String)
		if err != nil {
			log.Error("failed to parse last played timestamp: %v", err)
			return 0, time.Time{}, false, err
		}
	}
	return int(score.Int64), lastPlayed, true, nil
}
