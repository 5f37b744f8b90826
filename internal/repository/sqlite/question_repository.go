package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
)

type questionRepository struct {
	db *sql.DB
}

// NewQuestionRepository creates a new QuestionRepository implementation
func NewQuestionRepository(db *sql.DB) repository.QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) ListPublished(ctx context.Context, mathTypeID int64, difficulty string) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("listing published questions: math_type_id=%d, difficulty=%s", mathTypeID, difficulty)

	query := sqlBuilder.Select(
		"id", "math_type_id", "text", "canonical_answer", "is_multiple_choice",
		"options", "difficulty", "time_limit_seconds", "strict_answer", "published",
	).From("questions").
		Where(squirrel.Eq{"math_type_id": mathTypeID, "published": true})

	// Difficulty-strict: no cross-difficulty fallback.
	if difficulty != models.DifficultyAll {
		query = query.Where(squirrel.Eq{"difficulty": difficulty})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query questions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var options string
		if err := rows.Scan(&q.ID, &q.MathTypeID, &q.Text, &q.CanonicalAnswer, &q.IsMultipleChoice,
			&options, &q.Difficulty, &q.TimeLimitSeconds, &q.StrictAnswer, &q.Published); err != nil {
			log.Error("failed to scan question row: %v", err)
			return nil, err
		}
		if err := fromJSON(options, &q.Options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	log.Debug("found %d published questions", len(questions))
	return questions, rows.Err()
}
