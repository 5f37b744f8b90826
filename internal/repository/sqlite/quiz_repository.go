package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
)

type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new QuizRepository implementation. Quiz
// definitions are stored as one JSON document per row, document-store style.
func NewQuizRepository(db *sql.DB) repository.QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetDefinition(ctx context.Context, id int64) (*models.QuizDefinition, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")

	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM quizzes WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("quiz not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get quiz: %v", err)
		return nil, err
	}

	var def models.QuizDefinition
	if err := fromJSON(data, &def); err != nil {
		return nil, err
	}
	def.ID = id
	return &def, nil
}

type quizAttemptRepository struct {
	db *sql.DB
}

// NewQuizAttemptRepository creates a new QuizAttemptRepository implementation
func NewQuizAttemptRepository(db *sql.DB) repository.QuizAttemptRepository {
	return &quizAttemptRepository{db: db}
}

func (r *quizAttemptRepository) Insert(ctx context.Context, a models.QuizAttempt) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_attempt_repo")
	log.Debug("inserting quiz attempt: quiz_id=%d, student_id=%d", a.QuizID, a.StudentID)

	order, err := toJSON(a.QuestionOrder)
	if err != nil {
		return 0, err
	}
	questions, err := toJSON(a.Questions)
	if err != nil {
		return 0, err
	}
	answers, err := toJSON(a.Answers)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO quiz_attempts (quiz_id, student_id, question_order, questions, answers, started_at, extra_time_minutes, score, max_score, submitted, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 1)
`, a.QuizID, a.StudentID, order, questions, answers, a.StartedAt, a.ExtraTimeMinutes, a.Score, a.MaxScore)
	if err != nil {
		log.Error("failed to insert quiz attempt: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

const quizAttemptColumns = `id, quiz_id, student_id, question_order, questions, answers, started_at, submitted_at, extra_time_minutes, score, max_score, submitted, version`

func (r *quizAttemptRepository) Get(ctx context.Context, id int64) (*models.QuizAttempt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+quizAttemptColumns+` FROM quiz_attempts WHERE id = ?`, id)
	return r.scanAttempt(ctx, row)
}

func (r *quizAttemptRepository) FindByQuizAndStudent(ctx context.Context, quizID, studentID int64) (*models.QuizAttempt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+quizAttemptColumns+` FROM quiz_attempts WHERE quiz_id = ? AND student_id = ?`, quizID, studentID)
	return r.scanAttempt(ctx, row)
}

func (r *quizAttemptRepository) scanAttempt(ctx context.Context, row *sql.Row) (*models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_attempt_repo")

	var a models.QuizAttempt
	var order, questions, answers string
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &order, &questions, &answers,
		&a.StartedAt, &a.SubmittedAt, &a.ExtraTimeMinutes, &a.Score, &a.MaxScore, &a.Submitted, &a.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to scan quiz attempt: %v", err)
		return nil, err
	}
	if err := fromJSON(order, &a.QuestionOrder); err != nil {
		return nil, err
	}
	if err := fromJSON(questions, &a.Questions); err != nil {
		return nil, err
	}
	if err := fromJSON(answers, &a.Answers); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *quizAttemptRepository) Update(ctx context.Context, a models.QuizAttempt) error {
	log := logger.FromContext(ctx).WithPrefix("quiz_attempt_repo")
	log.Debug("updating quiz attempt: id=%d, version=%d", a.ID, a.Version)

	answers, err := toJSON(a.Answers)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE quiz_attempts
SET answers = ?, submitted_at = ?, extra_time_minutes = ?, score = ?, submitted = ?, version = version + 1
WHERE id = ? AND version = ?
`, answers, a.SubmittedAt, a.ExtraTimeMinutes, a.Score, a.Submitted, a.ID, a.Version)
	if err != nil {
		log.Error("failed to update quiz attempt: %v", err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Debug("quiz attempt update lost version race: id=%d, version=%d", a.ID, a.Version)
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *quizAttemptRepository) ListByQuiz(ctx context.Context, quizID int64) ([]models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_attempt_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT `+quizAttemptColumns+` FROM quiz_attempts WHERE quiz_id = ? ORDER BY started_at ASC`, quizID)
	if err != nil {
		log.Error("failed to list quiz attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var attempts []models.QuizAttempt
	for rows.Next() {
		var a models.QuizAttempt
		var order, questions, answers string
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &order, &questions, &answers,
			&a.StartedAt, &a.SubmittedAt, &a.ExtraTimeMinutes, &a.Score, &a.MaxScore, &a.Submitted, &a.Version); err != nil {
			log.Error("failed to scan quiz attempt row: %v", err)
			return nil, err
		}
		if err := fromJSON(order, &a.QuestionOrder); err != nil {
			return nil, err
		}
		if err := fromJSON(questions, &a.Questions); err != nil {
			return nil, err
		}
		if err := fromJSON(answers, &a.Answers); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
