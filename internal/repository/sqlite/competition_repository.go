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

type competitionRepository struct {
	db *sql.DB
}

// NewCompetitionRepository creates a new CompetitionRepository implementation
func NewCompetitionRepository(db *sql.DB) repository.CompetitionRepository {
	return &competitionRepository{db: db}
}

func (r *competitionRepository) Insert(ctx context.Context, c models.Competition) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("competition_repo")
	log.Debug("inserting competition: title=%s", c.Title)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO competitions (title, start_at, end_at, created_by, finalized, created_at)
VALUES (?, ?, ?, ?, 0, ?)
`, c.Title, c.StartAt, c.EndAt, c.CreatedBy, c.CreatedAt)
	if err != nil {
		log.Error("failed to insert competition: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *competitionRepository) Get(ctx context.Context, id int64) (*models.Competition, error) {
	log := logger.FromContext(ctx).WithPrefix("competition_repo")

	var c models.Competition
	err := r.db.QueryRowContext(ctx, `
SELECT id, title, start_at, end_at, created_by, finalized, created_at
FROM competitions
WHERE id = ?
`, id).Scan(&c.ID, &c.Title, &c.StartAt, &c.EndAt, &c.CreatedBy, &c.Finalized, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("competition not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get competition: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *competitionRepository) SetEndAt(ctx context.Context, id int64, endAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE competitions SET end_at = ? WHERE id = ?`, endAt, id)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("competition_repo").Error("failed to set end_at: %v", err)
	}
	return err
}

func (r *competitionRepository) MarkFinalized(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE competitions SET finalized = 1 WHERE id = ?`, id)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("competition_repo").Error("failed to mark finalized: %v", err)
	}
	return err
}

func (r *competitionRepository) InsertResult(ctx context.Context, res models.CompetitionResult) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("competition_repo")
	log.Debug("appending delta: competition_id=%d, user_id=%d, delta=%d", res.CompetitionID, res.UserID, res.Delta)

	out, err := r.db.ExecContext(ctx, `
INSERT INTO competition_results (competition_id, user_id, delta, reason, attempt_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, res.CompetitionID, res.UserID, res.Delta, res.Reason, res.AttemptID, res.CreatedAt)
	if err != nil {
		log.Error("failed to insert competition result: %v", err)
		return 0, err
	}
	return out.LastInsertId()
}

func (r *competitionRepository) Totals(ctx context.Context, competitionID int64) ([]models.CompetitionTotal, error) {
	log := logger.FromContext(ctx).WithPrefix("competition_repo")
	log.Debug("computing totals: competition_id=%d", competitionID)

	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, SUM(delta) AS total, MIN(created_at) AS first_delta_at
FROM competition_results
WHERE competition_id = ?
GROUP BY user_id
ORDER BY total DESC, first_delta_at ASC, user_id ASC
`, competitionID)
	if err != nil {
		log.Error("failed to query totals: %v", err)
		return nil, err
	}
	defer rows.Close()

	var totals []models.CompetitionTotal
	for rows.Next() {
		var t models.CompetitionTotal
		var firstDeltaRaw string
		if err := rows.Scan(&t.UserID, &t.Total, &firstDeltaRaw); err != nil {
			log.Error("failed to scan total row: %v", err)
			return nil, err
		}
		t.FirstDeltaAt, err = parseTimestamp(firstDeltaRaw)
		if err != nil {
			log.Error("failed to parse first delta timestamp: %v", err)
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *competitionRepository) DeleteResults(ctx context.Context, competitionID int64) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("competition_repo")

	res, err := r.db.ExecContext(ctx, `DELETE FROM competition_results WHERE competition_id = ?`, competitionID)
	if err != nil {
		log.Error("failed to delete competition results: %v", err)
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Debug("deleted %d competition results: competition_id=%d", deleted, competitionID)
	return deleted, nil
}

func (r *competitionRepository) DeleteUserResults(ctx context.Context, competitionID, userID int64) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("competition_repo")

	res, err := r.db.ExecContext(ctx, `DELETE FROM competition_results WHERE competition_id = ? AND user_id = ?`, competitionID, userID)
	if err != nil {
		log.Error("failed to delete user results: %v", err)
		return 0, err
	}
	return res.RowsAffected()
}
