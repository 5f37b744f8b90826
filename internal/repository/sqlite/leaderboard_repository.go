package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/repository"
)

type leaderboardRepository struct {
	db *sql.DB
}

// NewLeaderboardRepository creates a new LeaderboardRepository implementation
func NewLeaderboardRepository(db *sql.DB) repository.LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// UpsertBest is the atomic "set if greater" write: the max happens inside the
// upsert statement, so concurrent completions for the same key cannot lose an
// update to a read-then-write race.
func (r *leaderboardRepository) UpsertBest(ctx context.Context, e models.LeaderboardEntry) error {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("upserting best score: user_id=%d, math_type_id=%d, difficulty=%s, score=%d",
		e.UserID, e.MathTypeID, e.Difficulty, e.HighestScore)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO leaderboard_entries (math_type_id, difficulty, school_id, user_id, highest_score, last_played_at, display_name, external_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (math_type_id, difficulty, school_id, user_id) DO UPDATE SET
    highest_score = MAX(highest_score, excluded.highest_score),
    last_played_at = excluded.last_played_at,
    display_name = excluded.display_name,
    external_id = excluded.external_id
`, e.MathTypeID, e.Difficulty, e.SchoolID, e.UserID, e.HighestScore, e.LastPlayedAt, e.DisplayName, e.ExternalID)
	if err != nil {
		log.Error("failed to upsert leaderboard entry: %v", err)
	}
	return err
}

func (r *leaderboardRepository) SetScore(ctx context.Context, mathTypeID int64, difficulty string, schoolID, userID int64, score int) error {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("force-setting leaderboard score: user_id=%d, math_type_id=%d, difficulty=%s, score=%d",
		userID, mathTypeID, difficulty, score)

	_, err := r.db.ExecContext(ctx, `
UPDATE leaderboard_entries
SET highest_score = ?
WHERE math_type_id = ? AND difficulty = ? AND school_id = ? AND user_id = ?
`, score, mathTypeID, difficulty, schoolID, userID)
	if err != nil {
		log.Error("failed to set leaderboard score: %v", err)
	}
	return err
}

func (r *leaderboardRepository) Top(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("querying leaderboard: math_type_id=%d, difficulty=%s, school_id=%d, period=%s",
		filter.MathTypeID, filter.Difficulty, filter.SchoolID, filter.Period)

	query := sqlBuilder.Select(
		"math_type_id", "difficulty", "school_id", "user_id",
		"highest_score", "last_played_at", "display_name", "external_id",
	).From("leaderboard_entries")

	if filter.MathTypeID != 0 {
		query = query.Where(squirrel.Eq{"math_type_id": filter.MathTypeID})
	}
	if filter.Difficulty != "" {
		query = query.Where(squirrel.Eq{"difficulty": filter.Difficulty})
	}
	if filter.SchoolID != 0 {
		query = query.Where(squirrel.Eq{"school_id": filter.SchoolID})
	}
	if cutoff, ok := periodCutoff(filter.Period, time.Now()); ok {
		query = query.Where(squirrel.GtOrEq{"last_played_at": cutoff})
	}

	// Earlier achiever of the same score ranks first.
	query = query.OrderBy("highest_score DESC", "last_played_at ASC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	query = query.Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query leaderboard: %v", err)
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.MathTypeID, &e.Difficulty, &e.SchoolID, &e.UserID,
			&e.HighestScore, &e.LastPlayedAt, &e.DisplayName, &e.ExternalID); err != nil {
			log.Error("failed to scan leaderboard row: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GlobalTop takes the max completed score per (user, math type) pair, then
// sums those maxima per user. Repeated attempts on the same math type never
// double count; breadth across math types does.
func (r *leaderboardRepository) GlobalTop(ctx context.Context, limit int) ([]models.GlobalLeaderboardEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("querying global leaderboard: limit=%d", limit)

	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, SUM(best_score) AS total_score, MAX(last_played) AS last_played_at
FROM (
    SELECT user_id, math_type_id, MAX(score) AS best_score, MAX(ended_at) AS last_played
    FROM game_attempts
    WHERE completed = 1
    GROUP BY user_id, math_type_id
)
GROUP BY user_id
ORDER BY total_score DESC, last_played_at ASC
LIMIT ?
`, limit)
	if err != nil {
		log.Error("failed to query global leaderboard: %v", err)
		return nil, err
	}
	defer rows.Close()

	var entries []models.GlobalLeaderboardEntry
	for rows.Next() {
		var e models.GlobalLeaderboardEntry
		var lastPlayedRaw string
		if err := rows.Scan(&e.UserID, &e.TotalScore, &lastPlayedRaw); err != nil {
			log.Error("failed to scan global leaderboard row: %v", err)
			return nil, err
		}
		e.LastPlayedAt, err = parseTimestamp(lastPlayedRaw)
		if err != nil {
			log.Error("failed to parse last played timestamp: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// periodCutoff translates a leaderboard period into a last_played_at cutoff.
func periodCutoff(period string, now time.Time) (time.Time, bool) {
	switch period {
	case models.PeriodDaily:
		return now.AddDate(0, 0, -1), true
	case models.PeriodWeekly:
		return now.AddDate(0, 0, -7), true
	case models.PeriodMonthly:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}
