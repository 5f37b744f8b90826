package models

import "time"

// Leaderboard periods accepted by the scoped query.
const (
	PeriodAll     = "all"
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// LeaderboardEntry is the per-scope best score of one user. The scope key is
// (math type, difficulty, school, user). HighestScore only decreases through
// the admin clear-score reconciliation.
type LeaderboardEntry struct {
	MathTypeID   int64     `json:"math_type_id"`
	Difficulty   string    `json:"difficulty"`
	SchoolID     int64     `json:"school_id,omitempty"`
	UserID       int64     `json:"user_id"`
	HighestScore int       `json:"highest_score"`
	LastPlayedAt time.Time `json:"last_played_at"`
	DisplayName  string    `json:"display_name,omitempty"`
	ExternalID   string    `json:"external_id,omitempty"`
}

// GlobalLeaderboardEntry is one row of the cross-math-type ranking: the sum
// of a user's best scores per math type.
type GlobalLeaderboardEntry struct {
	UserID       int64     `json:"user_id"`
	TotalScore   int       `json:"total_score"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// LeaderboardFilter selects the scope and window of a leaderboard query.
type LeaderboardFilter struct {
	MathTypeID int64
	Difficulty string
	SchoolID   int64  // 0 means "no school filter"
	Period     string // one of the Period* constants; "" means all
	Limit      int
}
