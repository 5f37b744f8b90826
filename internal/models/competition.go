package models

import "time"

// Competition is a time-boxed point contest administered by staff.
type Competition struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	CreatedBy int64     `json:"created_by"`
	Finalized bool      `json:"finalized"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the competition is open for point deltas at t.
func (c Competition) Active(t time.Time) bool {
	return !c.Finalized && !t.Before(c.StartAt) && !t.After(c.EndAt)
}

// CompetitionResult is one append-only signed point delta. A user's visible
// total is the sum of their deltas; finalization deletes all rows.
type CompetitionResult struct {
	ID            int64     `json:"id"`
	CompetitionID int64     `json:"competition_id"`
	UserID        int64     `json:"user_id"`
	Delta         int       `json:"delta"`
	Reason        string    `json:"reason"`
	AttemptID     *int64    `json:"attempt_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CompetitionTotal is one user's aggregated standing in a competition.
// FirstDeltaAt breaks ties deterministically: the earlier participant wins.
type CompetitionTotal struct {
	UserID       int64     `json:"user_id"`
	Total        int       `json:"total"`
	FirstDeltaAt time.Time `json:"first_delta_at"`
}
