package models

import "time"

// AttemptQuestion is the per-attempt snapshot of a question. The canonical
// answer is snapshotted so grading survives later edits to the definition;
// it stays server-side (see PublicView).
type AttemptQuestion struct {
	QuestionID       int64    `json:"question_id"`
	Text             string   `json:"text"`
	Options          []Option `json:"options,omitempty"`
	IsMultipleChoice bool     `json:"is_multiple_choice"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	Difficulty       string   `json:"difficulty"`
	CanonicalAnswer  string   `json:"canonical_answer"`
	StrictAnswer     bool     `json:"strict_answer"`

	UserAnswer       *string  `json:"user_answer,omitempty"`
	Correct          *bool    `json:"correct,omitempty"`
	TimedOut         bool     `json:"timed_out,omitempty"`
	TimeTakenSeconds *float64 `json:"time_taken_seconds,omitempty"`
}

// Answered reports whether this question already has a recorded answer.
func (q *AttemptQuestion) Answered() bool {
	return q.Correct != nil
}

// PublicAttemptQuestion is the client-facing projection of an attempt
// question. It never carries the canonical answer.
type PublicAttemptQuestion struct {
	QuestionID       int64    `json:"question_id"`
	Text             string   `json:"text"`
	Options          []Option `json:"options,omitempty"`
	IsMultipleChoice bool     `json:"is_multiple_choice"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	Difficulty       string   `json:"difficulty"`
	Answered         bool     `json:"answered"`
}

// PublicView strips server-only fields for client delivery.
func (q *AttemptQuestion) PublicView() PublicAttemptQuestion {
	return PublicAttemptQuestion{
		QuestionID:       q.QuestionID,
		Text:             q.Text,
		Options:          q.Options,
		IsMultipleChoice: q.IsMultipleChoice,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Difficulty:       q.Difficulty,
		Answered:         q.Answered(),
	}
}

// GameAttempt is one user's run through a sampled question set.
// Completed is terminal: once set, questions and scores no longer change
// (only the admin clear-score reconciliation may zero the stored score).
type GameAttempt struct {
	ID           int64             `json:"id"`
	UserID       int64             `json:"user_id"`
	MathTypeID   int64             `json:"math_type_id"`
	Difficulty   string            `json:"difficulty"` // "all" or a specific tier
	SchoolID     int64             `json:"school_id,omitempty"`
	Questions    []AttemptQuestion `json:"questions"`
	RunningScore int               `json:"running_score"`
	Score        int               `json:"score"`
	StartedAt    time.Time         `json:"started_at"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
	Completed    bool              `json:"completed"`
	Version      int64             `json:"-"`
}

// Question returns the attempt's snapshot entry for the given question id.
func (a *GameAttempt) Question(questionID int64) *AttemptQuestion {
	for i := range a.Questions {
		if a.Questions[i].QuestionID == questionID {
			return &a.Questions[i]
		}
	}
	return nil
}

// NextUnansweredID returns the id of the first unanswered question, or nil.
func (a *GameAttempt) NextUnansweredID() *int64 {
	for i := range a.Questions {
		if !a.Questions[i].Answered() {
			id := a.Questions[i].QuestionID
			return &id
		}
	}
	return nil
}

// PublicQuestions projects every snapshot entry for client delivery.
func (a *GameAttempt) PublicQuestions() []PublicAttemptQuestion {
	out := make([]PublicAttemptQuestion, len(a.Questions))
	for i := range a.Questions {
		out[i] = a.Questions[i].PublicView()
	}
	return out
}
