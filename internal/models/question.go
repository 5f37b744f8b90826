package models

// Difficulty tiers for math game questions.
const (
	DifficultyEasy         = "easy"
	DifficultyIntermediate = "intermediate"
	DifficultyHard         = "hard"
	DifficultyExtraHard    = "extra_hard"
	DifficultyNoWay        = "no_way"

	// DifficultyAll selects across every tier when sampling.
	DifficultyAll = "all"
)

// ValidDifficulty reports whether s is a known difficulty tier.
func ValidDifficulty(s string) bool {
	switch s {
	case DifficultyEasy, DifficultyIntermediate, DifficultyHard, DifficultyExtraHard, DifficultyNoWay:
		return true
	}
	return false
}

// Option is one selectable choice of a multiple-choice question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a read-only question definition from the content store.
type Question struct {
	ID               int64    `json:"id"`
	MathTypeID       int64    `json:"math_type_id"`
	Text             string   `json:"text"`
	CanonicalAnswer  string   `json:"canonical_answer"`
	IsMultipleChoice bool     `json:"is_multiple_choice"`
	Options          []Option `json:"options,omitempty"`
	Difficulty       string   `json:"difficulty"`
	TimeLimitSeconds int      `json:"time_limit_seconds,omitempty"` // 0 means "use the difficulty default"
	StrictAnswer     bool     `json:"strict_answer"`
	Published        bool     `json:"published"`
}
