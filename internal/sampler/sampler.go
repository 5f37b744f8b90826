// Package sampler draws difficulty-pure question sets for game attempts.
package sampler

import (
	"math/rand"

	"github.com/mathrush/engine/internal/models"
)

// Bounds for the requested sample size.
const (
	MinCount = 1
	MaxCount = 200
)

// defaultTimeLimits is the per-difficulty fallback when a question carries no
// explicit time limit.
var defaultTimeLimits = map[string]int{
	models.DifficultyEasy:         20,
	models.DifficultyIntermediate: 15,
	models.DifficultyHard:         10,
	models.DifficultyExtraHard:    5,
	models.DifficultyNoWay:        2,
}

// ClampCount clamps a requested sample size into [MinCount, MaxCount].
func ClampCount(n int) int {
	if n < MinCount {
		return MinCount
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// Sample draws a uniform random sample without replacement of size
// min(count, len(questions)), in random order. The input slice is not
// modified. Difficulty filtering happens upstream; this never substitutes
// questions from another tier.
func Sample(questions []models.Question, count int) []models.Question {
	count = ClampCount(count)
	if count > len(questions) {
		count = len(questions)
	}
	perm := rand.Perm(len(questions))
	out := make([]models.Question, 0, count)
	for _, idx := range perm[:count] {
		out = append(out, questions[idx])
	}
	return out
}

// TimeLimit returns the effective per-question time limit in seconds: the
// question's own limit when positive, else the difficulty default.
func TimeLimit(q models.Question) int {
	if q.TimeLimitSeconds > 0 {
		return q.TimeLimitSeconds
	}
	if limit, ok := defaultTimeLimits[q.Difficulty]; ok {
		return limit
	}
	return defaultTimeLimits[models.DifficultyEasy]
}
