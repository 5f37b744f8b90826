package sampler_test

import (
	"fmt"
	"testing"

	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeQuestions(difficulty string, n int) []models.Question {
	out := make([]models.Question, n)
	for i := range out {
		out[i] = models.Question{
			ID:         int64(i + 1),
			MathTypeID: 1,
			Text:       fmt.Sprintf("question %d", i+1),
			Difficulty: difficulty,
			Published:  true,
		}
	}
	return out
}

func TestSample_SizeAndUniqueness(t *testing.T) {
	pool := makeQuestions(models.DifficultyEasy, 30)

	got := sampler.Sample(pool, 10)
	require.Len(t, got, 10)

	seen := map[int64]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "question %d sampled twice", q.ID)
		seen[q.ID] = true
	}
}

func TestSample_CountExceedsPool(t *testing.T) {
	pool := makeQuestions(models.DifficultyHard, 3)

	got := sampler.Sample(pool, 50)
	assert.Len(t, got, 3)
}

func TestSample_EmptyPool(t *testing.T) {
	got := sampler.Sample(nil, 10)
	assert.Empty(t, got)
}

func TestSample_DifficultyPurity(t *testing.T) {
	// The sampler never substitutes from another tier: output difficulty is
	// whatever the pre-filtered pool holds.
	pool := makeQuestions(models.DifficultyNoWay, 20)

	for i := 0; i < 10; i++ {
		for _, q := range sampler.Sample(pool, 5) {
			assert.Equal(t, models.DifficultyNoWay, q.Difficulty)
		}
	}
}

func TestClampCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{42, 42},
		{200, 200},
		{201, 200},
		{100000, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sampler.ClampCount(tt.in), "clamp(%d)", tt.in)
	}
}

func TestTimeLimit_ExplicitWins(t *testing.T) {
	q := models.Question{Difficulty: models.DifficultyEasy, TimeLimitSeconds: 45}
	assert.Equal(t, 45, sampler.TimeLimit(q))
}

func TestTimeLimit_DifficultyDefaults(t *testing.T) {
	tests := []struct {
		difficulty string
		want       int
	}{
		{models.DifficultyEasy, 20},
		{models.DifficultyIntermediate, 15},
		{models.DifficultyHard, 10},
		{models.DifficultyExtraHard, 5},
		{models.DifficultyNoWay, 2},
	}
	for _, tt := range tests {
		q := models.Question{Difficulty: tt.difficulty}
		assert.Equal(t, tt.want, sampler.TimeLimit(q), "difficulty %s", tt.difficulty)
	}
}

func TestTimeLimit_UnknownDifficultyFallsBackToEasy(t *testing.T) {
	q := models.Question{Difficulty: "unheard_of"}
	assert.Equal(t, 20, sampler.TimeLimit(q))
}
