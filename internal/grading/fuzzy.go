package grading

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity tiers for partial credit.
const (
	fullCreditSim  = 70
	halfCreditSim  = 50
	thirdCreditSim = 30
)

// Similarity returns a normalized similarity percentage between two strings,
// case-insensitive and trimmed: round(100 * (1 - lev/maxLen)).
func Similarity(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}

	dist := levenshtein.ComputeDistance(a, b)
	sim := int(math.Round(100 * (1 - float64(dist)/float64(maxLen))))
	if sim < 0 {
		return 0
	}
	return sim
}

// GradeFuzzy scores a free-text submission against one or more acceptable
// reference answers, awarding tiered partial credit on the best similarity.
// An empty submission always grades 0.
func GradeFuzzy(refs []string, submission string, points int) (awarded int, bestSim int) {
	if strings.TrimSpace(submission) == "" {
		return 0, 0
	}

	for _, ref := range refs {
		if sim := Similarity(ref, submission); sim > bestSim {
			bestSim = sim
		}
	}

	switch {
	case bestSim >= fullCreditSim:
		awarded = points
	case bestSim >= halfCreditSim:
		awarded = int(math.Round(float64(points) / 2))
	case bestSim >= thirdCreditSim:
		awarded = int(math.Round(float64(points) / 3))
	}
	return awarded, bestSim
}
