// Package grading holds the pure answer-grading algorithms: the timed grader
// for game attempts and the similarity-tiered fuzzy grader for quiz free text.
package grading

import (
	"math"
	"strconv"
	"strings"
)

// GracePeriodSeconds is the fixed extra time tolerated beyond a question's
// nominal limit. An answer taking limit+grace seconds or more is forced
// incorrect without looking at its content.
const GracePeriodSeconds = 2.0

// DefaultEpsilon is the absolute tolerance for numeric answer comparison.
const DefaultEpsilon = 0.001

// TimedInput carries everything the timed grader needs for one answer.
type TimedInput struct {
	CanonicalAnswer  string
	IsMultipleChoice bool
	StrictAnswer     bool
	TimeLimitSeconds int
	TimeTakenSeconds float64
	Submitted        string
	Epsilon          float64 // 0 falls back to DefaultEpsilon
}

// TimedResult is the outcome of grading one timed answer.
type TimedResult struct {
	Correct         bool
	CanonicalAnswer string
	TimedOut        bool
}

// GradeTimed grades a submitted answer under the question's time budget.
// The timeout check takes precedence over all content comparison.
func GradeTimed(in TimedInput) TimedResult {
	result := TimedResult{CanonicalAnswer: in.CanonicalAnswer}

	allowed := float64(in.TimeLimitSeconds) + GracePeriodSeconds
	if in.TimeTakenSeconds >= allowed {
		result.TimedOut = true
		return result
	}

	switch {
	case in.IsMultipleChoice:
		result.Correct = strings.TrimSpace(in.Submitted) == strings.TrimSpace(in.CanonicalAnswer)
	case in.StrictAnswer:
		result.Correct = strings.TrimSpace(in.Submitted) == strings.TrimSpace(in.CanonicalAnswer)
	default:
		result.Correct = looseEqual(in.CanonicalAnswer, in.Submitted, in.Epsilon)
	}
	return result
}

// looseEqual compares free-form answers: numeric equivalence within epsilon
// first, then fraction-normalized comparison, then case-folded text equality.
func looseEqual(canonical, submitted string, epsilon float64) bool {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	canonicalNum, canonicalOK := parseNumber(canonical)
	submittedNum, submittedOK := parseNumber(submitted)
	if canonicalOK && submittedOK {
		return math.Abs(canonicalNum-submittedNum) <= epsilon
	}

	canonicalNorm := normalize(canonical)
	submittedNorm := normalize(submitted)
	if canonicalNorm.numeric && submittedNorm.numeric {
		return math.Abs(canonicalNorm.value-submittedNorm.value) <= epsilon
	}
	if canonicalNorm.numeric != submittedNorm.numeric {
		return false
	}
	return canonicalNorm.text == submittedNorm.text
}

type normalized struct {
	numeric bool
	value   float64
	text    string
}

// normalize reduces a fraction string "n/d" to its decimal value (d=0 is
// rejected), parses a bare numeric string as-is, and otherwise falls back to
// the trimmed, case-folded text.
func normalize(s string) normalized {
	trimmed := strings.TrimSpace(s)
	if v, ok := parseNumber(trimmed); ok {
		return normalized{numeric: true, value: v}
	}
	if v, ok := parseFraction(trimmed); ok {
		return normalized{numeric: true, value: v}
	}
	return normalized{text: strings.ToLower(trimmed)}
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseFraction(s string) (float64, bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, false
	}
	n, okN := parseNumber(parts[0])
	d, okD := parseNumber(parts[1])
	if !okN || !okD || d == 0 {
		return 0, false
	}
	return n / d, true
}
