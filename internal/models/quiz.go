package models

import "time"

// Quiz question kinds.
const (
	QuizQuestionDirect   = "direct"
	QuizQuestionMultiple = "multiple"
	QuizQuestionFill     = "fill"
)

// QuizQuestion is one question of a teacher-authored quiz. CorrectAnswer is a
// choice-id set for "multiple" questions and free text (or a list of accepted
// texts) for "direct"/"fill".
type QuizQuestion struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Prompt        string      `json:"prompt"`
	Choices       []string    `json:"choices,omitempty"`
	CorrectAnswer AnswerValue `json:"correct_answer"`
	Points        int         `json:"points"`
}

// QuizDefinition is read-only quiz content from the authoring store.
type QuizDefinition struct {
	ID                 int64          `json:"id"`
	Questions          []QuizQuestion `json:"questions"`
	DurationMinutes    int            `json:"duration_minutes"`
	ExtraTimeMinutes   int            `json:"extra_time_minutes"`
	RandomizeQuestions bool           `json:"randomize_questions"`
	ClassIDs           []int64        `json:"class_ids,omitempty"`
	Active             bool           `json:"active"`
}

// MaxScore is the sum of all question point values.
func (q QuizDefinition) MaxScore() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// AllowsClass reports whether a student in the given classes may start the
// quiz. An empty ClassIDs list admits everyone.
func (q QuizDefinition) AllowsClass(classIDs []int64) bool {
	if len(q.ClassIDs) == 0 {
		return true
	}
	for _, allowed := range q.ClassIDs {
		for _, have := range classIDs {
			if allowed == have {
				return true
			}
		}
	}
	return false
}

// QuizAnswer is a student's answer to one snapshotted question.
type QuizAnswer struct {
	QuestionID    string      `json:"question_id"`
	Answer        AnswerValue `json:"answer"`
	PointsAwarded int         `json:"points_awarded"`
}

// QuizAttempt is one student's run through a quiz. Questions is an immutable
// snapshot taken at start time; grading never consults the live definition.
type QuizAttempt struct {
	ID               int64          `json:"id"`
	QuizID           int64          `json:"quiz_id"`
	StudentID        int64          `json:"student_id"`
	QuestionOrder    []string       `json:"question_order"`
	Questions        []QuizQuestion `json:"questions"`
	Answers          []QuizAnswer   `json:"answers"`
	StartedAt        time.Time      `json:"started_at"`
	SubmittedAt      *time.Time     `json:"submitted_at,omitempty"`
	ExtraTimeMinutes int            `json:"extra_time_minutes"`
	Score            int            `json:"score"`
	MaxScore         int            `json:"max_score"`
	Submitted        bool           `json:"submitted"`
	Version          int64          `json:"-"`
}

// SnapshotQuestion returns the snapshotted question with the given id.
func (a *QuizAttempt) SnapshotQuestion(questionID string) *QuizQuestion {
	for i := range a.Questions {
		if a.Questions[i].ID == questionID {
			return &a.Questions[i]
		}
	}
	return nil
}

// MergeAnswers upserts the given answers into the attempt by question id,
// ignoring answers that do not target a snapshotted question.
func (a *QuizAttempt) MergeAnswers(answers []QuizAnswer) {
	for _, incoming := range answers {
		if a.SnapshotQuestion(incoming.QuestionID) == nil {
			continue
		}
		replaced := false
		for i := range a.Answers {
			if a.Answers[i].QuestionID == incoming.QuestionID {
				a.Answers[i].Answer = incoming.Answer
				replaced = true
				break
			}
		}
		if !replaced {
			a.Answers = append(a.Answers, QuizAnswer{QuestionID: incoming.QuestionID, Answer: incoming.Answer})
		}
	}
}

// AnswerFor returns the recorded answer for a question id, or nil.
func (a *QuizAttempt) AnswerFor(questionID string) *QuizAnswer {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return &a.Answers[i]
		}
	}
	return nil
}
