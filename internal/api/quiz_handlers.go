package api

import (
	"net/http"
	"time"

	"github.com/mathrush/engine/internal/models"
)

// quizQuestionView is the client-facing projection of a snapshotted quiz
// question. It never carries the correct answer.
type quizQuestionView struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices,omitempty"`
	Points  int      `json:"points"`
}

type quizAttemptView struct {
	ID               int64               `json:"id"`
	QuizID           int64               `json:"quiz_id"`
	StudentID        int64               `json:"student_id"`
	QuestionOrder    []string            `json:"question_order"`
	Questions        []quizQuestionView  `json:"questions"`
	Answers          []models.QuizAnswer `json:"answers"`
	StartedAt        time.Time           `json:"started_at"`
	SubmittedAt      *time.Time          `json:"submitted_at,omitempty"`
	ExtraTimeMinutes int                 `json:"extra_time_minutes"`
	Score            int                 `json:"score"`
	MaxScore         int                 `json:"max_score"`
	Submitted        bool                `json:"submitted"`
}

func quizAttemptViewOf(a *models.QuizAttempt) quizAttemptView {
	questions := make([]quizQuestionView, len(a.Questions))
	for i, q := range a.Questions {
		questions[i] = quizQuestionView{
			ID:      q.ID,
			Type:    q.Type,
			Prompt:  q.Prompt,
			Choices: q.Choices,
			Points:  q.Points,
		}
	}
	return quizAttemptView{
		ID:               a.ID,
		QuizID:           a.QuizID,
		StudentID:        a.StudentID,
		QuestionOrder:    a.QuestionOrder,
		Questions:        questions,
		Answers:          a.Answers,
		StartedAt:        a.StartedAt,
		SubmittedAt:      a.SubmittedAt,
		ExtraTimeMinutes: a.ExtraTimeMinutes,
		Score:            a.Score,
		MaxScore:         a.MaxScore,
		Submitted:        a.Submitted,
	}
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := urlParamInt64(r, "quizID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	attempt, err := s.QuizService.Start(r.Context(), caller(r), quizID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quizAttemptViewOf(attempt))
}

type saveQuizProgressRequest struct {
	Answers          []models.QuizAnswer `json:"answers"`
	ExtraTimeMinutes int                 `json:"extra_time_minutes"`
}

func (s *Server) handleSaveQuizProgress(w http.ResponseWriter, r *http.Request) {
	attemptID, err := urlParamInt64(r, "attemptID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req saveQuizProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	attempt, err := s.QuizService.SaveProgress(r.Context(), caller(r), attemptID, req.Answers, req.ExtraTimeMinutes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizAttemptViewOf(attempt))
}

type submitQuizRequest struct {
	Answers []models.QuizAnswer `json:"answers"`
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	attemptID, err := urlParamInt64(r, "attemptID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req submitQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	attempt, err := s.QuizService.Submit(r.Context(), caller(r), attemptID, req.Answers)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizAttemptViewOf(attempt))
}

func (s *Server) handleListQuizAttempts(w http.ResponseWriter, r *http.Request) {
	quizID, err := urlParamInt64(r, "quizID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	attempts, err := s.QuizService.ListAttempts(r.Context(), caller(r), quizID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	views := make([]quizAttemptView, len(attempts))
	for i := range attempts {
		views[i] = quizAttemptViewOf(&attempts[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": views})
}

func (s *Server) handleGetQuizAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, err := urlParamInt64(r, "attemptID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	attempt, err := s.QuizService.GetAttempt(r.Context(), caller(r), attemptID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizAttemptViewOf(attempt))
}
