package api

import (
	"net/http"
	"time"

	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
)

type startGameRequest struct {
	MathTypeID int64  `json:"math_type_id"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type startGameResponse struct {
	AttemptID int64                          `json:"attempt_id"`
	Questions []models.PublicAttemptQuestion `json:"questions"`
	StartedAt time.Time                      `json:"started_at"`
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	log.Debug("handling game start")

	var req startGameRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	attempt, err := s.GameService.Start(r.Context(), caller(r), req.MathTypeID, req.Difficulty, req.Count)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, startGameResponse{
		AttemptID: attempt.ID,
		Questions: attempt.PublicQuestions(),
		StartedAt: attempt.StartedAt,
	})
}

type submitAnswerRequest struct {
	QuestionID       int64   `json:"question_id"`
	Answer           string  `json:"answer"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	attemptID, err := urlParamInt64(r, "attemptID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req submitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.GameService.SubmitAnswer(r.Context(), caller(r), attemptID, req.QuestionID, req.Answer, req.TimeTakenSeconds)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompleteGame(w http.ResponseWriter, r *http.Request) {
	attemptID, err := urlParamInt64(r, "attemptID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.GameService.Complete(r.Context(), caller(r), attemptID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearAttemptScore(w http.ResponseWriter, r *http.Request) {
	attemptID, err := urlParamInt64(r, "attemptID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.GameService.ClearAttemptScore(r.Context(), caller(r), attemptID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
