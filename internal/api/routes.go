package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(identityMiddleware)

		r.Post("/game/start", s.handleStartGame)
		r.Post("/game/{attemptID}/answer", s.handleSubmitAnswer)
		r.Post("/game/{attemptID}/complete", s.handleCompleteGame)

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/leaderboard/global", s.handleGlobalLeaderboard)

		r.Post("/quiz/{quizID}/start", s.handleStartQuiz)
		r.Get("/quiz/{quizID}/attempts", s.handleListQuizAttempts)
		r.Post("/quiz/attempts/{attemptID}/save", s.handleSaveQuizProgress)
		r.Post("/quiz/attempts/{attemptID}/submit", s.handleSubmitQuiz)
		r.Get("/quiz/attempts/{attemptID}", s.handleGetQuizAttempt)

		r.Post("/admin/competitions", s.handleCreateCompetition)
		r.Post("/admin/competitions/{competitionID}/points", s.handleAddCompetitionPoints)
		r.Get("/admin/competitions/{competitionID}/totals", s.handleCompetitionTotals)
		r.Post("/admin/competitions/{competitionID}/end", s.handleEndCompetition)
		r.Post("/admin/competitions/{competitionID}/clear-points", s.handleClearCompetitionPoints)
		r.Post("/admin/attempts/{attemptID}/clear-score", s.handleClearAttemptScore)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
