package api

import (
	"net/http"
	"strconv"

	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
)

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	q := r.URL.Query()
	filter := models.LeaderboardFilter{
		Difficulty: q.Get("difficulty"),
		Period:     q.Get("period"),
	}
	if v, err := strconv.ParseInt(q.Get("math_type_id"), 10, 64); err == nil {
		filter.MathTypeID = v
	}
	if v, err := strconv.ParseInt(q.Get("school_id"), 10, 64); err == nil {
		filter.SchoolID = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		filter.Limit = v
	}

	log.Debug("querying leaderboard: math_type_id=%d, difficulty=%s, period=%s",
		filter.MathTypeID, filter.Difficulty, filter.Period)

	entries, err := s.LeaderboardService.Top(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	entries, err := s.LeaderboardService.GlobalTop(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
