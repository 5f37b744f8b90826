package api

import (
	"net/http"
	"time"
)

type createCompetitionRequest struct {
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

func (s *Server) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req createCompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	competition, err := s.CompetitionService.Create(r.Context(), caller(r), req.Title, req.StartAt, req.EndAt)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, competition)
}

type addPointsRequest struct {
	UserID    int64  `json:"user_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	AttemptID *int64 `json:"attempt_id,omitempty"`
}

func (s *Server) handleAddCompetitionPoints(w http.ResponseWriter, r *http.Request) {
	competitionID, err := urlParamInt64(r, "competitionID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req addPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.CompetitionService.AddPoints(r.Context(), caller(r), competitionID, req.UserID, req.Delta, req.Reason, req.AttemptID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleCompetitionTotals(w http.ResponseWriter, r *http.Request) {
	competitionID, err := urlParamInt64(r, "competitionID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	totals, err := s.CompetitionService.Totals(r.Context(), caller(r), competitionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"totals": totals})
}

type endCompetitionRequest struct {
	EndAt *time.Time `json:"end_at,omitempty"`
}

func (s *Server) handleEndCompetition(w http.ResponseWriter, r *http.Request) {
	competitionID, err := urlParamInt64(r, "competitionID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req endCompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	// Omitting end_at ends the competition immediately.
	endAt := time.Now()
	if req.EndAt != nil {
		endAt = *req.EndAt
	}

	competition, err := s.CompetitionService.SetEndAt(r.Context(), caller(r), competitionID, endAt)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, competition)
}

type clearPointsRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleClearCompetitionPoints(w http.ResponseWriter, r *http.Request) {
	competitionID, err := urlParamInt64(r, "competitionID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req clearPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.CompetitionService.ClearPoints(r.Context(), caller(r), competitionID, req.UserID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
