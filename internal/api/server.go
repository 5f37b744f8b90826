package api

import (
	"github.com/mathrush/engine/internal/services"
)

// Server holds the HTTP surface's collaborators.
type Server struct {
	GameService        services.GameService
	QuizService        services.QuizService
	LeaderboardService services.LeaderboardService
	CompetitionService services.CompetitionService
}
