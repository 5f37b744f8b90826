package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mathrush/engine/internal/errors"
	"github.com/mathrush/engine/internal/identity"
	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/models"
	"github.com/mathrush/engine/internal/notify"
	"github.com/mathrush/engine/internal/repository"
)

// CompetitionService manages time-boxed point competitions and their
// append-only ledger.
type CompetitionService interface {
	Create(ctx context.Context, caller identity.Caller, title string, startAt, endAt time.Time) (*models.Competition, error)
	AddPoints(ctx context.Context, caller identity.Caller, competitionID, userID int64, delta int, reason string, attemptID *int64) (*models.CompetitionResult, error)
	Totals(ctx context.Context, caller identity.Caller, competitionID int64) ([]models.CompetitionTotal, error)
	// SetEndAt moves the end of the window; moving it into the past
	// triggers finalization. On an already finalized competition the call
	// is a no-op: the requested endAt is discarded and the stored row is
	// returned unchanged.
	SetEndAt(ctx context.Context, caller identity.Caller, competitionID int64, endAt time.Time) (*models.Competition, error)
	ClearPoints(ctx context.Context, caller identity.Caller, competitionID, userID int64) error
}

type competitionService struct {
	competitions repository.CompetitionRepository
	dispatcher   *notify.Dispatcher
}

// NewCompetitionService creates a new CompetitionService
func NewCompetitionService(competitions repository.CompetitionRepository, dispatcher *notify.Dispatcher) CompetitionService {
	return &competitionService{competitions: competitions, dispatcher: dispatcher}
}

func (s *competitionService) Create(ctx context.Context, caller identity.Caller, title string, startAt, endAt time.Time) (*models.Competition, error) {
	log := logger.FromContext(ctx)

	if !caller.Admin() {
		return nil, errors.NewForbiddenError("creating competitions requires the admin role")
	}
	if title == "" {
		return nil, errors.NewInvalidArgumentError("title", "must not be empty")
	}
	if !endAt.After(startAt) {
		return nil, errors.NewInvalidArgumentError("end_at", "must be after start_at")
	}

	competition := models.Competition{
		Title:     title,
		StartAt:   startAt,
		EndAt:     endAt,
		CreatedBy: caller.UserID,
		CreatedAt: time.Now(),
	}
	id, err := s.competitions.Insert(ctx, competition)
	if err != nil {
		log.Error("failed to create competition: %v", err)
		return nil, errors.NewInternalError(err)
	}
	competition.ID = id

	log.Info("competition created: id=%d, title=%s", id, title)
	return &competition, nil
}

func (s *competitionService) AddPoints(ctx context.Context, caller identity.Caller, competitionID, userID int64, delta int, reason string, attemptID *int64) (*models.CompetitionResult, error) {
	log := logger.FromContext(ctx)

	if !caller.Admin() {
		return nil, errors.NewForbiddenError("awarding competition points requires the admin role")
	}

	competition, err := s.get(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Finalized {
		return nil, errors.NewInvalidArgumentError("competition_id", "competition is already finalized")
	}

	result := models.CompetitionResult{
		CompetitionID: competitionID,
		UserID:        userID,
		Delta:         delta,
		Reason:        reason,
		AttemptID:     attemptID,
		CreatedAt:     time.Now(),
	}
	id, err := s.competitions.InsertResult(ctx, result)
	if err != nil {
		log.Error("failed to append competition delta: %v", err)
		return nil, errors.NewInternalError(err)
	}
	result.ID = id

	log.Info("competition points recorded: competition_id=%d, user_id=%d, delta=%d", competitionID, userID, delta)
	return &result, nil
}

func (s *competitionService) Totals(ctx context.Context, caller identity.Caller, competitionID int64) ([]models.CompetitionTotal, error) {
	if !caller.Privileged() {
		return nil, errors.NewForbiddenError("viewing competition totals requires a staff role")
	}
	if _, err := s.get(ctx, competitionID); err != nil {
		return nil, err
	}

	totals, err := s.competitions.Totals(ctx, competitionID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to compute totals: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return totals, nil
}

func (s *competitionService) SetEndAt(ctx context.Context, caller identity.Caller, competitionID int64, endAt time.Time) (*models.Competition, error) {
	log := logger.FromContext(ctx)

	if !caller.Admin() {
		return nil, errors.NewForbiddenError("editing competitions requires the admin role")
	}

	competition, err := s.get(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	// Retrying finalization is a no-op: no second announcement, nothing
	// left to delete.
	if competition.Finalized {
		return competition, nil
	}

	if err := s.competitions.SetEndAt(ctx, competitionID, endAt); err != nil {
		log.Error("failed to update end_at: %v", err)
		return nil, errors.NewInternalError(err)
	}
	competition.EndAt = endAt

	if !endAt.After(time.Now()) {
		if err := s.finalize(ctx, competition); err != nil {
			return nil, err
		}
	}
	return competition, nil
}

// finalize closes a competition: compute the winner, announce best-effort,
// wipe the ledger, mark done. Destructive and one-way.
func (s *competitionService) finalize(ctx context.Context, competition *models.Competition) error {
	log := logger.FromContext(ctx)
	log.Info("finalizing competition: id=%d, title=%s", competition.ID, competition.Title)

	totals, err := s.competitions.Totals(ctx, competition.ID)
	if err != nil {
		log.Error("failed to compute final totals: %v", err)
		return errors.NewInternalError(err)
	}

	if len(totals) > 0 {
		winner := totals[0]
		s.dispatcher.Dispatch(winner.UserID,
			fmt.Sprintf("You won %q with %d points!", competition.Title, winner.Total))
	}

	deleted, err := s.competitions.DeleteResults(ctx, competition.ID)
	if err != nil {
		log.Error("failed to delete competition results: %v", err)
		return errors.NewInternalError(err)
	}
	if err := s.competitions.MarkFinalized(ctx, competition.ID); err != nil {
		log.Error("failed to mark competition finalized: %v", err)
		return errors.NewInternalError(err)
	}
	competition.Finalized = true

	log.Info("competition finalized: id=%d, participants=%d, deltas_deleted=%d", competition.ID, len(totals), deleted)
	return nil
}

func (s *competitionService) ClearPoints(ctx context.Context, caller identity.Caller, competitionID, userID int64) error {
	log := logger.FromContext(ctx)

	if !caller.Admin() {
		return errors.NewForbiddenError("clearing competition points requires the admin role")
	}
	if _, err := s.get(ctx, competitionID); err != nil {
		return err
	}

	deleted, err := s.competitions.DeleteUserResults(ctx, competitionID, userID)
	if err != nil {
		log.Error("failed to clear user points: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("competition points cleared: competition_id=%d, user_id=%d, deltas_deleted=%d", competitionID, userID, deleted)
	return nil
}

func (s *competitionService) get(ctx context.Context, competitionID int64) (*models.Competition, error) {
	competition, err := s.competitions.Get(ctx, competitionID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load competition: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if competition == nil {
		return nil, errors.NewNotFoundError("competition", competitionID)
	}
	return competition, nil
}
