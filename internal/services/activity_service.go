package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"leadflow/internal/models"
	"leadflow/internal/repositories"
)

// ActivityRecorder is the fire-and-forget audit sink used after a committed transition.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity)
}

// EventPublisher fans activity out to live observers.
type EventPublisher interface {
	Publish(ctx context.Context, a models.Activity) error
}

type ActivityService struct {
	Repo      repositories.ActivityRepository
	Publisher EventPublisher // optional
	log       zerolog.Logger
}

func NewActivityService(repo repositories.ActivityRepository, publisher EventPublisher, log zerolog.Logger) *ActivityService {
	return &ActivityService{Repo: repo, Publisher: publisher, log: log.With().Str("component", "activity").Logger()}
}

// Record stores and publishes the activity. Failures are logged, never returned.
func (s *ActivityService) Record(ctx context.Context, a models.Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	if err := s.Repo.Insert(ctx, &a); err != nil {
		s.log.Warn().Err(err).
			Str("workspace_id", a.WorkspaceID).
			Str("lead_id", a.LeadID).
			Str("action", a.ActionType).
			Msg("activity not stored")
	}
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, a); err != nil {
		s.log.Warn().Err(err).
			Str("workspace_id", a.WorkspaceID).
			Str("lead_id", a.LeadID).
			Msg("activity not published")
	}
}

func (s *ActivityService) ListForLead(ctx context.Context, workspaceID, leadID string, limit int) ([]models.Activity, error) {
	return s.Repo.ListByLead(ctx, workspaceID, leadID, limit)
}
