package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"leadflow/internal/models"
	"leadflow/internal/pipeline"
	"leadflow/internal/repositories"
)

// Transitioner is the part of TransitionService automation relies on.
type Transitioner interface {
	RequestTransition(ctx context.Context, workspaceID string, req models.TransitionRequest) (models.TransitionResult, error)
}

// PromotionService turns domain events into ordinary, validated transitions.
type PromotionService struct {
	Leads       repositories.LeadRepository
	Transitions Transitioner
	Promoter    *pipeline.Promoter
	log         zerolog.Logger
}

func NewPromotionService(leads repositories.LeadRepository, transitions Transitioner, promoter *pipeline.Promoter, log zerolog.Logger) *PromotionService {
	return &PromotionService{
		Leads:       leads,
		Transitions: transitions,
		Promoter:    promoter,
		log:         log.With().Str("component", "promotion").Logger(),
	}
}

// OnMessageSent advances a lead out of the early stages after a message was
// delivered to it. advanced is false when the lead was not in an early stage
// or validation kept it where it is.
func (s *PromotionService) OnMessageSent(ctx context.Context, workspaceID, leadID string) (result models.TransitionResult, advanced bool, err error) {
	lead, err := s.Leads.GetByID(ctx, workspaceID, leadID)
	if err != nil {
		return models.TransitionResult{}, false, err
	}
	if !s.Promoter.ShouldAutoAdvance(lead) {
		return models.TransitionResult{OK: true, Lead: lead}, false, nil
	}

	result, err = s.Transitions.RequestTransition(ctx, workspaceID, models.TransitionRequest{
		LeadID:    lead.ID,
		FromStage: lead.Stage,
		ToStage:   s.Promoter.NextStageAfterEvent(lead.Stage),
	})
	if err != nil {
		return models.TransitionResult{}, false, err
	}
	if !result.OK {
		s.log.Info().
			Str("workspace_id", workspaceID).
			Str("lead_id", leadID).
			Int("errors", len(result.Errors)).
			Msg("auto-advance blocked by validation")
	}
	return result, result.OK, nil
}

// PromoteEligible moves every eligible lead of the bulk source stage to the
// bulk target stage. On an infrastructure error the partial outcome is
// returned together with the error.
func (s *PromotionService) PromoteEligible(ctx context.Context, workspaceID string) (models.PromotionOutcome, error) {
	out := models.PromotionOutcome{
		Promoted: []string{},
		Skipped:  []string{},
		Failed:   map[string][]models.ValidationError{},
	}
	source, target := s.Promoter.BulkSource(), s.Promoter.BulkTarget()
	if source == "" || target == "" || source == target {
		return out, nil
	}

	leads, err := s.Leads.ListByStage(ctx, workspaceID, source)
	if err != nil {
		return out, err
	}
	pipeline.SortLeads(leads)

	for i := range leads {
		lead := &leads[i]
		if !pipeline.IsEligibleForPromotion(lead) {
			out.Skipped = append(out.Skipped, lead.ID)
			continue
		}
		res, err := s.Transitions.RequestTransition(ctx, workspaceID, models.TransitionRequest{
			LeadID:    lead.ID,
			FromStage: source,
			ToStage:   target,
		})
		switch {
		case errors.Is(err, models.ErrStageConflict), errors.Is(err, models.ErrNotFound):
			// moved or removed since the scan
			out.Skipped = append(out.Skipped, lead.ID)
		case err != nil:
			return out, err
		case res.OK:
			out.Promoted = append(out.Promoted, lead.ID)
		default:
			out.Failed[lead.ID] = res.Errors
		}
	}

	s.log.Info().
		Str("workspace_id", workspaceID).
		Int("promoted", len(out.Promoted)).
		Int("skipped", len(out.Skipped)).
		Int("failed", len(out.Failed)).
		Msg("bulk promotion finished")
	return out, nil
}
