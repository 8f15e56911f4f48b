package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"leadflow/internal/models"
	"leadflow/internal/pipeline"
	"leadflow/internal/repositories"
)

// TransitionService moves leads between and within stages.
type TransitionService struct {
	Stages   repositories.StageRepository
	Leads    repositories.LeadRepository
	Rules    *RuleService
	Activity ActivityRecorder
	log      zerolog.Logger
}

func NewTransitionService(
	stages repositories.StageRepository,
	leads repositories.LeadRepository,
	rules *RuleService,
	activity ActivityRecorder,
	log zerolog.Logger,
) *TransitionService {
	return &TransitionService{
		Stages:   stages,
		Leads:    leads,
		Rules:    rules,
		Activity: activity,
		log:      log.With().Str("component", "transitions").Logger(),
	}
}

// RequestTransition validates the persisted lead against the target stage
// and moves it when no rule fails. Validation failures come back as data.
// Read, validation and write happen under one row lock.
func (s *TransitionService) RequestTransition(ctx context.Context, workspaceID string, req models.TransitionRequest) (models.TransitionResult, error) {
	if strings.TrimSpace(req.ToStage) == "" {
		return models.TransitionResult{}, fmt.Errorf("%w: target stage is required", models.ErrInvalidStage)
	}
	if _, err := s.Stages.Get(ctx, workspaceID, req.ToStage); err != nil {
		return models.TransitionResult{}, err
	}
	rules, err := s.Rules.Rules(ctx, workspaceID)
	if err != nil {
		return models.TransitionResult{}, err
	}

	var (
		fromStage  string
		validation []models.ValidationError
	)
	lead, err := s.Leads.Mutate(ctx, workspaceID, req.LeadID, func(l *models.Lead) (*repositories.Placement, error) {
		if req.FromStage != "" && req.FromStage != l.Stage {
			return nil, fmt.Errorf("lead %s is in %q, not %q: %w", l.ID, l.Stage, req.FromStage, models.ErrStageConflict)
		}
		fromStage = l.Stage

		// same column: pure reorder, entry rules already held
		if l.Stage == req.ToStage {
			if req.RequestedSortOrder == nil {
				return nil, nil
			}
			return &repositories.Placement{Stage: l.Stage, SortOrder: req.RequestedSortOrder}, nil
		}

		validation = pipeline.ValidateForStage(l, req.ToStage, rules)
		if len(validation) > 0 {
			return nil, nil
		}
		return &repositories.Placement{Stage: req.ToStage, SortOrder: req.RequestedSortOrder}, nil
	})
	if err != nil {
		return models.TransitionResult{}, err
	}

	if len(validation) > 0 {
		s.log.Info().
			Str("workspace_id", workspaceID).
			Str("lead_id", req.LeadID).
			Str("stage", req.ToStage).
			Int("errors", len(validation)).
			Msg("transition rejected by validation")
		return models.TransitionResult{OK: false, Errors: validation}, nil
	}

	if fromStage != lead.Stage {
		s.log.Info().
			Str("workspace_id", workspaceID).
			Str("lead_id", lead.ID).
			Str("from", fromStage).
			Str("stage", lead.Stage).
			Msg("lead moved")
		if s.Activity != nil {
			s.Activity.Record(ctx, models.Activity{
				LeadID:      lead.ID,
				WorkspaceID: workspaceID,
				ActionType:  models.ActionStageChanged,
				OldValue:    fromStage,
				NewValue:    lead.Stage,
				Metadata:    map[string]any{"sort_order": lead.SortOrder},
			})
		}
	}
	return models.TransitionResult{OK: true, Lead: lead}, nil
}

// ReorderWithinStage persists a full resequencing of a stage. orderedLeadIDs
// must list every lead currently in the stage exactly once.
func (s *TransitionService) ReorderWithinStage(ctx context.Context, workspaceID, stageID string, orderedLeadIDs []string) ([]models.SortAssignment, error) {
	if _, err := s.Stages.Get(ctx, workspaceID, stageID); err != nil {
		return nil, err
	}
	return s.Leads.ReorderStage(ctx, workspaceID, stageID, func(current []models.Lead) ([]models.SortAssignment, error) {
		if err := pipeline.CheckPermutation(current, orderedLeadIDs); err != nil {
			return nil, err
		}
		return pipeline.ReorderWithinStage(orderedLeadIDs), nil
	})
}

// CreateLead places a new lead at the end of its stage (the first visible
// stage when none is given). Entry rules of that stage apply.
func (s *TransitionService) CreateLead(ctx context.Context, workspaceID string, req models.CreateLeadRequest) (*models.Lead, []models.ValidationError, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, []models.ValidationError{{Field: models.FieldName, Message: "name is required"}}, nil
	}

	stage := strings.TrimSpace(req.Stage)
	if stage == "" {
		stages, err := s.Stages.List(ctx, workspaceID)
		if err != nil {
			return nil, nil, err
		}
		visible := pipeline.VisibleStages(stages)
		if len(visible) == 0 {
			return nil, nil, fmt.Errorf("%w: workspace has no visible stages", models.ErrInvalidStage)
		}
		stage = visible[0].ID
	} else if _, err := s.Stages.Get(ctx, workspaceID, stage); err != nil {
		return nil, nil, err
	}

	lead := &models.Lead{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		Stage:        stage,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Company:      strings.TrimSpace(req.Company),
		Position:     strings.TrimSpace(req.Position),
		CustomFields: req.CustomFields,
	}

	rules, err := s.Rules.Rules(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}
	if errs := pipeline.ValidateForStage(lead, stage, rules); len(errs) > 0 {
		return nil, errs, nil
	}

	if err := s.Leads.Create(ctx, lead); err != nil {
		return nil, nil, err
	}
	return lead, nil, nil
}

func (s *TransitionService) GetLead(ctx context.Context, workspaceID, leadID string) (*models.Lead, error) {
	return s.Leads.GetByID(ctx, workspaceID, leadID)
}

// Board returns the visible stages in order, each with its leads sorted.
// Leads sitting in hidden stages are left out.
func (s *TransitionService) Board(ctx context.Context, workspaceID string) ([]models.BoardColumn, error) {
	stages, err := s.Stages.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	leads, err := s.Leads.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	board := pipeline.NewBoard(leads)
	visible := pipeline.VisibleStages(stages)
	columns := make([]models.BoardColumn, 0, len(visible))
	for _, st := range visible {
		inStage := board.InStage(st.ID)
		if inStage == nil {
			inStage = []models.Lead{}
		}
		columns = append(columns, models.BoardColumn{Stage: st, Leads: inStage})
	}
	return columns, nil
}
