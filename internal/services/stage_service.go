package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"leadflow/internal/models"
	"leadflow/internal/pipeline"
	"leadflow/internal/repositories"
)

// StageService is the stage registry of a workspace.
type StageService struct {
	Repo repositories.StageRepository
	// SystemStages is the seed template; WorkspaceID is filled per workspace.
	SystemStages []models.Stage
	log          zerolog.Logger
}

func NewStageService(repo repositories.StageRepository, systemStages []models.Stage, log zerolog.Logger) *StageService {
	return &StageService{Repo: repo, SystemStages: systemStages, log: log.With().Str("component", "stages").Logger()}
}

func (s *StageService) ListStages(ctx context.Context, workspaceID string) ([]models.Stage, error) {
	stages, err := s.Repo.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return pipeline.SortStages(stages), nil
}

func (s *StageService) ListVisibleStages(ctx context.Context, workspaceID string) ([]models.Stage, error) {
	stages, err := s.Repo.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return pipeline.VisibleStages(stages), nil
}

func (s *StageService) GetStage(ctx context.Context, workspaceID, id string) (*models.Stage, error) {
	return s.Repo.Get(ctx, workspaceID, id)
}

// CreateStage appends a custom stage. The id defaults to a slug of the name.
func (s *StageService) CreateStage(ctx context.Context, workspaceID string, req models.CreateStageRequest) (*models.Stage, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidStage)
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = pipeline.Slugify(name)
	}
	if id == "" || pipeline.Slugify(id) != id {
		return nil, fmt.Errorf("%w: id %q must be a lowercase slug", models.ErrInvalidStage, id)
	}

	stage := &models.Stage{
		WorkspaceID: workspaceID,
		ID:          id,
		Name:        name,
		ColorKey:    req.ColorKey,
	}
	if err := s.Repo.Create(ctx, stage); err != nil {
		return nil, err
	}
	s.log.Info().Str("workspace_id", workspaceID).Str("stage", id).Msg("stage created")
	return stage, nil
}

// UpdateStage changes name, color or visibility. The id never changes.
func (s *StageService) UpdateStage(ctx context.Context, workspaceID, id string, req models.UpdateStageRequest) (*models.Stage, error) {
	stage, err := s.Repo.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", models.ErrInvalidStage)
		}
		stage.Name = name
	}
	if req.ColorKey != nil {
		stage.ColorKey = *req.ColorKey
	}
	if req.IsHidden != nil {
		stage.IsHidden = *req.IsHidden
	}
	if err := s.Repo.Update(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

// DeleteStage refuses system stages outright and custom stages that still hold leads.
func (s *StageService) DeleteStage(ctx context.Context, workspaceID, id string) error {
	stage, err := s.Repo.Get(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	if stage.IsSystem {
		return models.ErrSystemStageProtected
	}
	count, err := s.Repo.CountLeads(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return models.ErrHasDependentLeads
	}
	if err := s.Repo.Delete(ctx, workspaceID, id); err != nil {
		return err
	}
	s.log.Info().Str("workspace_id", workspaceID).Str("stage", id).Msg("stage deleted")
	return nil
}

// ReorderStages gives the listed stages sort orders 1..n; unlisted stages follow.
func (s *StageService) ReorderStages(ctx context.Context, workspaceID string, orderedIDs []string) ([]models.Stage, error) {
	current, err := s.Repo.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	ordered, err := pipeline.AssignStageOrder(current, orderedIDs)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.ReplaceOrder(ctx, workspaceID, ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

// SeedSystemStages inserts the configured system stages missing from the
// workspace. Calling it again is a no-op.
func (s *StageService) SeedSystemStages(ctx context.Context, workspaceID string) (int, error) {
	existing, err := s.Repo.List(ctx, workspaceID)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, st := range existing {
		have[st.ID] = true
	}

	next := pipeline.NextStageOrder(existing)
	var missing []models.Stage
	for _, seed := range s.SystemStages {
		if have[seed.ID] {
			continue
		}
		seed.WorkspaceID = workspaceID
		seed.IsSystem = true
		seed.SortOrder = next
		next++
		missing = append(missing, seed)
	}
	if len(missing) == 0 {
		return 0, nil
	}

	n, err := s.Repo.InsertIfMissing(ctx, missing)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("workspace_id", workspaceID).Int("inserted", n).Msg("system stages seeded")
	return n, nil
}
