package handlers

import (
	"context"

	"leadflow/internal/models"
)

// Narrow views of the services, one per handler.

type StageService interface {
	ListStages(ctx context.Context, workspaceID string) ([]models.Stage, error)
	ListVisibleStages(ctx context.Context, workspaceID string) ([]models.Stage, error)
	CreateStage(ctx context.Context, workspaceID string, req models.CreateStageRequest) (*models.Stage, error)
	UpdateStage(ctx context.Context, workspaceID, id string, req models.UpdateStageRequest) (*models.Stage, error)
	DeleteStage(ctx context.Context, workspaceID, id string) error
	ReorderStages(ctx context.Context, workspaceID string, orderedIDs []string) ([]models.Stage, error)
	SeedSystemStages(ctx context.Context, workspaceID string) (int, error)
}

type RuleService interface {
	Rules(ctx context.Context, workspaceID string) ([]models.ValidationRule, error)
	ReplaceRules(ctx context.Context, workspaceID string, rules []models.ValidationRule) error
	ValidateLead(ctx context.Context, workspaceID, leadID, stage string) ([]models.ValidationError, error)
}

type TransitionService interface {
	RequestTransition(ctx context.Context, workspaceID string, req models.TransitionRequest) (models.TransitionResult, error)
	ReorderWithinStage(ctx context.Context, workspaceID, stageID string, orderedLeadIDs []string) ([]models.SortAssignment, error)
	CreateLead(ctx context.Context, workspaceID string, req models.CreateLeadRequest) (*models.Lead, []models.ValidationError, error)
	GetLead(ctx context.Context, workspaceID, leadID string) (*models.Lead, error)
	Board(ctx context.Context, workspaceID string) ([]models.BoardColumn, error)
}

type PromotionService interface {
	OnMessageSent(ctx context.Context, workspaceID, leadID string) (models.TransitionResult, bool, error)
	PromoteEligible(ctx context.Context, workspaceID string) (models.PromotionOutcome, error)
}

type ActivityService interface {
	ListForLead(ctx context.Context, workspaceID, leadID string, limit int) ([]models.Activity, error)
}

// ActivityFeed streams a workspace's activity as it happens.
type ActivityFeed interface {
	Subscribe(ctx context.Context, workspaceID string) (<-chan models.Activity, error)
}
