package services

import (
	"context"
	"fmt"

	"leadflow/internal/models"
	"leadflow/internal/pipeline"
	"leadflow/internal/repositories"
)

type RuleService struct {
	Repo   repositories.RuleRepository
	Stages repositories.StageRepository
	Leads  repositories.LeadRepository
	// Defaults apply to workspaces without a stored rule set.
	Defaults []models.ValidationRule
}

func NewRuleService(repo repositories.RuleRepository, stages repositories.StageRepository, leads repositories.LeadRepository, defaults []models.ValidationRule) *RuleService {
	return &RuleService{Repo: repo, Stages: stages, Leads: leads, Defaults: defaults}
}

func (s *RuleService) Rules(ctx context.Context, workspaceID string) ([]models.ValidationRule, error) {
	rules, err := s.Repo.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return s.Defaults, nil
	}
	return rules, nil
}

// ReplaceRules stores a new rule set. Every referenced stage must exist.
func (s *RuleService) ReplaceRules(ctx context.Context, workspaceID string, rules []models.ValidationRule) error {
	if err := pipeline.CheckRules(rules); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidRules, err)
	}
	stages, err := s.Stages.List(ctx, workspaceID)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(stages))
	for _, st := range stages {
		known[st.ID] = true
	}
	for _, r := range rules {
		for _, id := range r.AppliesToStages {
			if !known[id] {
				return fmt.Errorf("%w: rule for %s references unknown stage %q", models.ErrInvalidRules, r.Field, id)
			}
		}
	}
	return s.Repo.Replace(ctx, workspaceID, rules)
}

// ValidateLead previews what a move of the lead into stage would report.
func (s *RuleService) ValidateLead(ctx context.Context, workspaceID, leadID, stage string) ([]models.ValidationError, error) {
	if _, err := s.Stages.Get(ctx, workspaceID, stage); err != nil {
		return nil, err
	}
	lead, err := s.Leads.GetByID(ctx, workspaceID, leadID)
	if err != nil {
		return nil, err
	}
	rules, err := s.Rules(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	errs := pipeline.ValidateForStage(lead, stage, rules)
	if errs == nil {
		errs = []models.ValidationError{}
	}
	return errs, nil
}
