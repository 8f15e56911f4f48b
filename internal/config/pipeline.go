package config

import (
	"leadflow/internal/models"
	"leadflow/internal/pipeline"
)

// DefaultRules is the rule set used by workspaces that have not configured their own.
func (p PipelineConfig) DefaultRules() []models.ValidationRule {
	rules := make([]models.ValidationRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, models.ValidationRule{
			Field:           r.Field,
			AppliesToStages: append([]string(nil), r.Stages...),
			Message:         r.Message,
		})
	}
	return rules
}

func (p PipelineConfig) PromotionSettings() pipeline.PromotionConfig {
	return pipeline.PromotionConfig{
		EarlyStages:     append([]string(nil), p.Promotion.EarlyStages...),
		TargetStage:     p.Promotion.TargetStage,
		BulkSourceStage: p.Promotion.BulkSourceStage,
		BulkTargetStage: p.Promotion.BulkTargetStage,
	}
}

// SystemStages turns the seed list into stages; sort order follows list order.
func (p PipelineConfig) SystemStages(workspaceID string) []models.Stage {
	out := make([]models.Stage, 0, len(p.Stages))
	for i, s := range p.Stages {
		out = append(out, models.Stage{
			WorkspaceID: workspaceID,
			ID:          s.ID,
			Name:        s.Name,
			ColorKey:    s.ColorKey,
			SortOrder:   i + 1,
			IsSystem:    true,
		})
	}
	return out
}
