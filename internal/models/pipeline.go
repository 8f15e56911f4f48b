package models

import "time"

// ValidationRule requires Field to be present when a lead enters any of AppliesToStages.
type ValidationRule struct {
	Field           string   `json:"field" yaml:"field"`
	AppliesToStages []string `json:"applies_to_stages" yaml:"stages"`
	Message         string   `json:"message" yaml:"message"`
}

func (r ValidationRule) AppliesTo(stageID string) bool {
	for _, s := range r.AppliesToStages {
		if s == stageID {
			return true
		}
	}
	return false
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// TransitionRequest is one proposed move. Not persisted.
type TransitionRequest struct {
	LeadID             string   `json:"lead_id"`
	FromStage          string   `json:"from_stage"`
	ToStage            string   `json:"to_stage" binding:"required"`
	RequestedSortOrder *float64 `json:"sort_order,omitempty"`
}

// TransitionResult: OK == len(Errors) == 0.
type TransitionResult struct {
	OK     bool              `json:"ok"`
	Errors []ValidationError `json:"errors,omitempty"`
	Lead   *Lead             `json:"lead,omitempty"`
}

type SortAssignment struct {
	LeadID       string  `json:"lead_id"`
	NewSortOrder float64 `json:"sort_order"`
}

type ReorderLeadsRequest struct {
	LeadIDs []string `json:"lead_ids" binding:"required"`
}

const ActionStageChanged = "stage_changed"

// Activity is an audit record for downstream observers.
type Activity struct {
	ID          string         `json:"id"`
	LeadID      string         `json:"lead_id"`
	WorkspaceID string         `json:"workspace_id"`
	ActionType  string         `json:"action_type"`
	OldValue    string         `json:"old_value"`
	NewValue    string         `json:"new_value"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// BoardColumn is a visible stage with its leads in sort order.
type BoardColumn struct {
	Stage Stage  `json:"stage"`
	Leads []Lead `json:"leads"`
}

// PromotionOutcome summarises a bulk promotion run.
type PromotionOutcome struct {
	Promoted []string                     `json:"promoted"`
	Skipped  []string                     `json:"skipped"`
	Failed   map[string][]ValidationError `json:"failed,omitempty"`
}
