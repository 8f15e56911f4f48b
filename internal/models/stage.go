package models

import "time"

// Stage is one column of a workspace pipeline.
type Stage struct {
	WorkspaceID string    `json:"workspace_id"`
	ID          string    `json:"id"` // slug, неизменяемый после создания
	Name        string    `json:"name"`
	ColorKey    string    `json:"color_key"`
	SortOrder   int       `json:"sort_order"`
	IsSystem    bool      `json:"is_system"`
	IsHidden    bool      `json:"is_hidden"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateStageRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" binding:"required"`
	ColorKey string `json:"color_key"`
}

// UpdateStageRequest carries optional fields; nil means "leave as is".
type UpdateStageRequest struct {
	Name     *string `json:"name"`
	ColorKey *string `json:"color_key"`
	IsHidden *bool   `json:"is_hidden"`
}

type ReorderStagesRequest struct {
	StageIDs []string `json:"stage_ids" binding:"required"`
}
