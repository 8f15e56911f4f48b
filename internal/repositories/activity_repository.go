package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"leadflow/internal/models"
)

type ActivityRepository interface {
	Insert(ctx context.Context, a *models.Activity) error
	ListByLead(ctx context.Context, workspaceID, leadID string, limit int) ([]models.Activity, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Insert(ctx context.Context, a *models.Activity) error {
	meta := []byte("{}")
	if len(a.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(a.Metadata); err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO activity_logs (id, lead_id, workspace_id, action_type, old_value, new_value, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		a.ID, a.LeadID, a.WorkspaceID, a.ActionType, a.OldValue, a.NewValue, meta,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *activityRepository) ListByLead(ctx context.Context, workspaceID, leadID string, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, workspace_id, action_type, old_value, new_value, metadata, created_at
		FROM activity_logs
		WHERE workspace_id = $1 AND lead_id::text = $2
		ORDER BY created_at DESC
		LIMIT $3`, workspaceID, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var (
			a    models.Activity
			meta []byte
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &a.WorkspaceID, &a.ActionType,
			&a.OldValue, &a.NewValue, &meta, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, errors.Join(fmt.Errorf("decode activity metadata %s", a.ID), err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
