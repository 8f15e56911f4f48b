package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"leadflow/internal/models"
)

type RuleRepository interface {
	// List returns the workspace rule set in declaration order; empty when none is stored.
	List(ctx context.Context, workspaceID string) ([]models.ValidationRule, error)
	Replace(ctx context.Context, workspaceID string, rules []models.ValidationRule) error
}

type ruleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) List(ctx context.Context, workspaceID string) ([]models.ValidationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT field, applies_to, message FROM stage_validation_rules
		WHERE workspace_id = $1 ORDER BY position`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []models.ValidationRule
	for rows.Next() {
		var rule models.ValidationRule
		if err := rows.Scan(&rule.Field, pq.Array(&rule.AppliesToStages), &rule.Message); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *ruleRepository) Replace(ctx context.Context, workspaceID string, rules []models.ValidationRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace rules: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM stage_validation_rules WHERE workspace_id = $1`, workspaceID); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	for i, rule := range rules {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stage_validation_rules (workspace_id, position, field, applies_to, message)
			VALUES ($1, $2, $3, $4, $5)`,
			workspaceID, i+1, rule.Field, pq.Array(rule.AppliesToStages), rule.Message); err != nil {
			return fmt.Errorf("insert rule %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace rules: %w", err)
	}
	return nil
}
