package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leadflow/internal/models"
)

type StageRepository interface {
	List(ctx context.Context, workspaceID string) ([]models.Stage, error)
	Get(ctx context.Context, workspaceID, id string) (*models.Stage, error)
	Create(ctx context.Context, stage *models.Stage) error
	Update(ctx context.Context, stage *models.Stage) error
	Delete(ctx context.Context, workspaceID, id string) error
	CountLeads(ctx context.Context, workspaceID, id string) (int, error)
	// ReplaceOrder rewrites sort_order for every given stage in one transaction.
	ReplaceOrder(ctx context.Context, workspaceID string, stages []models.Stage) error
	// InsertIfMissing inserts stages whose id is not taken yet and reports how many were added.
	InsertIfMissing(ctx context.Context, stages []models.Stage) (int, error)
}

type stageRepository struct {
	db *sql.DB
}

func NewStageRepository(db *sql.DB) StageRepository {
	return &stageRepository{db: db}
}

const stageColumns = `workspace_id, id, name, color_key, sort_order, is_system, is_hidden, created_at, updated_at`

func scanStage(row interface{ Scan(...any) error }, s *models.Stage) error {
	return row.Scan(&s.WorkspaceID, &s.ID, &s.Name, &s.ColorKey, &s.SortOrder,
		&s.IsSystem, &s.IsHidden, &s.CreatedAt, &s.UpdatedAt)
}

func (r *stageRepository) List(ctx context.Context, workspaceID string) ([]models.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE workspace_id = $1 ORDER BY sort_order, id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var stages []models.Stage
	for rows.Next() {
		var s models.Stage
		if err := scanStage(rows, &s); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *stageRepository) Get(ctx context.Context, workspaceID, id string) (*models.Stage, error) {
	var s models.Stage
	err := scanStage(r.db.QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE workspace_id = $1 AND id = $2`, workspaceID, id), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stage: %w", err)
	}
	return &s, nil
}

// Create appends the stage after the current last one. Concurrent creates in
// one workspace queue on an advisory lock so each sees the previous MAX.
func (r *stageRepository) Create(ctx context.Context, stage *models.Stage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create stage: %w", err)
	}
	defer rollback(tx)

	if err := lockWorkspaceStages(ctx, tx, stage.WorkspaceID); err != nil {
		return err
	}

	const query = `
		INSERT INTO stages (workspace_id, id, name, color_key, sort_order, is_system, is_hidden)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(sort_order), 0) + 1 FROM stages WHERE workspace_id = $1),
			$5, $6)
		RETURNING sort_order, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		stage.WorkspaceID, stage.ID, stage.Name, stage.ColorKey, stage.IsSystem, stage.IsHidden,
	).Scan(&stage.SortOrder, &stage.CreatedAt, &stage.UpdatedAt)
	if err == nil {
		err = tx.Commit()
	}
	return createStageError(err, stage.ID)
}

// createStageError tells a taken id (caller error) from a lost race on the
// sort position (retryable).
func createStageError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case violatesConstraint(err, stageSortOrderConstraint):
		return fmt.Errorf("stage %q: position taken by a concurrent change: %w", id, models.ErrConcurrentUpdate)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: stage %q already exists", models.ErrInvalidStage, id)
	default:
		return fmt.Errorf("create stage: %w", err)
	}
}

func (r *stageRepository) Update(ctx context.Context, stage *models.Stage) error {
	const query = `
		UPDATE stages SET name = $3, color_key = $4, is_hidden = $5, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		stage.WorkspaceID, stage.ID, stage.Name, stage.ColorKey, stage.IsHidden,
	).Scan(&stage.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

func (r *stageRepository) Delete(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if isForeignKeyViolation(err) {
		// a lead landed in the stage after the dependency check
		return models.ErrHasDependentLeads
	}
	if err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *stageRepository) CountLeads(ctx context.Context, workspaceID, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE workspace_id = $1 AND stage = $2`, workspaceID, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stage leads: %w", err)
	}
	return count, nil
}

func (r *stageRepository) ReplaceOrder(ctx context.Context, workspaceID string, stages []models.Stage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder stages: %w", err)
	}
	defer rollback(tx)

	if err := lockWorkspaceStages(ctx, tx, workspaceID); err != nil {
		return err
	}
	// sort_order uniqueness is deferred to commit, so swaps are fine mid-transaction.
	for _, s := range stages {
		res, err := tx.ExecContext(ctx,
			`UPDATE stages SET sort_order = $3, updated_at = NOW() WHERE workspace_id = $1 AND id = $2`,
			workspaceID, s.ID, s.SortOrder)
		if err != nil {
			return fmt.Errorf("reorder stage %s: %w", s.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: stage %s", models.ErrNotFound, s.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return models.ErrInvalidOrdering
		}
		return fmt.Errorf("commit reorder stages: %w", err)
	}
	return nil
}

func (r *stageRepository) InsertIfMissing(ctx context.Context, stages []models.Stage) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed stages: %w", err)
	}
	defer rollback(tx)

	locked := map[string]bool{}
	for _, s := range stages {
		if locked[s.WorkspaceID] {
			continue
		}
		if err := lockWorkspaceStages(ctx, tx, s.WorkspaceID); err != nil {
			return 0, err
		}
		locked[s.WorkspaceID] = true
	}

	const query = `
		INSERT INTO stages (workspace_id, id, name, color_key, sort_order, is_system, is_hidden)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (workspace_id, id) DO NOTHING`
	inserted := 0
	for _, s := range stages {
		res, err := tx.ExecContext(ctx, query,
			s.WorkspaceID, s.ID, s.Name, s.ColorKey, s.SortOrder, s.IsSystem, s.IsHidden)
		if err != nil {
			return 0, fmt.Errorf("seed stage %s: %w", s.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		if violatesConstraint(err, stageSortOrderConstraint) {
			return 0, fmt.Errorf("seed stages: %w", models.ErrConcurrentUpdate)
		}
		return 0, fmt.Errorf("commit seed stages: %w", err)
	}
	return inserted, nil
}
