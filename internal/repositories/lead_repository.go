package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"leadflow/internal/models"
)

// Placement is where a mutated lead should end up. A nil SortOrder means
// "append to the end of Stage", resolved inside the same transaction.
type Placement struct {
	Stage     string
	SortOrder *float64
}

// MutateFunc inspects the locked lead and decides its placement.
// Returning a nil placement leaves the lead untouched; returning an error aborts.
type MutateFunc func(lead *models.Lead) (*Placement, error)

// ReorderFunc receives the locked leads of a stage and returns their new sort orders.
type ReorderFunc func(current []models.Lead) ([]models.SortAssignment, error)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, workspaceID, id string) (*models.Lead, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Lead, error)
	ListByStage(ctx context.Context, workspaceID, stage string) ([]models.Lead, error)
	// Mutate is an atomic read-modify-write on one lead (row lock held until commit).
	Mutate(ctx context.Context, workspaceID, id string, fn MutateFunc) (*models.Lead, error)
	ReorderStage(ctx context.Context, workspaceID, stage string, fn ReorderFunc) ([]models.SortAssignment, error)
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, workspace_id, stage, sort_order, name, email, phone, company, position, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }, l *models.Lead) error {
	return row.Scan(&l.ID, &l.WorkspaceID, &l.Stage, &l.SortOrder, &l.Name, &l.Email,
		&l.Phone, &l.Company, &l.Position, &l.CreatedAt, &l.UpdatedAt)
}

func appendPosition(ctx context.Context, q querier, workspaceID, stage, excludeID string) (float64, error) {
	var pos float64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sort_order), 0) + 1 FROM leads
		WHERE workspace_id = $1 AND stage = $2 AND id::text <> $3`,
		workspaceID, stage, excludeID).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("append position: %w", err)
	}
	return pos, nil
}

// Create inserts the lead at the end of its stage together with its custom fields.
func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create lead: %w", err)
	}
	defer rollback(tx)

	pos, err := appendPosition(ctx, tx, lead.WorkspaceID, lead.Stage, "")
	if err != nil {
		return err
	}
	lead.SortOrder = pos

	err = tx.QueryRowContext(ctx, `
		INSERT INTO leads (id, workspace_id, stage, sort_order, name, email, phone, company, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		lead.ID, lead.WorkspaceID, lead.Stage, lead.SortOrder, lead.Name, lead.Email,
		lead.Phone, lead.Company, lead.Position,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown stage %q", models.ErrInvalidStage, lead.Stage)
	}
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	for key, value := range lead.CustomFields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lead_custom_field_values (lead_id, field_key, value) VALUES ($1, $2, $3)`,
			lead.ID, key, value); err != nil {
			return fmt.Errorf("insert custom field %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create lead: %w", err)
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, workspaceID, id string) (*models.Lead, error) {
	return getLead(ctx, r.db, workspaceID, id, false)
}

func getLead(ctx context.Context, q querier, workspaceID, id string, forUpdate bool) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE workspace_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var l models.Lead
	err := scanLead(q.QueryRowContext(ctx, query, workspaceID, id), &l)
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	leads := []models.Lead{l}
	if err := loadCustomFields(ctx, q, leads); err != nil {
		return nil, err
	}
	return &leads[0], nil
}

func (r *leadRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.Lead, error) {
	return listLeads(ctx, r.db,
		`SELECT `+leadColumns+` FROM leads WHERE workspace_id = $1 ORDER BY stage, sort_order, id`,
		workspaceID)
}

func (r *leadRepository) ListByStage(ctx context.Context, workspaceID, stage string) ([]models.Lead, error) {
	return listLeads(ctx, r.db,
		`SELECT `+leadColumns+` FROM leads WHERE workspace_id = $1 AND stage = $2 ORDER BY sort_order, id`,
		workspaceID, stage)
}

func listLeads(ctx context.Context, q querier, query string, args ...any) ([]models.Lead, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := scanLead(rows, &l); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := loadCustomFields(ctx, q, leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// loadCustomFields fills CustomFields for every lead in one round trip.
func loadCustomFields(ctx context.Context, q querier, leads []models.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	ids := make([]string, len(leads))
	index := make(map[string]int, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
		index[l.ID] = i
	}

	rows, err := q.QueryContext(ctx,
		`SELECT lead_id, field_key, value FROM lead_custom_field_values WHERE lead_id::text = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load custom fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leadID, key, value string
		if err := rows.Scan(&leadID, &key, &value); err != nil {
			return fmt.Errorf("scan custom field: %w", err)
		}
		i, ok := index[leadID]
		if !ok {
			continue
		}
		if leads[i].CustomFields == nil {
			leads[i].CustomFields = map[string]string{}
		}
		leads[i].CustomFields[key] = value
	}
	return rows.Err()
}

func (r *leadRepository) Mutate(ctx context.Context, workspaceID, id string, fn MutateFunc) (*models.Lead, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mutate lead: %w", err)
	}
	defer rollback(tx)

	lead, err := getLead(ctx, tx, workspaceID, id, true)
	if err != nil {
		return nil, err
	}

	placement, err := fn(lead)
	if err != nil {
		return nil, err
	}
	if placement == nil {
		return lead, nil
	}

	pos := 0.0
	if placement.SortOrder != nil {
		pos = *placement.SortOrder
	} else if pos, err = appendPosition(ctx, tx, workspaceID, placement.Stage, id); err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE leads SET stage = $3, sort_order = $4, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING updated_at`,
		workspaceID, id, placement.Stage, pos).Scan(&lead.UpdatedAt)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("%w: stage %s", models.ErrNotFound, placement.Stage)
	}
	if err != nil {
		return nil, fmt.Errorf("update lead placement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mutate lead: %w", err)
	}

	lead.Stage = placement.Stage
	lead.SortOrder = pos
	return lead, nil
}

func (r *leadRepository) ReorderStage(ctx context.Context, workspaceID, stage string, fn ReorderFunc) ([]models.SortAssignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reorder leads: %w", err)
	}
	defer rollback(tx)

	current, err := listLeads(ctx, tx,
		`SELECT `+leadColumns+` FROM leads WHERE workspace_id = $1 AND stage = $2 ORDER BY sort_order, id FOR UPDATE`,
		workspaceID, stage)
	if err != nil {
		return nil, err
	}

	assignments, err := fn(current)
	if err != nil {
		return nil, err
	}

	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx, `
			UPDATE leads SET sort_order = $4, updated_at = NOW()
			WHERE workspace_id = $1 AND stage = $2 AND id = $3`,
			workspaceID, stage, a.LeadID, a.NewSortOrder); err != nil {
			return nil, fmt.Errorf("update sort order %s: %w", a.LeadID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reorder leads: %w", err)
	}
	return assignments, nil
}
