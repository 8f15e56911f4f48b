package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// stageSortOrderConstraint keeps stage positions unique per workspace (checked at commit).
const stageSortOrderConstraint = "stages_sort_order_unique"

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pqCode(err) == pqUniqueViolation }
func isForeignKeyViolation(err error) bool { return pqCode(err) == pqForeignKeyViolation }
func isInvalidText(err error) bool         { return pqCode(err) == pqInvalidText }

func violatesConstraint(err error, name string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Constraint == name
}

// lockWorkspaceStages serializes stage appends and reorders of one workspace
// until tx ends.
func lockWorkspaceStages(ctx context.Context, tx *sql.Tx, workspaceID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "stages:"+workspaceID); err != nil {
		return fmt.Errorf("lock workspace stages: %w", err)
	}
	return nil
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
