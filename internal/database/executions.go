package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when an execution is not in the running state.
var ErrInvalidTransition = errors.New("execution is not running")

// CreateExecution records a new running execution for an automation.
func (db *DB) CreateExecution(ctx context.Context, automationID, userID, siteID string) (*Execution, error) {
	id := uuid.NewString()
	query, args, err := psql.Insert("automation_executions").
		Columns("id", "automation_id", "user_id", "site_id", "status", "started_at").
		Values(id, automationID, userID, siteID, string(StatusRunning), db.timestamp()).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting execution: %w", err)
	}
	return db.GetExecution(ctx, id)
}

// CompleteExecution moves a running execution to completed with the post it produced.
func (db *DB) CompleteExecution(ctx context.Context, id, postID string) error {
	return db.finishExecution(ctx, id, map[string]any{
		"status":       string(StatusCompleted),
		"post_id":      postID,
		"completed_at": db.timestamp(),
	})
}

// FailExecution moves a running execution to failed with a reason.
func (db *DB) FailExecution(ctx context.Context, id, message string) error {
	return db.finishExecution(ctx, id, map[string]any{
		"status":        string(StatusFailed),
		"error_message": message,
		"completed_at":  db.timestamp(),
	})
}

func (db *DB) finishExecution(ctx context.Context, id string, set map[string]any) error {
	query, args, err := psql.Update("automation_executions").
		SetMap(set).
		Where(sq.Eq{"id": id, "status": string(StatusRunning)}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.GetExecution(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("execution %s: %w", id, ErrInvalidTransition)
	}
	return nil
}

// GetExecution returns an execution by ID, or ErrNotFound.
func (db *DB) GetExecution(ctx context.Context, id string) (*Execution, error) {
	query, args, err := executionColumns().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	e, err := scanExecution(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("execution %s: %w", id, ErrNotFound)
	}
	return e, err
}

// LastCompletedExecution returns the most recently started completed
// execution of an automation, or ErrNotFound when it never completed.
func (db *DB) LastCompletedExecution(ctx context.Context, automationID string) (*Execution, error) {
	query, args, err := executionColumns().
		Where(sq.Eq{"automation_id": automationID, "status": string(StatusCompleted)}).
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	e, err := scanExecution(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("completed execution for %s: %w", automationID, ErrNotFound)
	}
	return e, err
}

// ListExecutions returns executions newest first.
func (db *DB) ListExecutions(ctx context.Context, f ExecutionFilter) ([]Execution, error) {
	b := executionColumns().OrderBy("started_at DESC", "rowid DESC")
	if f.UserID != "" {
		b = b.Where(sq.Eq{"user_id": f.UserID})
	}
	if f.AutomationID != "" {
		b = b.Where(sq.Eq{"automation_id": f.AutomationID})
	}
	if f.SiteID != "" {
		b = b.Where(sq.Eq{"site_id": f.SiteID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func executionColumns() selectBuilder {
	return psql.Select("id", "automation_id", "user_id", "site_id", "status", "post_id",
		"error_message", "started_at", "completed_at").From("automation_executions")
}

func scanExecution(row scanner) (*Execution, error) {
	var e Execution
	var status, started string
	var completed *string
	if err := row.Scan(&e.ID, &e.AutomationID, &e.UserID, &e.SiteID, &status, &e.PostID,
		&e.ErrorMessage, &started, &completed); err != nil {
		return nil, err
	}
	e.Status = ExecutionStatus(status)

	var err error
	if e.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if e.CompletedAt, err = parseOptionalTime(completed); err != nil {
		return nil, err
	}
	return &e, nil
}
