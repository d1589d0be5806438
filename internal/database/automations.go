package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// InsertAutomation stores an automation setting for a site.
func (db *DB) InsertAutomation(ctx context.Context, a AutomationSetting) (*AutomationSetting, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	days, err := encodeStrings(a.SelectedDays)
	if err != nil {
		return nil, err
	}
	now := db.timestamp()

	query, args, err := psql.Insert("automation_settings").
		Columns("id", "user_id", "site_id", "business_category", "days_per_week", "frequency",
			"selected_days", "created_at", "updated_at").
		Values(a.ID, a.UserID, a.SiteID, a.BusinessCategory, a.DaysPerWeek, a.Frequency, days, now, now).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting automation: %w", err)
	}
	return db.GetAutomation(ctx, a.ID)
}

// GetAutomation returns an automation by ID, or ErrNotFound.
func (db *DB) GetAutomation(ctx context.Context, id string) (*AutomationSetting, error) {
	query, args, err := automationColumns().Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}
	a, err := scanAutomation(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("automation %s: %w", id, ErrNotFound)
	}
	return a, err
}

// ListAutomations returns every automation setting, oldest first.
func (db *DB) ListAutomations(ctx context.Context) ([]AutomationSetting, error) {
	query, args, err := automationColumns().OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AutomationSetting
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteAutomation removes an automation and its executions.
func (db *DB) DeleteAutomation(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM automation_settings WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectAffected(res, "automation", id)
}

func automationColumns() selectBuilder {
	return psql.Select("id", "user_id", "site_id", "business_category", "days_per_week", "frequency",
		"selected_days", "created_at", "updated_at").From("automation_settings")
}

func scanAutomation(row scanner) (*AutomationSetting, error) {
	var a AutomationSetting
	var days *string
	var created, updated string
	if err := row.Scan(&a.ID, &a.UserID, &a.SiteID, &a.BusinessCategory, &a.DaysPerWeek, &a.Frequency,
		&days, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if a.SelectedDays, err = decodeStrings(days); err != nil {
		return nil, fmt.Errorf("decoding selected_days: %w", err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}

// encodeStrings stores a string list as a JSON array; nil stays NULL.
func encodeStrings(values []string) (*string, error) {
	if values == nil {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func decodeStrings(s *string) ([]string, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(*s), &values); err != nil {
		return nil, err
	}
	return values, nil
}
