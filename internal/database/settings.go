package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetUserSettings returns the settings row for a user, or ErrNotFound.
func (db *DB) GetUserSettings(ctx context.Context, userID string) (*UserSettings, error) {
	query, args, err := psql.Select("user_id", "default_cta_text", "default_cta_link", "created_at", "updated_at").
		From("user_settings").
		Where("user_id = ?", userID).
		ToSql()
	if err != nil {
		return nil, err
	}

	var us UserSettings
	var created, updated string
	err = db.conn.QueryRowContext(ctx, query, args...).
		Scan(&us.UserID, &us.DefaultCTAText, &us.DefaultCTALink, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if us.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if us.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &us, nil
}

// UpsertUserSettings creates or replaces the CTA defaults of a user.
func (db *DB) UpsertUserSettings(ctx context.Context, userID string, ctaText, ctaLink *string) error {
	now := db.timestamp()
	query, args, err := psql.Insert("user_settings").
		Columns("user_id", "default_cta_text", "default_cta_link", "created_at", "updated_at").
		Values(userID, ctaText, ctaLink, now, now).
		Suffix("ON CONFLICT(user_id) DO UPDATE SET default_cta_text = excluded.default_cta_text, " +
			"default_cta_link = excluded.default_cta_link, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, query, args...)
	return err
}
