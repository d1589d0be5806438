package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// InsertSite stores a site. The password must already be encrypted.
func (db *DB) InsertSite(ctx context.Context, s Site) (*Site, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := db.timestamp()

	query, args, err := psql.Insert("wordpress_sites").
		Columns("id", "user_id", "name", "url", "username", "password_encrypted", "cta_text", "cta_link", "created_at").
		Values(s.ID, s.UserID, s.Name, s.URL, s.Username, s.PasswordEncrypted, s.CTAText, s.CTALink, now).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting site: %w", err)
	}
	return db.GetSite(ctx, s.ID)
}

// GetSite returns a site by ID, or ErrNotFound.
func (db *DB) GetSite(ctx context.Context, id string) (*Site, error) {
	query, args, err := siteColumns().Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}
	s, err := scanSite(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return s, err
}

// ListSites returns sites, optionally limited to one user.
func (db *DB) ListSites(ctx context.Context, userID string) ([]Site, error) {
	b := siteColumns().OrderBy("created_at ASC")
	if userID != "" {
		b = b.Where("user_id = ?", userID)
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

	var sites []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *s)
	}
	return sites, rows.Err()
}

// DeleteSite removes a site and, by cascade, its automations.
func (db *DB) DeleteSite(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM wordpress_sites WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectAffected(res, "site", id)
}

func siteColumns() selectBuilder {
	return psql.Select("id", "user_id", "name", "url", "username", "password_encrypted",
		"cta_text", "cta_link", "created_at").From("wordpress_sites")
}

func scanSite(row scanner) (*Site, error) {
	var s Site
	var created string
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.URL, &s.Username, &s.PasswordEncrypted,
		&s.CTAText, &s.CTALink, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	s.CreatedAt = t
	return &s, nil
}
