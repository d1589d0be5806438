package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Guidantas28/blog-generator/internal/dedup"
)

// InsertPost stores a post row in the given table and returns its ID.
func (db *DB) InsertPost(ctx context.Context, store PostStore, p Post) (string, error) {
	if err := store.validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	keywords, err := encodeStrings(p.Keywords)
	if err != nil {
		return "", err
	}

	query, args, err := psql.Insert(string(store)).
		Columns("id", "user_id", "site_id", "topic", "title", "content", "excerpt", "keywords",
			"image_url", "wordpress_post_id", "wordpress_post_url", "status", "trend_source", "created_at").
		Values(p.ID, p.UserID, p.SiteID, p.Topic, p.Title, p.Content, p.Excerpt, keywords,
			p.ImageURL, p.WordPressPostID, p.WordPressPostURL, p.Status, p.TrendSource, db.timestamp()).
		ToSql()
	if err != nil {
		return "", err
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("inserting into %s: %w", store, err)
	}
	return p.ID, nil
}

// ListPosts returns the newest posts of a site from one table.
func (db *DB) ListPosts(ctx context.Context, store PostStore, siteID string, limit int) ([]Post, error) {
	if err := store.validate(); err != nil {
		return nil, err
	}
	b := psql.Select("id", "user_id", "site_id", "topic", "title", "content", "excerpt", "keywords",
		"image_url", "wordpress_post_id", "wordpress_post_url", "status", "trend_source", "created_at").
		From(string(store)).
		Where(sq.Eq{"site_id": siteID}).
		OrderBy("created_at DESC", "rowid DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
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

	var out []Post
	for rows.Next() {
		var p Post
		var keywords *string
		var created string
		if err := rows.Scan(&p.ID, &p.UserID, &p.SiteID, &p.Topic, &p.Title, &p.Content, &p.Excerpt,
			&keywords, &p.ImageURL, &p.WordPressPostID, &p.WordPressPostURL, &p.Status,
			&p.TrendSource, &created); err != nil {
			return nil, err
		}
		if p.Keywords, err = decodeStrings(keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// History returns a dedup.HistorySource reading from one post table.
func (db *DB) History(store PostStore) dedup.HistorySource {
	return historySource{db: db, store: store}
}

type historySource struct {
	db    *DB
	store PostStore
}

func (h historySource) RecentPosts(ctx context.Context, siteID string, limit int) ([]dedup.HistoricalPost, error) {
	if err := h.store.validate(); err != nil {
		return nil, err
	}
	query, args, err := psql.Select("title", "topic", "created_at").
		From(string(h.store)).
		Where(sq.Eq{"site_id": siteID}).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := h.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s history: %w", h.store, err)
	}
	defer rows.Close()

	var out []dedup.HistoricalPost
	for rows.Next() {
		var p dedup.HistoricalPost
		var created string
		if err := rows.Scan(&p.Title, &p.Topic, &created); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s PostStore) validate() error {
	switch s {
	case PublishedPosts, AutomatedPosts:
		return nil
	}
	return fmt.Errorf("unknown post store %q", string(s))
}
